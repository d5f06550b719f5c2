// Package catalog serves instance types to read-path consumers.
package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"instancecat/internal/domain"
)

// Service answers catalog queries. It only holds the read side of the store.
type Service struct {
	reader domain.CatalogReader
	logger *zap.Logger
}

func NewService(reader domain.CatalogReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reader: reader, logger: logger.Named("catalog")}
}

func (s *Service) List(ctx context.Context) ([]domain.InstanceType, error) {
	return s.reader.List(ctx)
}

func (s *Service) Get(ctx context.Context, name string) (domain.InstanceType, error) {
	record, err := s.reader.Get(ctx, name)
	if err != nil {
		return domain.InstanceType{}, domain.Wrap(codeFor(err), "catalog.get", err)
	}
	return record, nil
}

// EnrichNodeGroup attaches the catalog entry named by group.InstanceName.
// A missing entry or a failed lookup leaves InstanceType unset.
func (s *Service) EnrichNodeGroup(ctx context.Context, group domain.NodeGroup) domain.NodeGroup {
	if group.InstanceName == nil || *group.InstanceName == "" {
		return group
	}
	record, err := s.reader.Get(ctx, *group.InstanceName)
	if err != nil {
		if !errors.Is(err, domain.ErrInstanceTypeNotFound) {
			s.logger.Warn("instance type lookup failed",
				zap.String("nodegroup", group.Name),
				zap.String("instance_type", *group.InstanceName),
				zap.Error(err),
			)
		}
		return group
	}
	group.InstanceType = &record
	return group
}

// EnrichNodeGroups enriches every group and keeps their order.
func (s *Service) EnrichNodeGroups(ctx context.Context, groups []domain.NodeGroup) []domain.NodeGroup {
	out := make([]domain.NodeGroup, 0, len(groups))
	for _, group := range groups {
		out = append(out, s.EnrichNodeGroup(ctx, group))
	}
	return out
}

func codeFor(err error) domain.ErrorCode {
	if code, ok := domain.CodeFrom(err); ok {
		return code
	}
	return domain.CodeInternal
}
