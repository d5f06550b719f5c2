// Package store persists the instance type catalog in a bbolt database.
package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"instancecat/internal/domain"
)

// Store is a bbolt backed catalog. bbolt transactions give readers a
// consistent view while ReplaceAll commits.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	logger *zap.Logger
	closed bool
}

var _ domain.CatalogStore = (*Store)(nil)

// PathIn returns the database file location inside a stores directory.
func PathIn(dir string) string {
	return filepath.Join(dir, domain.DefaultStoreFileName)
}

// Open opens or creates the catalog database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("catalog store path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure stores dir: %w", err)
	}
	base, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if err := ensureSchema(base); err != nil {
		_ = base.Close()
		return nil, err
	}
	return &Store{db: base, path: trimmed, logger: logger.Named("store")}, nil
}

// OpenReadOnly opens an existing database for inspection. It shares the
// file with a running daemon only when that daemon is not holding the lock.
func OpenReadOnly(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if _, err := os.Stat(trimmed); err != nil {
		return nil, fmt.Errorf("catalog db: %w", err)
	}
	base, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if err := base.View(checkSchema); err != nil {
		_ = base.Close()
		return nil, err
	}
	return &Store{db: base, path: trimmed, logger: zap.NewNop()}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, name string) (domain.InstanceType, error) {
	if err := ctx.Err(); err != nil {
		return domain.InstanceType{}, err
	}
	var record domain.InstanceType
	err := s.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(instanceTypesBucketName)).Get([]byte(name))
		if raw == nil {
			return fmt.Errorf("%w: %s", domain.ErrInstanceTypeNotFound, name)
		}
		return decodeRecord(raw, &record)
	})
	return record, err
}

func (s *Store) List(ctx context.Context) ([]domain.InstanceType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []domain.InstanceType
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(instanceTypesBucketName))
		records = make([]domain.InstanceType, 0, bucket.Stats().KeyN)
		return bucket.ForEach(func(_, value []byte) error {
			var record domain.InstanceType
			if err := decodeRecord(value, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	return records, err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := s.view(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(instanceTypesBucketName)).Stats().KeyN
		return nil
	})
	return count, err
}

// UpdatedAt returns the time of the last ReplaceAll, zero if none happened.
func (s *Store) UpdatedAt(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	var updatedAt time.Time
	err := s.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(metaBucketName)).Get([]byte(updatedAtKey))
		if raw == nil {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return fmt.Errorf("decode updated_at: %w", err)
		}
		updatedAt = parsed
		return nil
	})
	return updatedAt, err
}

// ReplaceAll makes records the whole content of the catalog in a single
// transaction. Keys missing from records are deleted, unchanged values are
// not rewritten. On duplicate names the first record wins.
func (s *Store) ReplaceAll(ctx context.Context, records []domain.InstanceType) (domain.ReplaceStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.ReplaceStats{}, err
	}

	keep := make(map[string]struct{}, len(records))
	encoded := make([][]byte, 0, len(records))
	ordered := make([]domain.InstanceType, 0, len(records))
	for _, record := range records {
		if strings.TrimSpace(record.Name) == "" {
			return domain.ReplaceStats{}, domain.E(domain.CodeInvalidArgument, "store.replace_all", "record name is required", nil)
		}
		if _, dup := keep[record.Key()]; dup {
			continue
		}
		raw, err := json.Marshal(record)
		if err != nil {
			return domain.ReplaceStats{}, fmt.Errorf("encode %s: %w", record.Name, err)
		}
		keep[record.Key()] = struct{}{}
		encoded = append(encoded, raw)
		ordered = append(ordered, record)
	}

	var stats domain.ReplaceStats
	err := s.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(instanceTypesBucketName))

		var stale [][]byte
		if err := bucket.ForEach(func(key, _ []byte) error {
			if _, ok := keep[string(key)]; !ok {
				stale = append(stale, append([]byte(nil), key...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, key := range stale {
			if err := bucket.Delete(key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}

		for i, record := range ordered {
			key := []byte(record.Key())
			if bytes.Equal(bucket.Get(key), encoded[i]) {
				stats.Unchanged++
				continue
			}
			if err := bucket.Put(key, encoded[i]); err != nil {
				return fmt.Errorf("write %s: %w", record.Name, err)
			}
			stats.Upserted++
		}

		stats.Deleted = len(stale)
		stats.Total = len(ordered)
		now := time.Now().UTC().Format(time.RFC3339Nano)
		return tx.Bucket([]byte(metaBucketName)).Put([]byte(updatedAtKey), []byte(now))
	})
	if err != nil {
		return domain.ReplaceStats{}, err
	}

	s.logger.Debug("catalog replaced",
		zap.Int("upserted", stats.Upserted),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("deleted", stats.Deleted),
		zap.Int("total", stats.Total),
	)
	return stats, nil
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return s.db.Update(fn)
}

func decodeRecord(raw []byte, record *domain.InstanceType) error {
	if err := json.Unmarshal(raw, record); err != nil {
		return fmt.Errorf("decode instance type: %w", err)
	}
	return nil
}
