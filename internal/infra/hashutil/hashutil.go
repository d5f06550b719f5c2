package hashutil

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"instancecat/internal/domain"
)

// CatalogDigest returns a content digest of records. Callers pass records in
// a stable order; the parser sorts them by name. An empty string means the
// digest could not be computed, which is logged.
func CatalogDigest(logger *zap.Logger, records []domain.InstanceType) string {
	data, err := json.Marshal(records)
	if err != nil {
		if logger != nil {
			logger.Warn("catalog digest failed", zap.Error(err))
		}
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
