// Package pricing decodes a pricing list document into a catalog snapshot.
package pricing

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"instancecat/internal/domain"
	"instancecat/internal/infra/units"
)

const (
	keyVersion  = "version"
	keyProducts = "products"

	attrInstanceType    = "instanceType"
	attrInstanceFamily  = "instanceFamily"
	attrMemory          = "memory"
	attrVCPU            = "vcpu"
	attrGPU             = "gpu"
	attrOperatingSystem = "operatingSystem"

	operatingSystemLinux = "Linux"
)

type rawProduct struct {
	Attributes map[string]any `json:"attributes"`
}

// Parser walks a pricing list as a token stream so large documents never
// need to be held in memory at once.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser. A nil logger disables debug output.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger.Named("pricing")}
}

// Parse decodes r into a snapshot. Malformed top-level structure fails the
// whole document; problems inside a single entry only drop that entry.
func (p *Parser) Parse(r io.Reader) (domain.CatalogSnapshot, error) {
	snapshot, _, err := p.ParseWithStats(r)
	return snapshot, err
}

// ParseWithStats is Parse plus per-reason discard counters.
func (p *Parser) ParseWithStats(r io.Reader) (domain.CatalogSnapshot, domain.ParseStats, error) {
	var stats domain.ParseStats
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return domain.CatalogSnapshot{}, stats, err
	}

	var (
		version     string
		hasVersion  bool
		hasProducts bool
		records     []domain.InstanceType
		seen        = make(map[string]struct{})
	)

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return domain.CatalogSnapshot{}, stats, err
		}
		switch key {
		case keyVersion:
			var value any
			if err := dec.Decode(&value); err != nil {
				return domain.CatalogSnapshot{}, stats, malformed(err)
			}
			s, ok := value.(string)
			if !ok {
				return domain.CatalogSnapshot{}, stats, fmt.Errorf("%w: version is %T", domain.ErrMissingVersion, value)
			}
			version, hasVersion = s, true
		case keyProducts:
			hasProducts = true
			if err := p.readProducts(dec, &stats, seen, &records); err != nil {
				return domain.CatalogSnapshot{}, stats, err
			}
		default:
			if err := skipValue(dec); err != nil {
				return domain.CatalogSnapshot{}, stats, err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return domain.CatalogSnapshot{}, stats, err
	}
	if err := expectEOF(dec); err != nil {
		return domain.CatalogSnapshot{}, stats, err
	}

	if !hasVersion {
		return domain.CatalogSnapshot{}, stats, domain.ErrMissingVersion
	}
	if !hasProducts {
		return domain.CatalogSnapshot{}, stats, domain.ErrMissingProducts
	}

	slices.SortFunc(records, func(a, b domain.InstanceType) int {
		return strings.Compare(a.Name, b.Name)
	})
	stats.Kept = len(records)
	return domain.CatalogSnapshot{Version: version, Records: records}, stats, nil
}

func (p *Parser) readProducts(dec *json.Decoder, stats *domain.ParseStats, seen map[string]struct{}, records *[]domain.InstanceType) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		if _, err := readKey(dec); err != nil {
			return err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return malformed(err)
		}
		stats.Entries++

		var product rawProduct
		if err := json.Unmarshal(raw, &product); err != nil {
			stats.MalformedEntry++
			continue
		}
		record, ok := toInstanceType(product.Attributes, stats)
		if !ok {
			continue
		}
		if _, dup := seen[record.Name]; dup {
			stats.Duplicates++
			continue
		}
		seen[record.Name] = struct{}{}
		*records = append(*records, record)
		p.logger.Debug("instance type parsed",
			zap.String("name", record.Name),
			zap.String("family", record.Family),
			zap.Int("total", len(*records)),
		)
	}
	return expectDelim(dec, '}')
}

func toInstanceType(attrs map[string]any, stats *domain.ParseStats) (domain.InstanceType, bool) {
	if system, _ := stringAttr(attrs, attrOperatingSystem); system != operatingSystemLinux {
		stats.NotLinux++
		return domain.InstanceType{}, false
	}

	name, ok := stringAttr(attrs, attrInstanceType)
	if !ok || strings.TrimSpace(name) == "" {
		stats.MissingName++
		return domain.InstanceType{}, false
	}

	family, ok := stringAttr(attrs, attrInstanceFamily)
	if !ok {
		family = domain.DefaultInstanceFamily
	}

	memoryRaw, ok := stringAttr(attrs, attrMemory)
	if !ok {
		stats.InvalidMemory++
		return domain.InstanceType{}, false
	}
	memory, err := units.ParseMemory(memoryRaw)
	if err != nil {
		stats.InvalidMemory++
		return domain.InstanceType{}, false
	}

	vcpu, ok := countAttr(attrs, attrVCPU)
	if !ok {
		stats.InvalidVCPU++
		return domain.InstanceType{}, false
	}

	gpu, ok := countAttr(attrs, attrGPU)
	if !ok {
		gpu = 0
	}

	return domain.InstanceType{
		Name:   name,
		Family: family,
		Memory: memory,
		VCPU:   vcpu,
		GPU:    gpu,
	}, true
}

func stringAttr(attrs map[string]any, key string) (string, bool) {
	value, ok := attrs[key]
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

func countAttr(attrs map[string]any, key string) (int64, bool) {
	s, ok := stringAttr(attrs, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, false
	}
	return int64(n), true
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", malformed(err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", domain.ErrMalformedDocument, tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return malformed(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("%w: expected %q, got %v", domain.ErrMalformedDocument, want, tok)
	}
	return nil
}

// expectEOF rejects anything but whitespace after the top-level object.
func expectEOF(dec *json.Decoder) error {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: trailing data: %w", domain.ErrMalformedDocument, err)
	}
	return fmt.Errorf("%w: trailing data %v", domain.ErrMalformedDocument, tok)
}

// skipValue consumes one value of any shape token by token.
func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return malformed(err)
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
		if depth == 0 {
			return nil
		}
	}
}

func malformed(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
}
