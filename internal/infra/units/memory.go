package units

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Alternation order matters: longer suffixes first so "KiB" never matches as "Ki".
var memoryPattern = regexp.MustCompile(`^(?P<number>\d+)*[.]?(?P<decimal>\d+)*(?P<unit>KiB|Ki|k|MiB|Mi|M|GiB|Gi|G)$`)

var memoryScale = map[string]decimal.Decimal{
	"k":   decimal.NewFromInt(1_000),
	"Ki":  decimal.NewFromInt(1 << 10),
	"KiB": decimal.NewFromInt(1 << 10),
	"M":   decimal.NewFromInt(1_000_000),
	"Mi":  decimal.NewFromInt(1 << 20),
	"MiB": decimal.NewFromInt(1 << 20),
	"G":   decimal.NewFromInt(1_000_000_000),
	"Gi":  decimal.NewFromInt(1 << 30),
	"GiB": decimal.NewFromInt(1 << 30),
}

// ParseMemory returns the number of bytes described by input, rounded up.
func ParseMemory(input string) (int64, error) {
	normalized := removeWhitespace(input)
	match := memoryPattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, ErrInvalidInput
	}

	scale, ok := memoryScale[match[memoryPattern.SubexpIndex("unit")]]
	if !ok {
		return 0, ErrInvalidInput
	}

	value, err := numericValue(match, memoryPattern)
	if err != nil {
		return 0, err
	}
	return toInt64(value.Mul(scale).Ceil())
}
