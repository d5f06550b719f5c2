package units

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var cpuPattern = regexp.MustCompile(`^(?P<number>\d+)*[.]?(?P<decimal>\d+)*(?P<unit>m)?$`)

var coresToMillicores = decimal.NewFromInt(1_000)

// ParseCPU returns millicores. Values without the "m" suffix are whole cores.
// The result is truncated, so "0.1m" is 0.
func ParseCPU(input string) (int64, error) {
	normalized := removeWhitespace(input)
	match := cpuPattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, ErrInvalidInput
	}

	value, err := numericValue(match, cpuPattern)
	if err != nil {
		return 0, err
	}
	if match[cpuPattern.SubexpIndex("unit")] == "" {
		value = value.Mul(coresToMillicores)
	}
	return toInt64(value.Truncate(0))
}
