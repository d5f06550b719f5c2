// Package units converts human readable magnitudes such as "1.5 GiB" or
// "500m" into canonical integers (bytes, millicores).
package units

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput is returned when the input does not match the grammar.
	ErrInvalidInput = errors.New("input data is invalid")
	// ErrConversion is matched by every *ConversionError.
	ErrConversion = errors.New("error converting value")
	// ErrOutOfRange reports a value that does not fit in an int64.
	ErrOutOfRange = errors.New("value out of range")
)

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// ConversionError wraps a numeric parse failure that happened after the
// input matched the grammar.
type ConversionError struct {
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %q: %v", e.Value, e.Err)
}

func (e *ConversionError) Unwrap() []error {
	return []error{ErrConversion, e.Err}
}

func removeWhitespace(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
}

// numericValue rebuilds "<number>.<decimal>" from the regexp groups, using
// "0" for absent parts, and parses it as an exact decimal.
func numericValue(match []string, re *regexp.Regexp) (decimal.Decimal, error) {
	number := group(match, re, "number")
	fraction := group(match, re, "decimal")
	raw := number + "." + fraction
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ConversionError{Value: raw, Err: err}
	}
	return value, nil
}

func group(match []string, re *regexp.Regexp, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(match) || match[idx] == "" {
		return "0"
	}
	return match[idx]
}

// toInt64 converts an already rounded value, refusing anything an int64
// cannot hold instead of wrapping.
func toInt64(value decimal.Decimal) (int64, error) {
	if value.GreaterThan(maxInt64) {
		return 0, &ConversionError{Value: value.String(), Err: ErrOutOfRange}
	}
	return value.IntPart(), nil
}
