package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemory(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"2 KiB", 2048},
		{"2. Ki", 2048},
		{".5 KiB", 512},
		{"1.5 KiB", 1536},
		{"0.5 k", 500},
		{"2 MiB", 2 * 1024 * 1024},
		{"2. Mi", 2 * 1024 * 1024},
		{"2.0 Mi", 2 * 1024 * 1024},
		{"0.5 M", 500_000},
		{"2 GiB", 2 * 1024 * 1024 * 1024},
		{"2. Gi", 2 * 1024 * 1024 * 1024},
		{"2.0 Gi", 2 * 1024 * 1024 * 1024},
		{"0.5 G", 500_000_000},
		{"16 GiB", 17179869184},
		{"0.001 k", 1},
		{"0.0001 k", 1},
		{" 1 \t G ", 1_000_000_000},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseMemory(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseMemory_Invalid(t *testing.T) {
	for _, input := range []string{"2x KiB", "2 XX", "x.5 KiB", "1.2x M", "1.2 Mx", "2", "2 B", "2 kib", ""} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseMemory(input)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestParseCPU(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"2", 2000},
		{"2.0 ", 2000},
		{"2.3 ", 2300},
		{"500m", 500},
		{"0.1m", 0},
		{"1500m", 1500},
		{"0.0005", 0},
		{"96", 96000},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseCPU(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCPU_Invalid(t *testing.T) {
	for _, input := range []string{"2x", "2 XX", "x.5 m", "1.2x m", "2M"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCPU(input)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestConversionError(t *testing.T) {
	cause := errors.New("bad digits")
	err := error(&ConversionError{Value: "1.x", Err: cause})

	assert.ErrorIs(t, err, ErrConversion)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), `"1.x"`)
}

func TestParse_OutOfRange(t *testing.T) {
	for _, input := range []string{"9999999999 GiB", "99999999999999 G", "9223372036854775808 k"} {
		t.Run("memory "+input, func(t *testing.T) {
			got, err := ParseMemory(input)
			require.ErrorIs(t, err, ErrConversion)
			require.ErrorIs(t, err, ErrOutOfRange)
			assert.Zero(t, got)
		})
	}
	for _, input := range []string{"9999999999999999", "9223372036854775808m"} {
		t.Run("cpu "+input, func(t *testing.T) {
			got, err := ParseCPU(input)
			require.ErrorIs(t, err, ErrOutOfRange)
			assert.Zero(t, got)
		})
	}

	got, err := ParseCPU("9223372036854775807m")
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), got)
}
