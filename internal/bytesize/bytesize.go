// Package bytesize parses and formats human-readable byte quantities used in
// configuration files, such as "1MiB", "512Ki" or "100MB".
package bytesize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ByteSize is a quantity of bytes.
//
// Accepted forms are a plain integer, or a number (optionally fractional)
// followed by a unit: B, decimal K/KB, M/MB, G/GB, T/TB (powers of 1000) or
// binary Ki/KiB, Mi/MiB, Gi/GiB, Ti/TiB (powers of 1024). Units are case
// insensitive.
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

var (
	ErrEmpty    = errors.New("bytesize: empty value")
	ErrSyntax   = errors.New("bytesize: invalid syntax")
	ErrUnit     = errors.New("bytesize: unknown unit")
	ErrOverflow = errors.New("bytesize: value out of range")
)

var units = map[string]ByteSize{
	"": B, "b": B,
	"k": KB, "kb": KB,
	"m": MB, "mb": MB,
	"g": GB, "gb": GB,
	"t": TB, "tb": TB,
	"ki": KiB, "kib": KiB,
	"mi": MiB, "mib": MiB,
	"gi": GiB, "gib": GiB,
	"ti": TiB, "tib": TiB,
}

// formatUnits lists the binary units used when rendering, largest first.
var formatUnits = []struct {
	size ByteSize
	name string
}{
	{TiB, "TiB"},
	{GiB, "GiB"},
	{MiB, "MiB"},
	{KiB, "KiB"},
}

// Parse converts s into a ByteSize.
func Parse(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	num, unit := s, ""
	if split >= 0 {
		num, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if num == "" {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}

	mult, ok := units[strings.ToLower(unit)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnit, unit)
	}

	if !strings.Contains(num, ".") {
		n, err := strconv.ParseUint(num, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
			}
			return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		if n > math.MaxUint64/uint64(mult) {
			return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
		}
		return ByteSize(n) * mult, nil
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	v := f * float64(mult)
	if v >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return ByteSize(v), nil
}

// String renders b with the largest binary unit that divides it exactly,
// so the result parses back to the same value ("1MiB", "1536KiB", "1000B").
func (b ByteSize) String() string {
	if b == 0 {
		return "0B"
	}
	for _, u := range formatUnits {
		if b%u.size == 0 {
			return strconv.FormatUint(uint64(b/u.size), 10) + u.name
		}
	}
	return strconv.FormatUint(uint64(b), 10) + "B"
}

// HumanString renders b rounded to two decimals, for display only.
func (b ByteSize) HumanString() string {
	for _, u := range formatUnits {
		if b >= u.size {
			return fmt.Sprintf("%.2f%s", float64(b)/float64(u.size), u.name)
		}
	}
	return fmt.Sprintf("%dB", uint64(b))
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Uint64 returns b as a uint64.
func (b ByteSize) Uint64() uint64 { return uint64(b) }

// Uint32 returns b clamped to the uint32 range.
func (b ByteSize) Uint32() uint32 {
	if b > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(b)
}
