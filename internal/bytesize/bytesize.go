// Package bytesize parses and formats human-readable byte quantities.
// Quota limits and upload caps in the configuration are expressed as
// strings like "10Gi" or "500MB" and decoded into a Size.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count decoded from a human-readable string.
//
// Accepted forms:
//   - plain integers: "1024"
//   - binary units (×1024): Ki/KiB, Mi/MiB, Gi/GiB, Ti/TiB
//   - decimal units (×1000): K/KB, M/MB, G/GB, T/TB
//   - a trailing "B" on its own
//
// Fractional values are allowed with a unit, e.g. "1.5Gi".
type Size uint64

const (
	Byte Size = 1

	KB Size = 1000
	MB Size = 1000 * KB
	GB Size = 1000 * MB
	TB Size = 1000 * GB

	KiB Size = 1024
	MiB Size = 1024 * KiB
	GiB Size = 1024 * MiB
	TiB Size = 1024 * GiB
)

var units = map[string]Size{
	"":    Byte,
	"b":   Byte,
	"k":   KB,
	"kb":  KB,
	"m":   MB,
	"mb":  MB,
	"g":   GB,
	"gb":  GB,
	"t":   TB,
	"tb":  TB,
	"ki":  KiB,
	"kib": KiB,
	"mi":  MiB,
	"mib": MiB,
	"gi":  GiB,
	"gib": GiB,
	"ti":  TiB,
	"tib": TiB,
}

// Parse converts a human-readable size string into a Size.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	// Split into the leading numeric part and the unit suffix.
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	numStr := s[:i]
	unit := strings.ToLower(strings.TrimSpace(s[i:]))

	if numStr == "" {
		return 0, fmt.Errorf("invalid size format: %q", s)
	}

	mult, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("unknown size unit: %q", s[i:])
	}

	if strings.Contains(numStr, ".") {
		f, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in size: %q", numStr)
		}
		return Size(f * float64(mult)), nil
	}

	n, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in size: %q", numStr)
	}
	return Size(n) * mult, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so Size fields decode
// directly from configuration values via mapstructure.
func (s *Size) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText implements encoding.TextMarshaler so Size fields survive a
// config round-trip through YAML.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// String renders the size with the largest binary unit that fits.
func (s Size) String() string {
	switch {
	case s >= TiB && s%TiB == 0:
		return fmt.Sprintf("%dTi", s/TiB)
	case s >= GiB && s%GiB == 0:
		return fmt.Sprintf("%dGi", s/GiB)
	case s >= MiB && s%MiB == 0:
		return fmt.Sprintf("%dMi", s/MiB)
	case s >= KiB && s%KiB == 0:
		return fmt.Sprintf("%dKi", s/KiB)
	case s >= GiB:
		return fmt.Sprintf("%.2fGi", float64(s)/float64(GiB))
	case s >= MiB:
		return fmt.Sprintf("%.2fMi", float64(s)/float64(MiB))
	default:
		return fmt.Sprintf("%d", uint64(s))
	}
}

// Int64 returns the size as an int64 for interfaces that count bytes signed.
func (s Size) Int64() int64 {
	return int64(s)
}
