// Package formatting converts between byte counts and human-readable sizes.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

var bytesPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes renders n with base-1024 units and the given number of
// decimals. Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	f := float64(n)
	i := min(int(math.Floor(math.Log(f)/math.Log(1024))), len(units)-1)

	return strconv.FormatFloat(f/math.Pow(1024, float64(i)), 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses sizes such as "16MB", "512 kb", "1.5MiB" or "2G" into a
// byte count. All units are base-1024 and a bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	m := bytesPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	idx := slices.Index(units, canonicalUnit(m[2]))
	if idx == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
	}

	size := value * math.Pow(1024, float64(idx))
	if size > math.MaxInt64 {
		return 0, fmt.Errorf("byte size overflows: %q", s)
	}
	return int64(size), nil
}

// canonicalUnit folds "", "k", "KiB" and "KB" style suffixes onto units.
func canonicalUnit(u string) string {
	u = strings.ToUpper(u)
	switch {
	case u == "":
		return "B"
	case strings.HasSuffix(u, "IB"):
		return strings.TrimSuffix(u, "IB") + "B"
	case len(u) == 1 && u != "B":
		return u + "B"
	}
	return u
}
