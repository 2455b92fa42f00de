package tokens

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)([hdm])$`)

// ParseDuration converts a lifetime expression such as "24h", "7d" or "30m"
// into a time.Duration. Only a positive integer followed by one of h, d or m
// is accepted.
func ParseDuration(expr string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(expr)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDuration, expr)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDuration, expr)
	}

	var unit time.Duration
	switch m[2] {
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "m":
		unit = time.Minute
	}

	if n > int64(maxDuration/unit) {
		return 0, fmt.Errorf("%w: %q overflows", ErrUnsupportedDuration, expr)
	}

	return time.Duration(n) * unit, nil
}

const maxDuration = time.Duration(1<<63 - 1)
