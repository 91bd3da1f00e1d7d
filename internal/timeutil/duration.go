package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrParseDuration = errors.New("timeutil: invalid duration")

// ParseDuration converts a human estimate like "1h 30m", "1h30m", "2h" or
// "90m" into a minute count. A bare number is read as minutes.
func ParseDuration(input string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", ErrParseDuration)
	}
	if v, err := strconv.Atoi(s); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("%w: %q", ErrParseDuration, input)
		}
		return v, nil
	}

	total := 0
	num := ""
	sawUnit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'h' || r == 'm':
			if num == "" {
				return 0, fmt.Errorf("%w: %q", ErrParseDuration, input)
			}
			v, err := strconv.Atoi(num)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrParseDuration, input)
			}
			if r == 'h' {
				total += v * 60
			} else {
				total += v
			}
			num = ""
			sawUnit = true
		case r == ' ':
			if num != "" {
				return 0, fmt.Errorf("%w: %q", ErrParseDuration, input)
			}
		default:
			return 0, fmt.Errorf("%w: %q", ErrParseDuration, input)
		}
	}
	if num != "" || !sawUnit {
		return 0, fmt.Errorf("%w: %q", ErrParseDuration, input)
	}
	return total, nil
}

// FormatDuration renders a minute count as "2h", "1h 30m" or "45m".
// Zero formats as "0m".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	h := minutes / 60
	m := minutes % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
