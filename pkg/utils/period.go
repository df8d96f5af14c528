package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Period parsing errors.
var (
	// ErrInvalidUnit is returned when a period has no recognised unit suffix.
	ErrInvalidUnit = errors.New("invalid period unit")

	// ErrInvalidNumber is returned when the numeric part of a period is not a positive integer.
	ErrInvalidNumber = errors.New("invalid period number")
)

// MaxPeriodDays is the longest accepted period, one thousand 365-day years.
const MaxPeriodDays = 1000 * 365

// periodUnits maps unit suffixes to days. Order matters: "yr" must be tried before "y".
var periodUnits = []struct {
	suffix string
	days   int
}{
	{"yr", 365},
	{"d", 1},
	{"m", 30},
	{"y", 365},
}

// ParsePeriod converts a human period expression such as "7d", "3m", "1y" or "2yr"
// into a number of days, at most MaxPeriodDays. Input is case-insensitive and
// surrounding whitespace is ignored.
func ParsePeriod(s string) (int, error) {
	p := strings.ToLower(strings.TrimSpace(s))

	for _, u := range periodUnits {
		if !strings.HasSuffix(p, u.suffix) {
			continue
		}
		numStr := strings.TrimSuffix(p, u.suffix)
		n, err := strconv.Atoi(numStr)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
		}
		if n > MaxPeriodDays/u.days {
			return 0, fmt.Errorf("%w: %q exceeds %d days", ErrInvalidNumber, s, MaxPeriodDays)
		}
		return n * u.days, nil
	}

	return 0, fmt.Errorf("%w: %q (use d, m, y or yr)", ErrInvalidUnit, s)
}
