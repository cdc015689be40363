package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var unitDurations = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseDuration accepts values such as "15m", "12h" or "7d". A bare number is read as seconds.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return 0, fmt.Errorf("empty duration")
	}

	unit := time.Second
	digits := raw
	if d, ok := unitDurations[raw[len(raw)-1]]; ok {
		unit = d
		digits = raw[:len(raw)-1]
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("duration %q out of range", raw)
	}
	return time.Duration(n) * unit, nil
}
