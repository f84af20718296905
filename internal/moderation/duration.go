package moderation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDuration = errors.New("invalid ban duration")

// Presets offered by the dashboard. "permanent" has no end.
var Presets = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

const Permanent = "permanent"

// ParseDuration accepts a preset, "permanent" (nil), or any Go duration of
// at least a minute.
func ParseDuration(s string) (*time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == Permanent {
		return nil, nil
	}
	if d, ok := Presets[s]; ok {
		return &d, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	if d < time.Minute {
		return nil, fmt.Errorf("%w: %q is shorter than a minute", ErrInvalidDuration, s)
	}
	return &d, nil
}

// Window computes when a ban starting at from ends; nil means never.
func Window(from time.Time, d *time.Duration) *time.Time {
	if d == nil {
		return nil
	}
	until := from.Add(*d)
	return &until
}
