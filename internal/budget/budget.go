// Package budget caps how many loop iterations may run within rolling hourly
// and daily windows.
//
// Windows are anchored at the time the State is created and re-anchored lazily:
// the first observation at or after the window length resets the counter and
// moves the window start to that observation time.
package budget

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// HourWindow is the length of the hourly window.
	HourWindow = time.Hour
	// DayWindow is the length of the daily window.
	DayWindow = 24 * time.Hour
)

// Config holds the iteration caps. A nil limit means unlimited.
type Config struct {
	HourlyLimit *int `yaml:"hourly,omitempty" json:"hourly,omitempty"`
	DailyLimit  *int `yaml:"daily,omitempty" json:"daily,omitempty"`
}

// Limit returns a pointer suitable for Config fields.
func Limit(n int) *int {
	return &n
}

// Validate rejects non-positive limits.
func (c Config) Validate() error {
	if c.HourlyLimit != nil && *c.HourlyLimit <= 0 {
		return fmt.Errorf("hourly: %w", ErrInvalidLimit)
	}
	if c.DailyLimit != nil && *c.DailyLimit <= 0 {
		return fmt.Errorf("daily: %w", ErrInvalidLimit)
	}
	return nil
}

// ParseLimit parses a user-supplied limit. Empty input yields nil (unlimited).
func ParseLimit(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%q: %w", raw, ErrInvalidLimit)
	}
	return &n, nil
}

// State is the mutable usage record. It is owned by a single loop and is not
// safe for concurrent use.
type State struct {
	HourlyCount     int       `json:"hourly_count"`
	DailyCount      int       `json:"daily_count"`
	HourWindowStart time.Time `json:"hour_window_start"`
	DayWindowStart  time.Time `json:"day_window_start"`
}

// NewState anchors both windows at now with zero usage.
func NewState(now time.Time) *State {
	return &State{
		HourWindowStart: now,
		DayWindowStart:  now,
	}
}

// Tick rolls over any window whose length has fully elapsed at now.
func (s *State) Tick(now time.Time) {
	if now.Sub(s.HourWindowStart) >= HourWindow {
		s.HourlyCount = 0
		s.HourWindowStart = now
	}
	if now.Sub(s.DayWindowStart) >= DayWindow {
		s.DailyCount = 0
		s.DayWindowStart = now
	}
}

// Increment records one completed iteration in both windows.
func (s *State) Increment() {
	s.HourlyCount++
	s.DailyCount++
}

// Decision is the result of a budget check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Check rolls the windows forward to now and decides whether another
// iteration may start. The hourly cap is reported before the daily one.
func Check(cfg Config, s *State, now time.Time) Decision {
	s.Tick(now)

	if cfg.HourlyLimit != nil && s.HourlyCount >= *cfg.HourlyLimit {
		remaining := HourWindow - now.Sub(s.HourWindowStart)
		return Decision{
			Reason: fmt.Sprintf("Hourly budget exhausted (%d). Resets in %d minutes.",
				*cfg.HourlyLimit, ceilDiv(remaining, time.Minute)),
		}
	}

	if cfg.DailyLimit != nil && s.DailyCount >= *cfg.DailyLimit {
		remaining := DayWindow - now.Sub(s.DayWindowStart)
		return Decision{
			Reason: fmt.Sprintf("Daily budget exhausted (%d). Resets in %d hours.",
				*cfg.DailyLimit, ceilDiv(remaining, time.Hour)),
		}
	}

	return Decision{Allowed: true}
}

func ceilDiv(d, unit time.Duration) int64 {
	return int64(math.Ceil(float64(d) / float64(unit)))
}

// Limiter binds a Config and State to a clock.
type Limiter struct {
	cfg   Config
	state *State
	now   func() time.Time
}

// NewLimiter creates a limiter whose windows start at now().
// A nil clock falls back to time.Now.
func NewLimiter(cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{cfg: cfg, state: NewState(now()), now: now}
}

// Check decides whether another iteration may start.
func (l *Limiter) Check() Decision {
	return Check(l.cfg, l.state, l.now())
}

// Increment records a successful iteration.
func (l *Limiter) Increment() {
	l.state.Increment()
}

// Config returns the limiter's configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// State returns a copy of the current usage.
func (l *Limiter) State() State {
	return *l.state
}

// Describe renders the configured caps for display, e.g. "10/hour, 50/day".
func (c Config) Describe() string {
	var parts []string
	if c.HourlyLimit != nil {
		parts = append(parts, fmt.Sprintf("%d/hour", *c.HourlyLimit))
	}
	if c.DailyLimit != nil {
		parts = append(parts, fmt.Sprintf("%d/day", *c.DailyLimit))
	}
	if len(parts) == 0 {
		return "unlimited"
	}
	return strings.Join(parts, ", ")
}
