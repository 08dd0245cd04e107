package budget

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestNewState(t *testing.T) {
	s := NewState(epoch)
	assert.Equal(t, 0, s.HourlyCount)
	assert.Equal(t, 0, s.DailyCount)
	assert.Equal(t, epoch, s.HourWindowStart)
	assert.Equal(t, epoch, s.DayWindowStart)
}

func TestCheck_UnlimitedAlwaysAllowed(t *testing.T) {
	s := NewState(epoch)
	for i := 0; i < 1000; i++ {
		s.Increment()
	}
	d := Check(Config{}, s, epoch.Add(time.Minute))
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
}

func TestCheck_HourlyExhaustionAndReset(t *testing.T) {
	const limit = 3
	clock := &fakeClock{now: epoch}
	l := NewLimiter(Config{HourlyLimit: Limit(limit)}, clock.Now)

	for i := 0; i < limit; i++ {
		require.True(t, l.Check().Allowed, "iteration %d should be allowed", i)
		l.Increment()
		clock.Advance(5 * time.Minute)
	}

	d := l.Check()
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "Hourly budget exhausted (3)")
	// 15 minutes elapsed, 45 remain.
	assert.Contains(t, d.Reason, "Resets in 45 minutes.")

	clock.Advance(45 * time.Minute)
	d = l.Check()
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, l.State().HourlyCount)
	assert.Equal(t, clock.Now(), l.State().HourWindowStart)
	// The daily counter keeps accumulating across hourly resets.
	assert.Equal(t, limit, l.State().DailyCount)
}

func TestCheck_MinutesRoundUp(t *testing.T) {
	s := NewState(epoch)
	s.Increment()
	d := Check(Config{HourlyLimit: Limit(1)}, s, epoch.Add(30*time.Second))
	require.False(t, d.Allowed)
	// 59m30s remaining rounds up to 60.
	assert.Contains(t, d.Reason, "Resets in 60 minutes.")
}

func TestCheck_DailyExhaustion(t *testing.T) {
	s := NewState(epoch)
	for i := 0; i < 5; i++ {
		s.Increment()
	}
	d := Check(Config{DailyLimit: Limit(5)}, s, epoch.Add(90*time.Minute))
	require.False(t, d.Allowed)
	assert.Equal(t, "Daily budget exhausted (5). Resets in 23 hours.", d.Reason)
	// The hourly window rolled over as a side effect of checking.
	assert.Equal(t, 0, s.HourlyCount)
	assert.Equal(t, 5, s.DailyCount)
}

func TestCheck_DailyResetAfterDay(t *testing.T) {
	s := NewState(epoch)
	s.Increment()
	cfg := Config{DailyLimit: Limit(1)}
	require.False(t, Check(cfg, s, epoch.Add(23*time.Hour)).Allowed)

	d := Check(cfg, s, epoch.Add(DayWindow))
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, s.DailyCount)
	assert.Equal(t, epoch.Add(DayWindow), s.DayWindowStart)
}

func TestCheck_HourlyReportedBeforeDaily(t *testing.T) {
	s := NewState(epoch)
	s.Increment()
	s.Increment()
	d := Check(Config{HourlyLimit: Limit(2), DailyLimit: Limit(2)}, s, epoch.Add(time.Minute))
	require.False(t, d.Allowed)
	assert.True(t, strings.HasPrefix(d.Reason, "Hourly budget exhausted (2)"), d.Reason)
}

func TestCheck_HourlyWithoutDailyReached(t *testing.T) {
	s := NewState(epoch)
	s.Increment()
	d := Check(Config{HourlyLimit: Limit(1), DailyLimit: Limit(100)}, s, epoch)
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "Hourly")
}

func TestCheck_DoesNotIncrement(t *testing.T) {
	s := NewState(epoch)
	cfg := Config{HourlyLimit: Limit(1)}
	for i := 0; i < 10; i++ {
		require.True(t, Check(cfg, s, epoch).Allowed)
	}
	assert.Equal(t, 0, s.HourlyCount)
	assert.Equal(t, 0, s.DailyCount)
}

func TestTick_BoundaryIsInclusive(t *testing.T) {
	s := NewState(epoch)
	s.Increment()

	s.Tick(epoch.Add(HourWindow - time.Millisecond))
	assert.Equal(t, 1, s.HourlyCount)

	s.Tick(epoch.Add(HourWindow))
	assert.Equal(t, 0, s.HourlyCount)
	assert.Equal(t, 1, s.DailyCount)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{HourlyLimit: Limit(1), DailyLimit: Limit(10)}.Validate())

	err := Config{HourlyLimit: Limit(0)}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidLimit))

	err = Config{DailyLimit: Limit(-4)}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidLimit))
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    *int
		wantErr bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"10", Limit(10), false},
		{" 7 ", Limit(7), false},
		{"0", nil, true},
		{"-3", nil, true},
		{"abc", nil, true},
		{"1.5", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseLimit(tt.raw)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidLimit, "raw %q", tt.raw)
			continue
		}
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestConfig_Describe(t *testing.T) {
	assert.Equal(t, "unlimited", Config{}.Describe())
	assert.Equal(t, "10/hour", Config{HourlyLimit: Limit(10)}.Describe())
	assert.Equal(t, "10/hour, 50/day", Config{HourlyLimit: Limit(10), DailyLimit: Limit(50)}.Describe())
}

func TestLimitError(t *testing.T) {
	err := error(&LimitError{Name: "hourly-budget", Value: "abc"})
	assert.Equal(t, "Invalid hourly-budget: abc. Must be a positive integer.", err.Error())
	assert.ErrorIs(t, err, ErrInvalidLimit)
}
