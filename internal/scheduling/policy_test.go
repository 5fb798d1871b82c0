package scheduling

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusinessHoursPolicy_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PolicyConfig
		wantErr bool
	}{
		{
			name: "default config",
			cfg:  PolicyConfig{StartOfDay: civil.Time{Hour: 9}, EndOfDay: civil.Time{Hour: 18}, TimeZone: "UTC"},
		},
		{
			name:    "end before start",
			cfg:     PolicyConfig{StartOfDay: civil.Time{Hour: 18}, EndOfDay: civil.Time{Hour: 9}, TimeZone: "UTC"},
			wantErr: true,
		},
		{
			name:    "equal start and end",
			cfg:     PolicyConfig{StartOfDay: civil.Time{Hour: 9}, EndOfDay: civil.Time{Hour: 9}, TimeZone: "UTC"},
			wantErr: true,
		},
		{
			name:    "unknown timezone",
			cfg:     PolicyConfig{StartOfDay: civil.Time{Hour: 9}, EndOfDay: civil.Time{Hour: 18}, TimeZone: "Mars/Olympus"},
			wantErr: true,
		},
		{
			name:    "negative step",
			cfg:     PolicyConfig{StartOfDay: civil.Time{Hour: 9}, EndOfDay: civil.Time{Hour: 18}, TimeZone: "UTC", SlotStep: -time.Minute},
			wantErr: true,
		},
		{
			name:    "invalid weekday",
			cfg:     PolicyConfig{StartOfDay: civil.Time{Hour: 9}, EndOfDay: civil.Time{Hour: 18}, TimeZone: "UTC", ExcludedWeekdays: []time.Weekday{7}},
			wantErr: true,
		},
		{
			name:    "invalid time of day",
			cfg:     PolicyConfig{StartOfDay: civil.Time{Hour: 25}, EndOfDay: civil.Time{Hour: 26}, TimeZone: "UTC"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewBusinessHoursPolicy(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestBusinessHoursPolicy_Window(t *testing.T) {
	policy := newTestPolicy(t, nil)

	window := policy.Window(monday)
	assert.Equal(t, at(8, 0), window.Start)
	assert.Equal(t, at(12, 0), window.End)
}

func TestBusinessHoursPolicy_IsClosed(t *testing.T) {
	holiday := civil.Date{Year: 2026, Month: time.November, Day: 2}
	policy := newTestPolicy(t, func(c *PolicyConfig) {
		c.ExcludedWeekdays = []time.Weekday{time.Sunday, time.Saturday}
		c.Holidays = []civil.Date{holiday}
	})

	assert.False(t, policy.IsClosed(monday))
	assert.True(t, policy.IsClosed(monday.AddDays(-1)), "sunday")
	assert.True(t, policy.IsClosed(monday.AddDays(-2)), "saturday")
	assert.True(t, policy.IsClosed(holiday))
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, policy.ExcludedWeekdays())
}

func TestBusinessHoursPolicy_DefaultTimeZone(t *testing.T) {
	p, err := NewBusinessHoursPolicy(PolicyConfig{StartOfDay: civil.Time{Hour: 9}, EndOfDay: civil.Time{Hour: 18}})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeZone, p.TimeZone())
	assert.Contains(t, p.String(), "09:00-18:00")
}

func TestParseDateAndClock(t *testing.T) {
	d, err := ParseDate(" 2026-10-19 ")
	require.NoError(t, err)
	assert.Equal(t, monday, d)

	_, err = ParseDate("19/10/2026")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	c, err := ParseClock("14:30")
	require.NoError(t, err)
	assert.Equal(t, civil.Time{Hour: 14, Minute: 30}, c)

	_, err = ParseClock("2pm")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
