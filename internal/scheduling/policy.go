package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	// DefaultTimeZone is the workshop's local timezone.
	DefaultTimeZone = "America/Sao_Paulo"

	// DefaultDurationMinutes is used when a caller does not request a duration.
	DefaultDurationMinutes = 60
)

// PolicyConfig is the mutable input used to build a BusinessHoursPolicy.
type PolicyConfig struct {
	// StartOfDay and EndOfDay bound the bookable window of every open day.
	StartOfDay civil.Time
	EndOfDay   civil.Time

	// TimeZone is an IANA identifier (e.g. "America/Sao_Paulo").
	TimeZone string

	// ExcludedWeekdays are closed every week.
	ExcludedWeekdays []time.Weekday

	// Holidays are closed dates.
	Holidays []civil.Date

	// SlotStep is the distance between consecutive candidate start times.
	// Zero means the step equals the requested duration.
	SlotStep time.Duration
}

// DefaultPolicyConfig returns 09:00-18:00 in America/Sao_Paulo, open every day.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		StartOfDay: civil.Time{Hour: 9},
		EndOfDay:   civil.Time{Hour: 18},
		TimeZone:   DefaultTimeZone,
	}
}

// BusinessHoursPolicy is the read-only opening-hours policy. Build it once
// with NewBusinessHoursPolicy and share it freely between goroutines.
type BusinessHoursPolicy struct {
	start    civil.Time
	end      civil.Time
	timeZone string
	loc      *time.Location
	excluded map[time.Weekday]bool
	holidays map[civil.Date]bool
	step     time.Duration
}

// NewBusinessHoursPolicy validates cfg and returns an immutable policy.
func NewBusinessHoursPolicy(cfg PolicyConfig) (*BusinessHoursPolicy, error) {
	const op = "policy.new"

	if !cfg.StartOfDay.IsValid() || !cfg.EndOfDay.IsValid() {
		return nil, InvalidArgument(op, "invalid time of day %s-%s", cfg.StartOfDay, cfg.EndOfDay)
	}
	if !cfg.StartOfDay.Before(cfg.EndOfDay) {
		return nil, InvalidArgument(op, "start of day %s must be before end of day %s", cfg.StartOfDay, cfg.EndOfDay)
	}
	if cfg.SlotStep < 0 {
		return nil, InvalidArgument(op, "slot step must not be negative, got %s", cfg.SlotStep)
	}

	tz := cfg.TimeZone
	if tz == "" {
		tz = DefaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: op, Detail: fmt.Sprintf("unknown timezone %q", tz), Err: err}
	}

	p := &BusinessHoursPolicy{
		start:    cfg.StartOfDay,
		end:      cfg.EndOfDay,
		timeZone: tz,
		loc:      loc,
		excluded: make(map[time.Weekday]bool, len(cfg.ExcludedWeekdays)),
		holidays: make(map[civil.Date]bool, len(cfg.Holidays)),
		step:     cfg.SlotStep,
	}
	for _, wd := range cfg.ExcludedWeekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return nil, InvalidArgument(op, "invalid weekday %d", int(wd))
		}
		p.excluded[wd] = true
	}
	for _, d := range cfg.Holidays {
		if !d.IsValid() {
			return nil, InvalidArgument(op, "invalid holiday %s", d)
		}
		p.holidays[d] = true
	}
	return p, nil
}

// StartOfDay returns the opening time.
func (p *BusinessHoursPolicy) StartOfDay() civil.Time { return p.start }

// EndOfDay returns the closing time.
func (p *BusinessHoursPolicy) EndOfDay() civil.Time { return p.end }

// TimeZone returns the IANA timezone identifier.
func (p *BusinessHoursPolicy) TimeZone() string { return p.timeZone }

// Location returns the loaded timezone.
func (p *BusinessHoursPolicy) Location() *time.Location { return p.loc }

// SlotStep returns the configured step, zero meaning "equal to duration".
func (p *BusinessHoursPolicy) SlotStep() time.Duration { return p.step }

// ExcludedWeekdays returns the closed weekdays in ascending order.
func (p *BusinessHoursPolicy) ExcludedWeekdays() []time.Weekday {
	out := make([]time.Weekday, 0, len(p.excluded))
	for wd := range p.excluded {
		out = append(out, wd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsClosed reports whether date is an excluded weekday or a holiday.
func (p *BusinessHoursPolicy) IsClosed(date civil.Date) bool {
	if p.holidays[date] {
		return true
	}
	return p.excluded[date.Weekday()]
}

// Window returns the business window [StartOfDay, EndOfDay) of date in the
// policy timezone.
func (p *BusinessHoursPolicy) Window(date civil.Date) Interval {
	return Interval{
		Start: civil.DateTime{Date: date, Time: p.start}.In(p.loc),
		End:   civil.DateTime{Date: date, Time: p.end}.In(p.loc),
	}
}

// DayOf returns the civil date of t in the policy timezone.
func (p *BusinessHoursPolicy) DayOf(t time.Time) civil.Date {
	return civil.DateOf(t.In(p.loc))
}

// String summarizes the policy for logs.
func (p *BusinessHoursPolicy) String() string {
	var closed []string
	for _, wd := range p.ExcludedWeekdays() {
		closed = append(closed, wd.String()[:3])
	}
	return fmt.Sprintf("%s-%s %s closed=[%s] holidays=%d",
		formatClock(p.start), formatClock(p.end), p.timeZone, strings.Join(closed, ","), len(p.holidays))
}

func formatClock(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, &Error{Kind: KindInvalidArgument, Op: "parse_date", Detail: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s), Err: err}
	}
	return d, nil
}

// ParseClock parses an HH:MM time of day.
func ParseClock(s string) (civil.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return civil.Time{}, &Error{Kind: KindInvalidArgument, Op: "parse_clock", Detail: fmt.Sprintf("invalid time %q, want HH:MM", s), Err: err}
	}
	return civil.Time{Hour: t.Hour(), Minute: t.Minute()}, nil
}
