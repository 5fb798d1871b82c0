package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teemow/autoagenda/internal/scheduling"
)

// policyFile is the on-disk form of the business hours:
//
//	start_of_day: "08:00"
//	end_of_day: "17:30"
//	timezone: America/Sao_Paulo
//	slot_step_minutes: 30
//	excluded_weekdays: [sunday]
//	holidays: ["2026-12-25"]
//
// Every key is optional; missing keys keep the flag or environment value.
type policyFile struct {
	StartOfDay       string   `yaml:"start_of_day"`
	EndOfDay         string   `yaml:"end_of_day"`
	TimeZone         string   `yaml:"timezone"`
	SlotStepMinutes  *int     `yaml:"slot_step_minutes"`
	ExcludedWeekdays []string `yaml:"excluded_weekdays"`
	Holidays         []string `yaml:"holidays"`
}

// LoadPolicyFile reads a YAML policy file and overlays it on base.
func LoadPolicyFile(path string, base PolicySettings) (PolicySettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("open policy file: %w", err)
	}
	defer f.Close()

	var pf policyFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	out := base
	if pf.StartOfDay != "" {
		out.StartOfDay = pf.StartOfDay
	}
	if pf.EndOfDay != "" {
		out.EndOfDay = pf.EndOfDay
	}
	if pf.TimeZone != "" {
		out.TimeZone = pf.TimeZone
	}
	if pf.SlotStepMinutes != nil {
		out.SlotStepMinutes = *pf.SlotStepMinutes
	}
	if pf.ExcludedWeekdays != nil {
		out.ExcludedWeekdays = pf.ExcludedWeekdays
	}
	if pf.Holidays != nil {
		out.Holidays = pf.Holidays
	}
	return out, nil
}

// BuildPolicy resolves the business hours from the settings and the
// optional policy file.
func (c *Config) BuildPolicy() (*scheduling.BusinessHoursPolicy, error) {
	settings := c.Policy
	if c.PolicyFile != "" {
		var err error
		if settings, err = LoadPolicyFile(c.PolicyFile, settings); err != nil {
			return nil, err
		}
	}
	pc, err := settings.PolicyConfig()
	if err != nil {
		return nil, err
	}
	return scheduling.NewBusinessHoursPolicy(pc)
}

// PolicyConfig parses the textual settings.
func (s PolicySettings) PolicyConfig() (scheduling.PolicyConfig, error) {
	pc := scheduling.DefaultPolicyConfig()

	if s.StartOfDay != "" {
		t, err := scheduling.ParseClock(s.StartOfDay)
		if err != nil {
			return pc, err
		}
		pc.StartOfDay = t
	}
	if s.EndOfDay != "" {
		t, err := scheduling.ParseClock(s.EndOfDay)
		if err != nil {
			return pc, err
		}
		pc.EndOfDay = t
	}
	if s.TimeZone != "" {
		pc.TimeZone = s.TimeZone
	}
	if s.SlotStepMinutes < 0 {
		return pc, scheduling.InvalidArgument("policy.config", "slot step must not be negative, got %d", s.SlotStepMinutes)
	}
	pc.SlotStep = time.Duration(s.SlotStepMinutes) * time.Minute

	for _, name := range s.ExcludedWeekdays {
		wd, err := ParseWeekday(name)
		if err != nil {
			return pc, err
		}
		pc.ExcludedWeekdays = append(pc.ExcludedWeekdays, wd)
	}
	for _, raw := range s.Holidays {
		d, err := scheduling.ParseDate(raw)
		if err != nil {
			return pc, err
		}
		pc.Holidays = append(pc.Holidays, d)
	}
	return pc, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "domingo": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "segunda": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "terca": time.Tuesday, "terça": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "quarta": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "quinta": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "sexta": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "sabado": time.Saturday, "sábado": time.Saturday,
}

// ParseWeekday accepts English and Portuguese weekday names and their
// three-letter English abbreviations, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, scheduling.InvalidArgument("policy.weekday", "unknown weekday %q", name)
	}
	return wd, nil
}
