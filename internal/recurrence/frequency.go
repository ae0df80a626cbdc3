package recurrence

import (
	"errors"
	"strings"
	"time"

	"github.com/samber/mo"
)

const day = 24 * time.Hour

// Frequency represents the named repetition presets.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily repeats every 24 hours.
	FrequencyDaily
	// FrequencyWeekly repeats every 7 days.
	FrequencyWeekly
	// FrequencyMonthly repeats every 30 days. Calendar months differ in
	// length, so this drifts against month boundaries.
	FrequencyMonthly
	// FrequencyYearly repeats every 365 days and drifts across leap years.
	FrequencyYearly
)

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// Step returns the fixed step for the frequency.
func (f Frequency) Step() (time.Duration, error) {
	switch f {
	case FrequencyDaily:
		return day, nil
	case FrequencyWeekly:
		return 7 * day, nil
	case FrequencyMonthly:
		return 30 * day, nil
	case FrequencyYearly:
		return 365 * day, nil
	default:
		return 0, ErrInvalidFrequency
	}
}

func (f Frequency) String() string {
	switch f {
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyMonthly:
		return "monthly"
	case FrequencyYearly:
		return "yearly"
	default:
		return "unspecified"
	}
}

// ParseFrequency maps a preset name to its Frequency.
func ParseFrequency(name string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	case "yearly":
		return FrequencyYearly, nil
	}
	return FrequencyUnspecified, ErrInvalidFrequency
}

// Preset builds a Spec repeating at the given frequency.
func Preset(freq Frequency, start time.Time, duration time.Duration, bound mo.Option[time.Time]) (Spec, error) {
	step, err := freq.Step()
	if err != nil {
		return Spec{}, err
	}
	return Spec{AnchorStart: start, AnchorDuration: duration, Step: step, Bound: bound}, nil
}

// Daily repeats [start, start+duration) every day.
func Daily(start time.Time, duration time.Duration, bound mo.Option[time.Time]) Spec {
	return Spec{AnchorStart: start, AnchorDuration: duration, Step: day, Bound: bound}
}

// Weekly repeats [start, start+duration) every week.
func Weekly(start time.Time, duration time.Duration, bound mo.Option[time.Time]) Spec {
	return Spec{AnchorStart: start, AnchorDuration: duration, Step: 7 * day, Bound: bound}
}
