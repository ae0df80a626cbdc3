package recurrence

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// ErrUnsupportedRule indicates an RRULE whose occurrences are not evenly spaced.
var ErrUnsupportedRule = errors.New("recurrence: rule has no fixed step")

// ParseRRule converts an RFC 5545 RRULE into a fixed-step Spec anchored at
// start. MONTHLY and YEARLY use the 30 and 365 day approximations of the
// presets. UNTIL limits occurrence starts and COUNT limits the number of
// occurrences; both are translated into the end bound. A DTSTART line in
// the rule overrides start. Rules whose step or COUNT span does not fit in a
// time.Duration are rejected with ErrUnsupportedRule.
func ParseRRule(start time.Time, duration time.Duration, rule string) (Spec, error) {
	opt, err := rrule.StrToROptionInLocation(rule, start.Location())
	if err != nil {
		return Spec{}, fmt.Errorf("recurrence: parse rrule %q: %w", rule, err)
	}
	if hasByParts(opt) {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedRule, rule)
	}
	if !opt.Dtstart.IsZero() {
		start = opt.Dtstart
	}

	unit, err := freqStep(opt.Freq)
	if err != nil {
		return Spec{}, err
	}
	every := opt.Interval
	if every == 0 {
		every = 1
	}
	if every < 0 || opt.Count < 0 {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidRecurrenceSpec, rule)
	}
	if int64(every) > math.MaxInt64/int64(unit) {
		return Spec{}, fmt.Errorf("%w: INTERVAL=%d overflows the step of %q", ErrUnsupportedRule, every, rule)
	}
	step := unit * time.Duration(every)

	spec := Spec{AnchorStart: start, AnchorDuration: duration, Step: step, Bound: mo.None[time.Time]()}
	if !opt.Until.IsZero() {
		spec.Bound = mo.Some(opt.Until.Add(duration))
	}
	if opt.Count > 0 {
		if int64(opt.Count-1) > (math.MaxInt64-int64(max(duration, 0)))/int64(step) {
			return Spec{}, fmt.Errorf("%w: COUNT=%d overflows the span of %q", ErrUnsupportedRule, opt.Count, rule)
		}
		byCount := start.Add(time.Duration(opt.Count-1)*step + duration)
		if bound, ok := spec.Bound.Get(); !ok || byCount.Before(bound) {
			spec.Bound = mo.Some(byCount)
		}
	}

	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func freqStep(freq rrule.Frequency) (time.Duration, error) {
	switch freq {
	case rrule.SECONDLY:
		return time.Second, nil
	case rrule.MINUTELY:
		return time.Minute, nil
	case rrule.HOURLY:
		return time.Hour, nil
	case rrule.DAILY:
		return day, nil
	case rrule.WEEKLY:
		return 7 * day, nil
	case rrule.MONTHLY:
		return 30 * day, nil
	case rrule.YEARLY:
		return 365 * day, nil
	}
	return 0, ErrInvalidFrequency
}

func hasByParts(opt *rrule.ROption) bool {
	return len(opt.Bysetpos) > 0 ||
		len(opt.Bymonth) > 0 ||
		len(opt.Bymonthday) > 0 ||
		len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 ||
		len(opt.Byweekday) > 0 ||
		len(opt.Byhour) > 0 ||
		len(opt.Byminute) > 0 ||
		len(opt.Bysecond) > 0 ||
		len(opt.Byeaster) > 0
}
