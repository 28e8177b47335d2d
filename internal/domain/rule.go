package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidRule = errors.New("invalid reminder rule")

// RuleKind names the five supported reminder schedules. The string
// values double as the wire/persistence format.
type RuleKind string

const (
	MinutesBefore RuleKind = "minutes_before" // N minutes before midnight of the birthday
	HoursBefore   RuleKind = "hours_before"   // N hours before midnight of the birthday
	DaysBefore    RuleKind = "days_before"    // 09:00 local, N days before
	TimeOnDay     RuleKind = "time_on_day"    // HH:MM local on the birthday itself
	TimeBefore    RuleKind = "time_before"    // HH:MM local, D days before
)

// Rule is a validated reminder rule. Count is the minute/hour/day count
// for the *_before kinds; Hour/Minute are set for the timed kinds.
type Rule struct {
	Kind   RuleKind
	Count  int
	Hour   int
	Minute int
}

// ParseRule validates a (kind, value) pair against the kind's grammar:
// a non-negative integer for minutes_before/hours_before/days_before,
// HH:MM for time_on_day and D:HH:MM for time_before. Invalid rules are
// never stored, so this is the single validation point.
func ParseRule(kind, value string) (Rule, error) {
	value = strings.TrimSpace(value)
	switch RuleKind(kind) {
	case MinutesBefore, HoursBefore, DaysBefore:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return Rule{}, fmt.Errorf("%w: %s wants a non-negative integer", ErrInvalidRule, kind)
		}
		return Rule{Kind: RuleKind(kind), Count: n}, nil

	case TimeOnDay:
		hh, mm, err := parseClock(value)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: %s wants HH:MM", ErrInvalidRule, kind)
		}
		return Rule{Kind: TimeOnDay, Hour: hh, Minute: mm}, nil

	case TimeBefore:
		parts := strings.SplitN(value, ":", 2)
		if len(parts) != 2 {
			return Rule{}, fmt.Errorf("%w: %s wants D:HH:MM", ErrInvalidRule, kind)
		}
		d, err := strconv.Atoi(parts[0])
		if err != nil || d < 0 {
			return Rule{}, fmt.Errorf("%w: %s wants D:HH:MM", ErrInvalidRule, kind)
		}
		hh, mm, err := parseClock(parts[1])
		if err != nil {
			return Rule{}, fmt.Errorf("%w: %s wants D:HH:MM", ErrInvalidRule, kind)
		}
		return Rule{Kind: TimeBefore, Count: d, Hour: hh, Minute: mm}, nil

	default:
		return Rule{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, kind)
	}
}

func parseClock(s string) (hh, mm int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidRule
	}
	hh, err = strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, 0, ErrInvalidRule
	}
	mm, err = strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, 0, ErrInvalidRule
	}
	return hh, mm, nil
}

// Value renders the rule's value in its wire format (the inverse of ParseRule).
func (r Rule) Value() string {
	switch r.Kind {
	case TimeOnDay:
		return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
	case TimeBefore:
		return fmt.Sprintf("%d:%02d:%02d", r.Count, r.Hour, r.Minute)
	default:
		return strconv.Itoa(r.Count)
	}
}

func (r Rule) String() string {
	return string(r.Kind) + ": " + r.Value()
}
