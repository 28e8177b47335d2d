package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date, expected MM-DD")

// MonthDay is a birthday without a year, as entered by the user (MM-DD).
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses "MM-DD" into a MonthDay, rejecting impossible dates.
// 02-29 is accepted; leap-year handling is NextOccurrence's concern.
func ParseMonthDay(s string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return MonthDay{}, ErrInvalidDate
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 1 || m > 12 {
		return MonthDay{}, ErrInvalidDate
	}
	d, err := strconv.Atoi(parts[1])
	if err != nil || d < 1 || d > daysInMonth(time.Month(m)) {
		return MonthDay{}, ErrInvalidDate
	}
	return MonthDay{Month: time.Month(m), Day: d}, nil
}

// daysInMonth returns the maximum day number a month can have in any year.
func daysInMonth(m time.Month) int {
	switch m {
	case time.February:
		return 29
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// Subscriber holds everything the bot knows about one user. All four
// collections are non-nil once the subscriber exists, even when empty.
type Subscriber struct {
	UserID    string
	Birthdays map[string]MonthDay // name -> birthday, names case-sensitive
	Reminders []Rule
	Endpoints []string // confirmed delivery endpoints
	Timezone  string   // IANA name
}

// NewSubscriber creates an empty subscriber with the given timezone.
func NewSubscriber(userID, tz string) *Subscriber {
	return &Subscriber{
		UserID:    userID,
		Birthdays: make(map[string]MonthDay),
		Reminders: []Rule{},
		Endpoints: []string{},
		Timezone:  tz,
	}
}

// Clone returns a deep copy, so callers can hand subscribers across
// goroutines without sharing the underlying map and slices.
func (s *Subscriber) Clone() Subscriber {
	c := Subscriber{
		UserID:    s.UserID,
		Birthdays: make(map[string]MonthDay, len(s.Birthdays)),
		Reminders: make([]Rule, len(s.Reminders)),
		Endpoints: make([]string, len(s.Endpoints)),
		Timezone:  s.Timezone,
	}
	for name, md := range s.Birthdays {
		c.Birthdays[name] = md
	}
	copy(c.Reminders, s.Reminders)
	copy(c.Endpoints, s.Endpoints)
	return c
}

// HasEndpoint reports whether the endpoint is already confirmed.
func (s *Subscriber) HasEndpoint(endpoint string) bool {
	for _, e := range s.Endpoints {
		if e == endpoint {
			return true
		}
	}
	return false
}
