package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/driftywinds/birthday-bot/internal/domain"
)

// FiringWindow is the tolerance within which a reminder instant counts
// as due. The tick cadence equals the window, so consecutive windows
// are disjoint and a rule fires at most once per occurrence.
const FiringWindow = time.Minute

// Source hands the scheduler a consistent snapshot of all subscribers.
type Source interface {
	Snapshot() []domain.Subscriber
}

// Dispatcher delivers one message to a subscriber's confirmed endpoints.
type Dispatcher interface {
	Dispatch(sub domain.Subscriber, title, body string) int
}

// Scheduler drives the minute-tick loop: for every subscriber, every
// birthday, every rule, it derives the reminder instant and dispatches
// when the instant falls inside the current firing window. It keeps no
// state across ticks beyond what the Source holds.
type Scheduler struct {
	source     Source
	dispatcher Dispatcher
	log        *zap.Logger
	interval   time.Duration
}

func New(source Source, dispatcher Dispatcher, log *zap.Logger) *Scheduler {
	return &Scheduler{
		source:     source,
		dispatcher: dispatcher,
		log:        log,
		interval:   FiringWindow,
	}
}

// Run ticks until ctx is canceled. Tick executes inline in the loop
// goroutine, so ticks never overlap; time.Ticker drops intermediate
// ticks while a slow one runs, and the loop itself never terminates on
// a tick-level failure.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.safeTick(time.Now().UTC())
		}
	}
}

// safeTick keeps a panicking tick from killing the loop; the next tick
// retries one period later.
func (s *Scheduler) safeTick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick panicked", zap.Any("panic", r))
		}
	}()
	s.Tick(now)
}

// Tick performs one scheduling cycle against the captured instant.
// A rule fires iff now <= instant < now+window: the half-open window
// keeps two ticks straddling the same instant from both firing.
// Failures are isolated per (user, birthday, rule) unit.
func (s *Scheduler) Tick(now time.Time) {
	for _, sub := range s.source.Snapshot() {
		if len(sub.Birthdays) == 0 || len(sub.Reminders) == 0 {
			continue
		}

		loc, err := time.LoadLocation(sub.Timezone)
		if err != nil {
			// SetTimezone validates, so only corrupt persisted data lands here.
			s.log.Error("unresolvable timezone, skipping subscriber",
				zap.String("user", sub.UserID), zap.String("tz", sub.Timezone), zap.Error(err))
			continue
		}

		for name, md := range sub.Birthdays {
			occurrence := domain.NextOccurrence(md, now)
			for _, rule := range sub.Reminders {
				instant := domain.ReminderInstant(occurrence, rule, loc)
				until := instant.Sub(now)
				if until < 0 || until >= s.interval {
					continue
				}

				title, body := reminderMessage(name, md, rule)
				sent := s.dispatcher.Dispatch(sub, title, body)
				s.log.Info("reminder fired",
					zap.String("user", sub.UserID),
					zap.String("name", name),
					zap.String("rule", rule.String()),
					zap.Int("delivered", sent))
			}
		}
	}
}

// reminderMessage renders the notification for a firing rule. Rules on
// the birthday itself get the present-tense message.
func reminderMessage(name string, md domain.MonthDay, r domain.Rule) (title, body string) {
	title = "🎂 Birthday Reminder: " + name
	if r.Kind == domain.TimeOnDay {
		return title, fmt.Sprintf("🎉 It's %s's birthday today! 🎉", name)
	}
	return title, fmt.Sprintf("Don't forget! %s's birthday is coming up on %s!", name, md)
}
