package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/driftywinds/birthday-bot/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Store is the in-memory subscriber map, guarded by a RWMutex so the
// scheduler can snapshot while command handlers mutate. Every mutation
// is saved through the Repo; a failed save is logged and the in-memory
// state stays authoritative for the running process.
type Store struct {
	mu        sync.RWMutex
	subs      map[string]*domain.Subscriber
	repo      Repo
	log       *zap.Logger
	defaultTZ string
}

func New(repo Repo, log *zap.Logger, defaultTZ string) *Store {
	return &Store{
		subs:      make(map[string]*domain.Subscriber),
		repo:      repo,
		log:       log,
		defaultTZ: defaultTZ,
	}
}

// Load replaces the in-memory state with whatever the repo holds.
// Called once at startup, before the scheduler and router run.
func (s *Store) Load(ctx context.Context) error {
	subs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.subs = subs
	s.mu.Unlock()
	return nil
}

// ensure returns the subscriber for userID, creating it lazily with
// defaults on first reference. Caller must hold s.mu.
func (s *Store) ensure(userID string) *domain.Subscriber {
	sub, ok := s.subs[userID]
	if !ok {
		sub = domain.NewSubscriber(userID, s.defaultTZ)
		s.subs[userID] = sub
	}
	return sub
}

// persist saves a snapshot of the subscriber outside the map lock, so a
// slow write never blocks the scheduler's Snapshot. Save errors are an
// operator concern, not a user-facing failure.
func (s *Store) persist(ctx context.Context, sub domain.Subscriber) {
	if err := s.repo.SaveSubscriber(ctx, &sub); err != nil {
		s.log.Error("persist subscriber failed",
			zap.String("user", sub.UserID), zap.Error(err))
	}
}

// Get returns a deep copy of the subscriber, creating it if absent.
func (s *Store) Get(userID string) domain.Subscriber {
	s.mu.Lock()
	sub := s.ensure(userID).Clone()
	s.mu.Unlock()
	return sub
}

// Snapshot returns deep copies of all subscribers, ordered by user ID
// for deterministic iteration.
func (s *Store) Snapshot() []domain.Subscriber {
	s.mu.RLock()
	res := make([]domain.Subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		res = append(res, sub.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].UserID < res[j].UserID })
	return res
}

// AddBirthday stores or replaces a birthday under the given name.
func (s *Store) AddBirthday(ctx context.Context, userID, name string, md domain.MonthDay) {
	s.mu.Lock()
	sub := s.ensure(userID)
	sub.Birthdays[name] = md
	snap := sub.Clone()
	s.mu.Unlock()
	s.persist(ctx, snap)
}

// RemoveBirthday deletes the named birthday or reports ErrNotFound.
func (s *Store) RemoveBirthday(ctx context.Context, userID, name string) error {
	s.mu.Lock()
	sub := s.ensure(userID)
	if _, ok := sub.Birthdays[name]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(sub.Birthdays, name)
	snap := sub.Clone()
	s.mu.Unlock()
	s.persist(ctx, snap)
	return nil
}

// AddReminder appends a validated rule to the subscriber's list.
func (s *Store) AddReminder(ctx context.Context, userID string, r domain.Rule) {
	s.mu.Lock()
	sub := s.ensure(userID)
	sub.Reminders = append(sub.Reminders, r)
	snap := sub.Clone()
	s.mu.Unlock()
	s.persist(ctx, snap)
}

// RemoveReminder removes the rule at index (0-based) and returns it.
func (s *Store) RemoveReminder(ctx context.Context, userID string, index int) (domain.Rule, error) {
	s.mu.Lock()
	sub := s.ensure(userID)
	if index < 0 || index >= len(sub.Reminders) {
		s.mu.Unlock()
		return domain.Rule{}, ErrNotFound
	}
	removed := sub.Reminders[index]
	sub.Reminders = append(sub.Reminders[:index], sub.Reminders[index+1:]...)
	snap := sub.Clone()
	s.mu.Unlock()
	s.persist(ctx, snap)
	return removed, nil
}

// AddEndpoints appends confirmed endpoints, skipping ones already
// present, so re-confirming the same channel stays idempotent.
func (s *Store) AddEndpoints(ctx context.Context, userID string, endpoints ...string) {
	s.mu.Lock()
	sub := s.ensure(userID)
	for _, e := range endpoints {
		if !sub.HasEndpoint(e) {
			sub.Endpoints = append(sub.Endpoints, e)
		}
	}
	snap := sub.Clone()
	s.mu.Unlock()
	s.persist(ctx, snap)
}

// RemoveEndpoint removes the confirmed endpoint at index and returns it.
func (s *Store) RemoveEndpoint(ctx context.Context, userID string, index int) (string, error) {
	s.mu.Lock()
	sub := s.ensure(userID)
	if index < 0 || index >= len(sub.Endpoints) {
		s.mu.Unlock()
		return "", ErrNotFound
	}
	removed := sub.Endpoints[index]
	sub.Endpoints = append(sub.Endpoints[:index], sub.Endpoints[index+1:]...)
	snap := sub.Clone()
	s.mu.Unlock()
	s.persist(ctx, snap)
	return removed, nil
}

// SetTimezone validates and stores an IANA timezone. Unresolvable names
// are rejected, never silently defaulted.
func (s *Store) SetTimezone(ctx context.Context, userID, tz string) error {
	canonical, err := domain.ValidateTZ(tz)
	if err != nil {
		return ErrInvalidTimezone
	}
	s.mu.Lock()
	sub := s.ensure(userID)
	sub.Timezone = canonical
	snap := sub.Clone()
	s.mu.Unlock()
	s.persist(ctx, snap)
	return nil
}
