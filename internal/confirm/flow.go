package confirm

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/driftywinds/birthday-bot/internal/notify"
)

var (
	ErrInvalidEndpoint     = errors.New("invalid endpoint")
	ErrTrialDeliveryFailed = errors.New("trial delivery failed")
	ErrNoPending           = errors.New("no pending endpoint")
)

const (
	trialTitle = "🧪 Birthday Bot Test"
	trialBody  = "This is a test notification to verify your endpoint is working correctly. " +
		"Please confirm if you received this message."
)

// EndpointAppender is the slice of the store the flow needs.
type EndpointAppender interface {
	AddEndpoints(ctx context.Context, userID string, endpoints ...string)
}

// Flow gates endpoints behind a trial delivery and an explicit user
// confirmation. At most one endpoint per user is under test at a time;
// a new proposal overwrites the previous pending one. Pending entries
// are in-memory only and vanish on restart by design.
type Flow struct {
	mu       sync.Mutex
	pending  map[string]string // userID -> endpoint under test
	notifier notify.Notifier
	store    EndpointAppender
	log      *zap.Logger
}

func New(notifier notify.Notifier, store EndpointAppender, log *zap.Logger) *Flow {
	return &Flow{
		pending:  make(map[string]string),
		notifier: notifier,
		store:    store,
		log:      log,
	}
}

// Propose checks the endpoint's syntax, sends a trial notification and,
// if both succeed, marks it pending confirmation. A rejected candidate
// is never stored anywhere.
func (f *Flow) Propose(userID, endpoint string) error {
	if !f.notifier.TryRegister(endpoint) {
		return ErrInvalidEndpoint
	}
	if !f.notifier.Deliver([]string{endpoint}, trialTitle, trialBody) {
		return ErrTrialDeliveryFailed
	}

	f.mu.Lock()
	f.pending[userID] = endpoint
	f.mu.Unlock()
	return nil
}

// Pending returns the endpoint currently under test, if any.
func (f *Flow) Pending(userID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.pending[userID]
	return e, ok
}

// Confirm moves the pending endpoint to the confirmed list and makes
// sure the chat-relay endpoint is present too, so the user always keeps
// at least one reachable channel. Returns the confirmed endpoint.
func (f *Flow) Confirm(ctx context.Context, userID, relayEndpoint string) (string, error) {
	f.mu.Lock()
	endpoint, ok := f.pending[userID]
	if !ok {
		f.mu.Unlock()
		return "", ErrNoPending
	}
	delete(f.pending, userID)
	f.mu.Unlock()

	f.store.AddEndpoints(ctx, userID, endpoint, relayEndpoint)
	f.log.Info("endpoint confirmed", zap.String("user", userID))
	return endpoint, nil
}

// Reject discards the pending endpoint and returns it for display.
func (f *Flow) Reject(userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	endpoint, ok := f.pending[userID]
	if !ok {
		return "", ErrNoPending
	}
	delete(f.pending, userID)
	return endpoint, nil
}
