package store

import (
	"context"

	"github.com/driftywinds/birthday-bot/internal/domain"
)

// Repo is the durable-save collaborator behind the in-memory store.
// It holds the full per-user record and must tolerate being empty on
// first run.
type Repo interface {
	LoadAll(ctx context.Context) (map[string]*domain.Subscriber, error)
	SaveSubscriber(ctx context.Context, sub *domain.Subscriber) error
	Close() error
}
