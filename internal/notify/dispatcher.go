package notify

import (
	"go.uber.org/zap"

	"github.com/driftywinds/birthday-bot/internal/domain"
)

// Dispatcher fans one message out to all of a subscriber's confirmed
// endpoints and reports how many were reached. The underlying batch
// contract is coarse: on overall success the count is every confirmed
// endpoint, on failure it is 0.
type Dispatcher struct {
	notifier Notifier
	log      *zap.Logger
}

func NewDispatcher(n Notifier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{notifier: n, log: log}
}

// Dispatch delivers title/body to the subscriber's confirmed endpoints.
// Zero confirmed endpoints short-circuits without attempting delivery.
func (d *Dispatcher) Dispatch(sub domain.Subscriber, title, body string) int {
	if len(sub.Endpoints) == 0 {
		return 0
	}
	if !d.notifier.Deliver(sub.Endpoints, title, body) {
		d.log.Warn("notification batch failed",
			zap.String("user", sub.UserID),
			zap.Int("endpoints", len(sub.Endpoints)))
		return 0
	}
	return len(sub.Endpoints)
}
