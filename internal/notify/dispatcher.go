// Package notify carries stored notifications to live clients. The store is
// the source of truth; dispatch is best effort and a failed delivery only
// affects the "users notified" count, never the write.
package notify

import (
	"context"
	"errors"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
)

// ErrNotConnected means the device has no live channel right now. The
// notification stays queued in storage for the next poll.
var ErrNotConnected = errors.New("device has no live connection")

// Dispatcher pushes a notification to a device over a live channel.
type Dispatcher interface {
	Deliver(ctx context.Context, device *domain.Device, n *domain.Notification) error
}

// NopDispatcher delivers nothing; every device falls back to polling.
type NopDispatcher struct{}

func (NopDispatcher) Deliver(context.Context, *domain.Device, *domain.Notification) error {
	return ErrNotConnected
}
