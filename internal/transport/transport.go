// Package transport delivers attendance reports to an external channel.
package transport

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when the transport has no usable
// credentials. Pending records stay pending until credentials appear.
var ErrNotConfigured = errors.New("transport not configured")

// Transport sends one rendered report message. Send must only return nil
// once the remote side has confirmed delivery.
type Transport interface {
	Send(ctx context.Context, message string) error
}
