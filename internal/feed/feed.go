// Package feed delivers attendance insert events to live viewers.
package feed

import (
	"context"

	"qrpresence/internal/attendance"
)

// Channel is the redis pub/sub channel carrying insert events.
const Channel = "attendance:inserts"

// Subscription is one listener on the insert stream. Close must be called
// when the viewer goes away so listeners are never leaked.
type Subscription interface {
	Records() <-chan attendance.Record
	Close() error
}

// Feed is the abstraction over different backends. Events are delivered
// in publish order; subscribers trust that and never re-sort.
type Feed interface {
	Publish(ctx context.Context, rec attendance.Record) error
	Subscribe(ctx context.Context) (Subscription, error)
}
