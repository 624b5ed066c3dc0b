// Package notify is the parent-notification side channel. Delivery is
// fire-and-forget from the recorder's point of view: a send failure never
// affects an attendance record.
package notify

import (
	"context"
	"fmt"
)

// Notifier delivers a text message to a phone number.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// ArrivalMessage formats the parent-facing arrival text.
func ArrivalMessage(studentName, section string) string {
	return fmt.Sprintf("Your son/daughter, %s from %s, has entered the school safely.", studentName, section)
}
