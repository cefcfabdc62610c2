// Package notify delivers the rendered digest to push channels.
package notify

import "context"

// Notifier delivers one digest message to a channel. An unconfigured channel
// skips delivery without error; the caller logs failures and carries on.
type Notifier interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}
