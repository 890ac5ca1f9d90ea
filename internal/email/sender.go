package email

import "context"

// Sender delivers a plain-text message to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
