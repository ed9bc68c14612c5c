package mailer

import "context"

// Mailer defines the interface for delivering review workflow emails.
// Delivery is best-effort: callers log failures and never let them block the
// primary operation.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
