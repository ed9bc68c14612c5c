package mock

import (
	"context"
	"log/slog"
)

// Mailer is a Mailer implementation that logs messages instead of delivering
// them. It stands in for a real transport in development and tests.
type Mailer struct {
	logger *slog.Logger
}

// NewMailer creates a new log-backed mailer.
func NewMailer(logger *slog.Logger) *Mailer {
	return &Mailer{logger: logger}
}

// Send logs the message and reports success.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "mock mailer: email sent",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(body)),
	)
	return nil
}
