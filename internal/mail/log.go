package mail

import (
	"context"
	"log/slog"
)

// LogMailer only logs the verification link. Meant for local development.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log.With(slog.String("component", "mail"))}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, username, link string) error {
	m.log.InfoContext(ctx, "verification email",
		slog.String("to", to),
		slog.String("username", username),
		slog.String("link", link),
	)
	return nil
}
