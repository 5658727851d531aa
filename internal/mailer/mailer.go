package mailer

import (
	"context"
	"log/slog"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NoopSender drops every message. It is used when mail delivery is disabled.
type NoopSender struct {
	Logger *slog.Logger
}

func (s NoopSender) Send(_ context.Context, msg Message) error {
	if s.Logger != nil {
		s.Logger.Debug("mail delivery disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	}
	return nil
}

// New returns an HTTP client backed by a worker pool, or a NoopSender when
// delivery is disabled. Callers that get a *Client must Shutdown it.
func New(config Config, logger *slog.Logger) Sender {
	if !config.Enabled {
		return NoopSender{Logger: logger}
	}
	return NewClient(config, logger)
}
