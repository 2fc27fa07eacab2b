package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/ports"
)

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event ports.AccountEvent) error {
	p.log.Info().
		Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Str("username", event.Username).
		Time("occurred_at", event.OccurredAt).
		Msg("account event")
	return nil
}
