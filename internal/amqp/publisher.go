package amqp

import (
	"context"

	"finboard/internal/log"
)

// Publisher is what the finance service uses to announce changes.
type Publisher interface {
	Publish(ctx context.Context, msg *ChangeMessage) error
	Close() error
}

// LogPublisher stands in when no broker is configured; it only logs.
type LogPublisher struct {
	log *log.Logger
}

func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.Discard()
	}
	return &LogPublisher{log: logger.WithComponent(log.ComponentAMQP)}
}

func (p *LogPublisher) Publish(ctx context.Context, msg *ChangeMessage) error {
	p.log.DebugContext(ctx, "change event",
		log.FieldEntity, msg.Entity,
		log.FieldOperation, msg.Operation,
		log.FieldID, msg.ID)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

var (
	_ Publisher = (*Client)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
