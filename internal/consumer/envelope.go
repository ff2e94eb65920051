package consumer

import (
	"context"
)

// Envelope wraps a run trigger with acknowledgment callbacks
type Envelope struct {
	Trigger *Trigger
	ack     func(context.Context) error
	nack    func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(trigger *Trigger, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Trigger: trigger,
		ack:     ack,
		nack:    nack,
	}
}

// Ack acknowledges successful processing
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
