package notify

import (
	"context"
	"errors"

	"esilogis/internal/ports"
)

// Handler delivers one mail job.
type Handler func(ctx context.Context, job ports.MailJob) error

// InlineQueue delivers jobs synchronously on the caller's goroutine.
type InlineQueue struct {
	handler Handler
}

var _ ports.MailQueue = (*InlineQueue)(nil)

func NewInlineQueue(handler Handler) *InlineQueue {
	return &InlineQueue{handler: handler}
}

func (q *InlineQueue) Enqueue(ctx context.Context, job ports.MailJob) error {
	if q.handler == nil {
		return errors.New("inline queue has no handler")
	}
	return q.handler(ctx, job)
}
