package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"esilogis/internal/bootstrap/logging"
	"esilogis/internal/errs"
	"esilogis/internal/ports"
)

type NATSConfig struct {
	URL        string
	Subject    string
	QueueGroup string
}

// NATSQueue publishes mail jobs as JSON. Consume runs on the worker side and
// shares jobs across workers through the queue group.
type NATSQueue struct {
	nc         *nats.Conn
	subject    string
	queueGroup string
}

var _ ports.MailQueue = (*NATSQueue)(nil)

func NewNATSQueue(cfg NATSConfig) (*NATSQueue, error) {
	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		return nil, errs.Validation("nats subject is required")
	}

	nc, err := nats.Connect(cfg.URL, nats.Name("esilogis"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, errs.Wrapf(err, "connect nats at %s", cfg.URL)
	}

	return &NATSQueue{
		nc:         nc,
		subject:    subject,
		queueGroup: strings.TrimSpace(cfg.QueueGroup),
	}, nil
}

func (q *NATSQueue) Enqueue(ctx context.Context, job ports.MailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return errs.Wrap(err, "marshal mail job")
	}
	if err := q.nc.Publish(q.subject, payload); err != nil {
		return errs.Wrap(err, "publish mail job")
	}
	if err := q.nc.FlushWithContext(ctx); err != nil {
		return errs.Wrap(err, "flush mail job")
	}
	return nil
}

// Consume hands every received job to handler until ctx is cancelled, then
// drains the subscription so in-flight jobs finish.
func (q *NATSQueue) Consume(ctx context.Context, handler Handler) error {
	ctx = logging.WithAttrs(ctx, slog.String("component", "mail-worker"), slog.String("subject", q.subject))

	// Jobs still in flight while draining must not see the cancellation.
	jobCtx := context.WithoutCancel(ctx)
	sub, err := q.nc.QueueSubscribe(q.subject, q.queueGroup, func(msg *nats.Msg) {
		var job ports.MailJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			logging.Warn(jobCtx, "drop malformed mail job", slog.Any("err", errs.Loggable(err)))
			return
		}
		if err := handler(jobCtx, job); err != nil {
			logging.Error(jobCtx, "deliver mail job failed",
				slog.Uint64("notification_id", job.NotificationID),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	})
	if err != nil {
		return errs.Wrap(err, "subscribe mail jobs")
	}
	logging.Info(ctx, "mail worker subscribed", slog.String("queue_group", q.queueGroup))

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return errs.Wrap(err, "drain mail subscription")
	}
	return nil
}

func (q *NATSQueue) Close() error {
	if q.nc == nil {
		return nil
	}
	return q.nc.Drain()
}
