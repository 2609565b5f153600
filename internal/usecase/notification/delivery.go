package notification

import (
	"context"
	"log/slog"

	"esilogis/internal/bootstrap/logging"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/ports"
)

// Deliverer sends one queued mail job and records the outcome on its
// notification. The inline queue and the NATS worker both call it.
type Deliverer struct {
	mailer ports.Mailer
	repo   ports.NotificationRepository
}

func NewDeliverer(mailer ports.Mailer, repo ports.NotificationRepository) *Deliverer {
	return &Deliverer{mailer: mailer, repo: repo}
}

func (d *Deliverer) Deliver(ctx context.Context, job ports.MailJob) error {
	sendErr := d.mailer.Send(ctx, job)

	status := ports.EmailSent
	if sendErr != nil {
		status = ports.EmailFailed
	}
	metrics.RecordMailDelivery(status)

	if job.NotificationID != 0 {
		if err := d.repo.SetEmailStatus(ctx, job.NotificationID, status); err != nil {
			logging.Warn(ctx, "record email status",
				slog.Uint64("notification_id", job.NotificationID),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
	return sendErr
}
