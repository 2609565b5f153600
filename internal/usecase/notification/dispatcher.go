package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"esilogis/internal/bootstrap/logging"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/ports"
)

// Dispatcher persists one notification per recipient and hands the email to
// the mail queue. It never returns an error to the lifecycle; failures are
// logged and reported through NotificationResult.
type Dispatcher struct {
	identity    ports.IdentityRepository
	repo        ports.NotificationRepository
	queue       ports.MailQueue
	frontendURL string
	now         func() time.Time
}

var _ ports.Notifier = (*Dispatcher)(nil)

func NewDispatcher(identity ports.IdentityRepository, repo ports.NotificationRepository, queue ports.MailQueue, frontendURL string) *Dispatcher {
	return &Dispatcher{
		identity:    identity,
		repo:        repo,
		queue:       queue,
		frontendURL: strings.TrimRight(strings.TrimSpace(frontendURL), "/"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type recipient struct {
	accountID uint64
	email     string
	name      string
}

func (d *Dispatcher) NotifyAdmins(ctx context.Context, message string, nctx ports.NotificationContext) (result ports.NotificationResult) {
	ctx = logging.WithAttrs(ctx,
		slog.String("component", "notification"),
		slog.String("kind", nctx.Kind),
		slog.Uint64("intervention_id", nctx.InterventionID),
	)
	defer d.recoverInto(ctx, &result)

	admins, err := d.identity.ListActiveAdmins(ctx)
	if err != nil {
		return d.fail(ctx, errs.Wrap(err, "list admins"), result)
	}

	recipients := make([]recipient, 0, len(admins))
	for _, admin := range admins {
		recipients = append(recipients, recipient{accountID: admin.ID, email: admin.Email})
	}
	return d.dispatch(ctx, recipients, message, nctx)
}

func (d *Dispatcher) NotifyTechnician(ctx context.Context, technician ports.Person, nctx ports.NotificationContext) (result ports.NotificationResult) {
	ctx = logging.WithAttrs(ctx,
		slog.String("component", "notification"),
		slog.String("kind", nctx.Kind),
		slog.Uint64("intervention_id", nctx.InterventionID),
		slog.Uint64("person_id", technician.ID),
	)
	defer d.recoverInto(ctx, &result)

	if technician.UserAccountID == nil {
		return d.fail(ctx, fmt.Errorf("technician %d has no user account", technician.ID), result)
	}

	message := fmt.Sprintf("Intervention #%d has been assigned to you: %s", nctx.InterventionID, nctx.Description)
	return d.dispatch(ctx, []recipient{{
		accountID: *technician.UserAccountID,
		email:     technician.Email,
		name:      technician.FullName(),
	}}, message, nctx)
}

func (d *Dispatcher) dispatch(ctx context.Context, recipients []recipient, message string, nctx ports.NotificationContext) ports.NotificationResult {
	result := ports.NotificationResult{Success: true}
	var failures []error

	for _, r := range recipients {
		emailed, err := d.notifyOne(ctx, r, message, nctx)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		result.Recipients++
		if emailed {
			result.Emailed++
		}
	}

	if len(failures) > 0 {
		return d.fail(ctx, errors.Join(failures...), result)
	}
	return result
}

// notifyOne persists the record first so the in-app notification survives a
// mail failure.
func (d *Dispatcher) notifyOne(ctx context.Context, r recipient, message string, nctx ports.NotificationContext) (bool, error) {
	status := ports.EmailQueued
	if strings.TrimSpace(r.email) == "" {
		status = ports.EmailSkipped
	}

	var interventionID *uint64
	if nctx.InterventionID != 0 {
		id := nctx.InterventionID
		interventionID = &id
	}

	record, err := d.repo.CreateNotification(ctx, ports.Notification{
		RecipientAccountID: r.accountID,
		InterventionID:     interventionID,
		Kind:               nctx.Kind,
		Message:            message,
		EmailStatus:        status,
		CreatedAt:          d.now(),
	})
	if err != nil {
		return false, errs.Wrapf(err, "persist notification for account %d", r.accountID)
	}
	if status == ports.EmailSkipped {
		metrics.RecordNotification(nctx.Kind, status)
		return false, nil
	}

	body, err := renderEmail(emailData{
		RecipientName: r.name,
		Message:       message,
		Context:       nctx,
		Link:          d.interventionLink(nctx.InterventionID),
	})
	if err == nil {
		err = d.queue.Enqueue(ctx, ports.MailJob{
			NotificationID: record.ID,
			To:             r.email,
			Subject:        subjectFor(nctx),
			HTMLBody:       body,
		})
	}
	if err != nil {
		metrics.RecordNotification(nctx.Kind, ports.EmailFailed)
		if setErr := d.repo.SetEmailStatus(ctx, record.ID, ports.EmailFailed); setErr != nil {
			logging.Warn(ctx, "record email failure", slog.Any("err", errs.Loggable(setErr)))
		}
		return false, errs.Wrapf(err, "enqueue mail for account %d", r.accountID)
	}

	metrics.RecordNotification(nctx.Kind, status)
	return true, nil
}

func (d *Dispatcher) fail(ctx context.Context, err error, result ports.NotificationResult) ports.NotificationResult {
	err = errs.Mark(err, errs.ErrNotification)
	logging.Error(ctx, "notification dispatch failed", slog.Any("err", errs.Loggable(err)))
	result.Success = false
	result.Err = err
	return result
}

func (d *Dispatcher) recoverInto(ctx context.Context, result *ports.NotificationResult) {
	if r := recover(); r != nil {
		*result = d.fail(ctx, fmt.Errorf("notification panic: %v", r), *result)
	}
}

func (d *Dispatcher) interventionLink(id uint64) string {
	if d.frontendURL == "" || id == 0 {
		return ""
	}
	return fmt.Sprintf("%s/interventions/%d", d.frontendURL, id)
}

func subjectFor(nctx ports.NotificationContext) string {
	switch nctx.Kind {
	case ports.KindInterventionReported:
		return fmt.Sprintf("[ESI LOGIS] New intervention reported #%d", nctx.InterventionID)
	case ports.KindInterventionPlanned:
		return fmt.Sprintf("[ESI LOGIS] Preventive intervention planned #%d", nctx.InterventionID)
	case ports.KindInterventionAssigned:
		return fmt.Sprintf("[ESI LOGIS] Intervention #%d assigned to you", nctx.InterventionID)
	}
	return "[ESI LOGIS] Notification"
}
