package ports

import (
	"context"
	"errors"
	"time"

	"esilogis/internal/errs"
)

var ErrNotificationNotFound = errs.Mark(errors.New("notification not found"), errs.ErrNotFound)

// Email delivery states recorded on a notification.
const (
	EmailQueued  = "QUEUED"
	EmailSent    = "SENT"
	EmailSkipped = "SKIPPED"
	EmailFailed  = "FAILED"
)

// Notification kinds.
const (
	KindInterventionReported = "INTERVENTION_REPORTED"
	KindInterventionPlanned  = "INTERVENTION_PLANNED"
	KindInterventionAssigned = "INTERVENTION_ASSIGNED"
)

// NotificationContext describes the intervention a notification is about.
type NotificationContext struct {
	Kind           string
	InterventionID uint64
	Description    string
	LocationName   string
	Priority       string
	PlannedAt      *time.Time
	Actor          string
}

// NotificationResult reports the outcome of a best-effort dispatch. A failed
// dispatch never surfaces as an error to the caller.
type NotificationResult struct {
	Success    bool
	Recipients int
	Emailed    int
	Err        error
}

// Notifier is what the intervention lifecycle calls after commit.
type Notifier interface {
	NotifyAdmins(ctx context.Context, message string, nctx NotificationContext) NotificationResult
	NotifyTechnician(ctx context.Context, technician Person, nctx NotificationContext) NotificationResult
}

type Notification struct {
	ID                 uint64
	RecipientAccountID uint64
	InterventionID     *uint64
	Kind               string
	Message            string
	EmailStatus        string
	ReadAt             *time.Time
	CreatedAt          time.Time
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n Notification) (Notification, error)
	SetEmailStatus(ctx context.Context, id uint64, status string) error
	ListNotifications(ctx context.Context, accountID uint64, unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, accountID uint64, id uint64, at time.Time) error
}

// MailJob is one email to deliver.
type MailJob struct {
	NotificationID uint64 `json:"notification_id"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	HTMLBody       string `json:"html_body"`
}

// MailQueue is the boundary between dispatch and delivery. Implementations
// may deliver synchronously or hand the job to a broker.
type MailQueue interface {
	Enqueue(ctx context.Context, job MailJob) error
}

type Mailer interface {
	Send(ctx context.Context, job MailJob) error
}
