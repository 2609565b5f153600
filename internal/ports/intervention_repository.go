package ports

import (
	"context"
	"errors"
	"time"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
)

var (
	ErrInterventionNotFound = errs.Mark(errors.New("intervention not found"), errs.ErrNotFound)
	ErrNoActivePause        = errs.Mark(errors.New("no active pause record"), errs.ErrNotFound)
	// ErrStatusChanged is returned by a guarded status write when the row no
	// longer holds the expected status (a concurrent request won the race).
	ErrStatusChanged = errs.Mark(errors.New("intervention status changed concurrently"), errs.ErrState)
)

type Intervention struct {
	ID                 uint64
	Description        string
	Type               domain.Type
	Status             domain.Status
	Priority           domain.Priority
	IsRecurring        bool
	RecurrenceInterval int
	PlannedAt          *time.Time
	ResolutionSummary  *string
	PartsUsed          *string
	LocationID         uint64
	EquipmentID        *uint64
	ReportedByID       uint64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ApprovedAt         *time.Time
	CancelledAt        *time.Time
	DeniedAt           *time.Time
	ResolvedAt         *time.Time

	// Relations, filled by detail/list reads only.
	Location   *Location
	Equipment  *Equipment
	ReportedBy *UserAccount
	Assignees  []Person
	History    []HistoryEntry
	Pauses     []Pause
}

type Pause struct {
	ID             uint64
	InterventionID uint64
	PausedAt       time.Time
	ResumedAt      *time.Time
}

type HistoryEntry struct {
	ID             uint64
	InterventionID uint64
	Action         string
	Notes          *string
	PartsUsed      *string
	LoggedByID     uint64
	UserAccountID  uint64
	LoggedAt       time.Time
}

type HistoryCreate struct {
	InterventionID uint64
	Action         string
	Notes          *string
	PartsUsed      *string
	LoggedByID     uint64
	UserAccountID  uint64
	LoggedAt       time.Time
}

type InterventionFilter struct {
	Type         *domain.Type
	AssigneeID   *uint64
	ReportedByID *uint64
	// OrderByPlanned sorts by planned date ascending instead of creation
	// date descending.
	OrderByPlanned bool
}

// InterventionPatch carries the non-status fields an update may change. Nil
// fields are left untouched.
type InterventionPatch struct {
	Description *string
	Priority    *domain.Priority
	LocationID  *uint64
	EquipmentID *uint64
	UpdatedAt   time.Time
}

// StatusChange is a guarded status write. Stamps are set only when non-nil.
type StatusChange struct {
	From              domain.Status
	To                domain.Status
	At                time.Time
	ApprovedAt        *time.Time
	CancelledAt       *time.Time
	DeniedAt          *time.Time
	ResolvedAt        *time.Time
	ResolutionSummary *string
	PartsUsed         *string
}

type InterventionReadRepository interface {
	GetIntervention(ctx context.Context, id uint64) (Intervention, error)
	GetInterventionDetail(ctx context.Context, id uint64) (Intervention, error)
	ListInterventions(ctx context.Context, filter InterventionFilter) ([]Intervention, error)
	MissingInterventionIDs(ctx context.Context, ids []uint64) ([]uint64, error)
	ListAssigneeIDs(ctx context.Context, interventionID uint64) ([]uint64, error)
	IsAssignee(ctx context.Context, interventionID uint64, personID uint64) (bool, error)
	GetActivePause(ctx context.Context, interventionID uint64) (Pause, error)
	ListPauses(ctx context.Context, interventionID uint64) ([]Pause, error)
	ListHistory(ctx context.Context, interventionID uint64) ([]HistoryEntry, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int64, error)
}

type InterventionRepository interface {
	InterventionReadRepository
	CreateIntervention(ctx context.Context, in Intervention) (Intervention, error)
	PatchIntervention(ctx context.Context, id uint64, patch InterventionPatch) error
	// ChangeStatus writes change.To only if the row still holds change.From,
	// returning ErrStatusChanged otherwise.
	ChangeStatus(ctx context.Context, id uint64, change StatusChange) error
	// UpsertAssignment links a person to an intervention; an existing link is
	// left alone and reported as inserted=false.
	UpsertAssignment(ctx context.Context, interventionID uint64, personID uint64, at time.Time) (bool, error)
	CreatePause(ctx context.Context, interventionID uint64, at time.Time) (Pause, error)
	ClosePause(ctx context.Context, pauseID uint64, at time.Time) error
	AppendHistory(ctx context.Context, in HistoryCreate) (HistoryEntry, error)
}
