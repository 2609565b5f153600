package httpapi

import (
	"strings"
	"time"

	"esilogis/internal/errs"
	"esilogis/internal/ports"
	"esilogis/internal/usecase/intervention"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken   string    `json:"accessToken"`
	TokenType     string    `json:"tokenType"`
	ExpiresAt     time.Time `json:"expiresAt"`
	UserAccountID uint64    `json:"userAccountId"`
	Role          string    `json:"role"`
}

type reportRequest struct {
	Description string  `json:"description" validate:"required"`
	LocationID  uint64  `json:"locationId" validate:"required,gt=0"`
	EquipmentID *uint64 `json:"equipmentId" validate:"omitempty,gt=0"`
	Priority    string  `json:"priority"`
}

func (req reportRequest) input() intervention.ReportInput {
	return intervention.ReportInput{
		Description: req.Description,
		LocationID:  req.LocationID,
		EquipmentID: req.EquipmentID,
		Priority:    req.Priority,
	}
}

type planRequest struct {
	Description        string   `json:"description" validate:"required"`
	LocationID         uint64   `json:"locationId" validate:"required,gt=0"`
	PlannedAt          string   `json:"plannedAt" validate:"required"`
	IsRecurring        *bool    `json:"isRecurring" validate:"required"`
	RecurrenceInterval *int     `json:"recurrenceInterval"`
	Assignees          []uint64 `json:"assignees" validate:"required,min=1,dive,gt=0"`
	EquipmentID        *uint64  `json:"equipmentId" validate:"omitempty,gt=0"`
	Priority           string   `json:"priority"`
}

func (req planRequest) input() (intervention.PlanInput, error) {
	plannedAt, err := parsePlannedAt(req.PlannedAt)
	if err != nil {
		return intervention.PlanInput{}, err
	}
	return intervention.PlanInput{
		Description:        req.Description,
		LocationID:         req.LocationID,
		PlannedAt:          &plannedAt,
		IsRecurring:        req.IsRecurring,
		RecurrenceInterval: req.RecurrenceInterval,
		Assignees:          req.Assignees,
		EquipmentID:        req.EquipmentID,
		Priority:           req.Priority,
	}, nil
}

// parsePlannedAt accepts a full RFC 3339 timestamp or a bare date, which is
// read as midnight UTC.
func parsePlannedAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, errs.Validation("plannedAt must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
}

type updateRequest struct {
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	LocationID  *uint64 `json:"locationId" validate:"omitempty,gt=0"`
	EquipmentID *uint64 `json:"equipmentId" validate:"omitempty,gt=0"`
}

func (req updateRequest) input() intervention.UpdateInput {
	return intervention.UpdateInput{
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		LocationID:  req.LocationID,
		EquipmentID: req.EquipmentID,
	}
}

type assignRequest struct {
	InterventionIDs []uint64 `json:"interventionIds" validate:"required,min=1,dive,gt=0"`
	TechnicianIDs   []uint64 `json:"technicianIds" validate:"required,min=1,dive,gt=0"`
}

type resolveRequest struct {
	Action      string  `json:"action"`
	Notes       *string `json:"notes"`
	PartsUsed   *string `json:"partsUsed"`
	EquipmentID *uint64 `json:"equipmentId" validate:"omitempty,gt=0"`
}

func (req resolveRequest) input() intervention.ResolveInput {
	return intervention.ResolveInput{
		EquipmentID: req.EquipmentID,
		Action:      req.Action,
		PartsUsed:   req.PartsUsed,
		Notes:       req.Notes,
	}
}

type locationView struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type equipmentView struct {
	ID                       uint64     `json:"id"`
	Name                     string     `json:"name"`
	InventoryCode            string     `json:"inventoryCode,omitempty"`
	Status                   string     `json:"status"`
	NextScheduledMaintenance *time.Time `json:"nextScheduledMaintenance,omitempty"`
}

type accountView struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type personView struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

type historyView struct {
	ID            uint64    `json:"id"`
	Action        string    `json:"action"`
	Notes         *string   `json:"notes,omitempty"`
	PartsUsed     *string   `json:"partsUsed,omitempty"`
	LoggedByID    uint64    `json:"loggedById"`
	UserAccountID uint64    `json:"userAccountId"`
	LoggedAt      time.Time `json:"loggedAt"`
}

type pauseView struct {
	ID        uint64     `json:"id"`
	PausedAt  time.Time  `json:"pausedAt"`
	ResumedAt *time.Time `json:"resumedAt,omitempty"`
}

type interventionView struct {
	ID                 uint64         `json:"id"`
	Description        string         `json:"description"`
	Type               string         `json:"type"`
	Status             string         `json:"status"`
	Priority           string         `json:"priority"`
	IsRecurring        bool           `json:"isRecurring"`
	RecurrenceInterval int            `json:"recurrenceInterval"`
	PlannedAt          *time.Time     `json:"plannedAt,omitempty"`
	ResolutionSummary  *string        `json:"resolutionSummary,omitempty"`
	PartsUsed          *string        `json:"partsUsed,omitempty"`
	LocationID         uint64         `json:"locationId"`
	EquipmentID        *uint64        `json:"equipmentId,omitempty"`
	ReportedByID       uint64         `json:"reportedById"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	ApprovedAt         *time.Time     `json:"approvedAt,omitempty"`
	CancelledAt        *time.Time     `json:"cancelledAt,omitempty"`
	DeniedAt           *time.Time     `json:"deniedAt,omitempty"`
	ResolvedAt         *time.Time     `json:"resolvedAt,omitempty"`
	Location           *locationView  `json:"location,omitempty"`
	Equipment          *equipmentView `json:"equipment,omitempty"`
	ReportedBy         *accountView   `json:"reportedBy,omitempty"`
	Assignees          []personView   `json:"assignees"`
	History            []historyView  `json:"history,omitempty"`
	Pauses             []pauseView    `json:"pauses,omitempty"`
}

func toInterventionView(item ports.Intervention) interventionView {
	out := interventionView{
		ID:                 item.ID,
		Description:        item.Description,
		Type:               string(item.Type),
		Status:             string(item.Status),
		Priority:           string(item.Priority),
		IsRecurring:        item.IsRecurring,
		RecurrenceInterval: item.RecurrenceInterval,
		PlannedAt:          item.PlannedAt,
		ResolutionSummary:  item.ResolutionSummary,
		PartsUsed:          item.PartsUsed,
		LocationID:         item.LocationID,
		EquipmentID:        item.EquipmentID,
		ReportedByID:       item.ReportedByID,
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
		ApprovedAt:         item.ApprovedAt,
		CancelledAt:        item.CancelledAt,
		DeniedAt:           item.DeniedAt,
		ResolvedAt:         item.ResolvedAt,
		Assignees:          make([]personView, 0, len(item.Assignees)),
	}
	if item.Location != nil {
		out.Location = &locationView{ID: item.Location.ID, Name: item.Location.Name, Description: item.Location.Description}
	}
	if item.Equipment != nil {
		out.Equipment = &equipmentView{
			ID:                       item.Equipment.ID,
			Name:                     item.Equipment.Name,
			InventoryCode:            item.Equipment.InventoryCode,
			Status:                   string(item.Equipment.Status),
			NextScheduledMaintenance: item.Equipment.NextScheduledMaintenance,
		}
	}
	if item.ReportedBy != nil {
		out.ReportedBy = &accountView{ID: item.ReportedBy.ID, Email: item.ReportedBy.Email, Role: string(item.ReportedBy.Role)}
	}
	for _, p := range item.Assignees {
		out.Assignees = append(out.Assignees, personView{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email})
	}
	for _, entry := range item.History {
		out.History = append(out.History, toHistoryView(entry))
	}
	for _, p := range item.Pauses {
		out.Pauses = append(out.Pauses, pauseView{ID: p.ID, PausedAt: p.PausedAt, ResumedAt: p.ResumedAt})
	}
	return out
}

func toInterventionViews(items []ports.Intervention) []interventionView {
	out := make([]interventionView, 0, len(items))
	for _, item := range items {
		out = append(out, toInterventionView(item))
	}
	return out
}

func toHistoryView(entry ports.HistoryEntry) historyView {
	return historyView{
		ID:            entry.ID,
		Action:        entry.Action,
		Notes:         entry.Notes,
		PartsUsed:     entry.PartsUsed,
		LoggedByID:    entry.LoggedByID,
		UserAccountID: entry.UserAccountID,
		LoggedAt:      entry.LoggedAt,
	}
}

type resolveView struct {
	Intervention interventionView  `json:"intervention"`
	History      historyView       `json:"history"`
	Recurring    *interventionView `json:"recurring,omitempty"`
}

type notificationView struct {
	ID             uint64     `json:"id"`
	InterventionID *uint64    `json:"interventionId,omitempty"`
	Kind           string     `json:"kind"`
	Message        string     `json:"message"`
	EmailStatus    string     `json:"emailStatus"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
