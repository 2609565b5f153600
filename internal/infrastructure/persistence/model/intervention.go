package model

import "time"

type Intervention struct {
	ID                 uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Description        string     `gorm:"column:description;type:text;not null"`
	Type               string     `gorm:"column:type;type:varchar(16);not null;check:chk_interventions_type,type IN ('CORRECTIVE','PREVENTIVE')"`
	Status             string     `gorm:"column:status;type:varchar(16);not null;index;check:chk_interventions_status,status IN ('PENDING','APPROVED','IN_PROGRESS','PAUSED','COMPLETED','CANCELLED','DENIED')"`
	Priority           string     `gorm:"column:priority;type:varchar(8);not null;check:chk_interventions_priority,priority IN ('LOW','MEDIUM','HIGH')"`
	IsRecurring        bool       `gorm:"column:is_recurring;not null"`
	RecurrenceInterval int        `gorm:"column:recurrence_interval;not null"`
	PlannedAt          *time.Time `gorm:"column:planned_at;index"`
	ResolutionSummary  *string    `gorm:"column:resolution_summary;type:text"`
	PartsUsed          *string    `gorm:"column:parts_used;type:text"`
	LocationID         uint64     `gorm:"column:location_id;not null;index"`
	EquipmentID        *uint64    `gorm:"column:equipment_id;index"`
	ReportedByID       uint64     `gorm:"column:reported_by_id;not null;index"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null;index"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;not null"`
	ApprovedAt         *time.Time `gorm:"column:approved_at"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	DeniedAt           *time.Time `gorm:"column:denied_at"`
	ResolvedAt         *time.Time `gorm:"column:resolved_at"`

	Location    *Location                `gorm:"foreignKey:LocationID"`
	Equipment   *Equipment               `gorm:"foreignKey:EquipmentID"`
	ReportedBy  *UserAccount             `gorm:"foreignKey:ReportedByID"`
	Assignments []InterventionAssignment `gorm:"foreignKey:InterventionID"`
	Pauses      []Pause                  `gorm:"foreignKey:InterventionID"`
	History     []InterventionHistory    `gorm:"foreignKey:InterventionID"`
}

func (Intervention) TableName() string {
	return "interventions"
}

// InterventionAssignment links a technician to an intervention. The composite
// primary key makes the pair unique.
type InterventionAssignment struct {
	InterventionID uint64    `gorm:"column:intervention_id;primaryKey;autoIncrement:false"`
	PersonID       uint64    `gorm:"column:person_id;primaryKey;autoIncrement:false;index"`
	AssignedAt     time.Time `gorm:"column:assigned_at;not null"`

	Person *Person `gorm:"foreignKey:PersonID"`
}

func (InterventionAssignment) TableName() string {
	return "intervention_assignments"
}

// Pause is one pause episode. The partial unique index allows a single open
// pause per intervention.
type Pause struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	InterventionID uint64     `gorm:"column:intervention_id;not null;uniqueIndex:idx_pauses_active,where:resumed_at IS NULL"`
	PausedAt       time.Time  `gorm:"column:paused_at;not null"`
	ResumedAt      *time.Time `gorm:"column:resumed_at"`
}

func (Pause) TableName() string {
	return "pauses"
}

type InterventionHistory struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	InterventionID uint64    `gorm:"column:intervention_id;not null;index"`
	Action         string    `gorm:"column:action;type:varchar(64);not null"`
	Notes          *string   `gorm:"column:notes;type:text"`
	PartsUsed      *string   `gorm:"column:parts_used;type:text"`
	LoggedByID     uint64    `gorm:"column:logged_by_id;not null;index"`
	UserAccountID  uint64    `gorm:"column:user_account_id;not null"`
	LoggedAt       time.Time `gorm:"column:logged_at;not null"`
}

func (InterventionHistory) TableName() string {
	return "intervention_histories"
}
