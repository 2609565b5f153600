package model

import "time"

type UserAccount struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	Role         string    `gorm:"column:role;type:varchar(16);not null;index;check:chk_user_accounts_role,role IN ('ADMIN','TECHNICIAN','USER')"`
	IsBlocked    bool      `gorm:"column:is_blocked;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (UserAccount) TableName() string {
	return "user_accounts"
}

type Person struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserAccountID *uint64   `gorm:"column:user_account_id;uniqueIndex"`
	FirstName     string    `gorm:"column:first_name;type:varchar(128);not null"`
	LastName      string    `gorm:"column:last_name;type:varchar(128);not null"`
	Phone         string    `gorm:"column:phone;type:varchar(32)"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`

	UserAccount *UserAccount `gorm:"foreignKey:UserAccountID"`
}

func (Person) TableName() string {
	return "persons"
}

type Location struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:varchar(255);not null"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (Location) TableName() string {
	return "locations"
}

type Equipment struct {
	ID                       uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name                     string     `gorm:"column:name;type:varchar(255);not null"`
	InventoryCode            string     `gorm:"column:inventory_code;type:varchar(64);index"`
	LocationID               *uint64    `gorm:"column:location_id;index"`
	Status                   string     `gorm:"column:status;type:varchar(24);not null;check:chk_equipment_status,status IN ('IN_SERVICE','OUT_OF_SERVICE','UNDER_MAINTENANCE')"`
	NextScheduledMaintenance *time.Time `gorm:"column:next_scheduled_maintenance"`
	CreatedAt                time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt                time.Time  `gorm:"column:updated_at;not null"`
}

func (Equipment) TableName() string {
	return "equipment"
}

type Notification struct {
	ID                 uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	RecipientAccountID uint64     `gorm:"column:recipient_account_id;not null;index"`
	InterventionID     *uint64    `gorm:"column:intervention_id;index"`
	Kind               string     `gorm:"column:kind;type:varchar(32);not null"`
	Message            string     `gorm:"column:message;type:text;not null"`
	EmailStatus        string     `gorm:"column:email_status;type:varchar(16);not null"`
	ReadAt             *time.Time `gorm:"column:read_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null;index"`
}

func (Notification) TableName() string {
	return "notifications"
}

// CacheEntry backs the database cache adapter.
type CacheEntry struct {
	Key       string     `gorm:"column:key;type:varchar(255);primaryKey"`
	Value     string     `gorm:"column:value;type:text;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&UserAccount{},
		&Person{},
		&Location{},
		&Equipment{},
		&Intervention{},
		&InterventionAssignment{},
		&Pause{},
		&InterventionHistory{},
		&Notification{},
		&CacheEntry{},
	}
}
