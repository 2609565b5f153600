package ports

import (
	"context"
	"errors"
	"time"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
)

var (
	ErrAccountNotFound   = errs.Mark(errors.New("user account not found"), errs.ErrNotFound)
	ErrPersonNotFound    = errs.Mark(errors.New("person profile not found"), errs.ErrNotFound)
	ErrLocationNotFound  = errs.Mark(errors.New("location not found"), errs.ErrNotFound)
	ErrEquipmentNotFound = errs.Mark(errors.New("equipment not found"), errs.ErrNotFound)
	ErrEmailTaken        = errs.Mark(errors.New("email already registered"), errs.ErrValidation)
)

type UserAccount struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         domain.Role
	IsBlocked    bool
	CreatedAt    time.Time
}

type Person struct {
	ID            uint64
	UserAccountID *uint64
	FirstName     string
	LastName      string
	Phone         string
	// Email of the linked account, when there is one.
	Email string
}

func (p Person) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type Location struct {
	ID          uint64
	Name        string
	Description string
}

type Equipment struct {
	ID                       uint64
	Name                     string
	InventoryCode            string
	LocationID               *uint64
	Status                   domain.EquipmentStatus
	NextScheduledMaintenance *time.Time
}

// IdentityRepository resolves accounts and their person profiles.
type IdentityRepository interface {
	GetAccountByEmail(ctx context.Context, email string) (UserAccount, error)
	CreateAccount(ctx context.Context, account UserAccount, person *Person) (UserAccount, error)
	// ListActiveAdmins returns ADMIN accounts that are not blocked.
	ListActiveAdmins(ctx context.Context) ([]UserAccount, error)
	PersonForAccount(ctx context.Context, accountID uint64) (Person, error)
	ListPersons(ctx context.Context, ids []uint64) ([]Person, error)
	MissingPersonIDs(ctx context.Context, ids []uint64) ([]uint64, error)
}

// AssetRepository covers locations and equipment. Equipment status and
// maintenance dates are side effects of intervention transitions.
type AssetRepository interface {
	GetLocation(ctx context.Context, id uint64) (Location, error)
	CreateLocation(ctx context.Context, location Location) (Location, error)
	GetEquipment(ctx context.Context, id uint64) (Equipment, error)
	CreateEquipment(ctx context.Context, equipment Equipment) (Equipment, error)
	SetEquipmentStatus(ctx context.Context, id uint64, status domain.EquipmentStatus, at time.Time) error
	SetNextMaintenance(ctx context.Context, id uint64, next time.Time, at time.Time) error
}
