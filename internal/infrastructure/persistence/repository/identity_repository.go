package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/infrastructure/persistence/model"
	"esilogis/internal/ports"
)

type IdentityRepository struct {
	db *gorm.DB
}

var _ ports.IdentityRepository = (*IdentityRepository)(nil)

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) GetAccountByEmail(ctx context.Context, email string) (ports.UserAccount, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.UserAccount{}, err
	}

	var row model.UserAccount
	if err := db.Where("email = ?", normalizeEmail(email)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserAccount{}, ports.ErrAccountNotFound
		}
		return ports.UserAccount{}, errs.Wrap(err, "query user account by email")
	}
	return mapAccount(row), nil
}

func (r *IdentityRepository) CreateAccount(ctx context.Context, account ports.UserAccount, person *ports.Person) (ports.UserAccount, error) {
	var created ports.UserAccount
	err := inTx(ctx, r.db, func(_ context.Context, db *gorm.DB) error {
		var count int64
		email := normalizeEmail(account.Email)
		if err := db.Model(&model.UserAccount{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return errs.Wrap(err, "count accounts by email")
		}
		if count > 0 {
			return ports.ErrEmailTaken
		}

		row := model.UserAccount{
			Email:        email,
			PasswordHash: account.PasswordHash,
			Role:         string(account.Role),
			IsBlocked:    account.IsBlocked,
			CreatedAt:    account.CreatedAt,
		}
		if err := db.Create(&row).Error; err != nil {
			return errs.Wrap(err, "insert user account")
		}

		if person != nil {
			accountID := row.ID
			personRow := model.Person{
				UserAccountID: &accountID,
				FirstName:     person.FirstName,
				LastName:      person.LastName,
				Phone:         person.Phone,
				CreatedAt:     account.CreatedAt,
			}
			if err := db.Create(&personRow).Error; err != nil {
				return errs.Wrap(err, "insert person")
			}
		}

		created = mapAccount(row)
		return nil
	})
	if err != nil {
		return ports.UserAccount{}, err
	}
	return created, nil
}

func (r *IdentityRepository) ListActiveAdmins(ctx context.Context) ([]ports.UserAccount, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.UserAccount
	if err := db.
		Where("role = ? AND is_blocked = ?", string(domain.RoleAdmin), false).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query admin accounts")
	}

	items := make([]ports.UserAccount, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapAccount(row))
	}
	return items, nil
}

func (r *IdentityRepository) PersonForAccount(ctx context.Context, accountID uint64) (ports.Person, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Person{}, err
	}

	var row model.Person
	if err := db.Preload("UserAccount").Where("user_account_id = ?", accountID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Person{}, ports.ErrPersonNotFound
		}
		return ports.Person{}, errs.Wrap(err, "query person by account")
	}
	return mapPerson(row), nil
}

func (r *IdentityRepository) ListPersons(ctx context.Context, ids []uint64) ([]ports.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Person
	if err := db.Preload("UserAccount").Where("id IN ?", ids).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query persons")
	}

	items := make([]ports.Person, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapPerson(row))
	}
	return items, nil
}

func (r *IdentityRepository) MissingPersonIDs(ctx context.Context, ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var found []uint64
	if err := db.Model(&model.Person{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, errs.Wrap(err, "query person ids")
	}
	return missingIDs(ids, found), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
