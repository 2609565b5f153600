package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"esilogis/internal/ports"
)

// dbFromContext returns the transaction carried by ctx, or the root handle
// when the call runs outside a unit of work.
func dbFromContext(ctx context.Context, root *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return root.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// inTx runs fn inside the caller's transaction, or a new one when ctx carries
// none. Multi-row writes use it so they stay atomic when called standalone.
func inTx(ctx context.Context, root *gorm.DB, fn func(ctx context.Context, db *gorm.DB) error) error {
	if ports.TxFromContext(ctx) != nil {
		db, err := dbFromContext(ctx, root)
		if err != nil {
			return err
		}
		return fn(ctx, db)
	}

	return root.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx), tx)
	})
}

func missingIDs(want []uint64, found []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		seen[id] = struct{}{}
	}

	var missing []uint64
	for _, id := range want {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
			seen[id] = struct{}{}
		}
	}
	return missing
}
