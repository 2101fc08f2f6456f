package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction executes fn within a database transaction, committed when
// fn returns nil and rolled back when it returns an error or panics. The
// ingest service uses it to close a superseded session and open its
// replacement atomically.
func (db *DB) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return fmt.Errorf("transaction error: %w", err)
		}
		return nil
	})
}
