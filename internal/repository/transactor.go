package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Transactor runs fn inside one database transaction. Repositories that take a
// tx argument must be handed the *gorm.DB passed to fn.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTransactor returns a Transactor that bounds row-lock waits to lockTimeout.
// A zero lockTimeout waits indefinitely.
func NewTransactor(db *gorm.DB, lockTimeout time.Duration) Transactor {
	return &gormTransactor{db: db, lockTimeout: lockTimeout}
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.lockTimeout > 0 {
			if err := tx.Exec(lockTimeoutStmt(t.lockTimeout)).Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

// lockTimeoutStmt rounds d up to whole milliseconds. PostgreSQL reads
// '0ms' as no timeout at all.
func lockTimeoutStmt(d time.Duration) string {
	ms := int64((d + time.Millisecond - 1) / time.Millisecond)
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)
}
