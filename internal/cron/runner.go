package cron

import (
	"context"

	"gorm.io/gorm"
)

// txRunner runs a function inside a single database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormTxRunner adapts a gorm connection to the txRunner contract for jobs
// whose writes need no deadlock retry.
type GormTxRunner struct {
	DB *gorm.DB
}

func (r GormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}
