package repository

import (
	"context"

	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a transactor backed by database transactions.
// Nested calls reuse the outer transaction.
func NewTransactor(db *gorm.DB) domainRepo.Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}

// NewRepositories returns every gorm-backed repository sharing db
func NewRepositories(db *gorm.DB) domainRepo.Repositories {
	return domainRepo.Repositories{
		Transactor:  NewTransactor(db),
		Machines:    NewMachineRepository(db),
		Customers:   NewCustomerRepository(db),
		Orders:      NewOrderRepository(db),
		Idempotency: NewIdempotencyRepository(db),
		Reports:     NewReportRepository(db),
	}
}
