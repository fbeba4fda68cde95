package repository

import "context"

// Transactor runs fn as one atomic unit of work. Repository calls made with
// the ctx passed to fn join the transaction; any error returned by fn
// discards every write made inside it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories bundles one storage backend's implementations
type Repositories struct {
	Transactor  Transactor
	Machines    MachineRepository
	Customers   CustomerRepository
	Orders      OrderRepository
	Idempotency IdempotencyRepository
	Reports     ReportRepository
}
