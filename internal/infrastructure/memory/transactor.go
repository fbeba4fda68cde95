package memory

import (
	"context"

	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
)

type transactor struct {
	store *Store
}

// NewTransactor serializes units of work on the store's write lock and
// rolls every map back to its snapshot when fn fails.
func NewTransactor(store *Store) domainRepo.Transactor {
	return &transactor{store: store}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
