package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
)

type idempotencyRepository struct {
	store *Store
}

// NewIdempotencyRepository creates an idempotency repository over store
func NewIdempotencyRepository(store *Store) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{store: store}
}

func idempotencyKey(key, userID string) string {
	return userID + "\x00" + key
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key, userID string) (*entity.IdempotencyKey, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	ikey, ok := r.store.idempotency[idempotencyKey(key, userID)]
	if !ok || ikey.IsExpired() {
		return nil, nil
	}
	return &ikey, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	k := idempotencyKey(ikey.Key, ikey.UserID)
	if existing, ok := r.store.idempotency[k]; ok && !existing.IsExpired() {
		return apperror.NewConflictError("key", "key already exists")
	}
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	ikey.CreatedAt = time.Now()
	r.store.idempotency[k] = *ikey
	return nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key, userID string, code int, body string) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	k := idempotencyKey(key, userID)
	ikey, ok := r.store.idempotency[k]
	if !ok {
		return nil
	}
	ikey.ResponseCode = code
	ikey.ResponseBody = body
	r.store.idempotency[k] = ikey
	return nil
}

func (r *idempotencyRepository) Delete(ctx context.Context, key, userID string) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	delete(r.store.idempotency, idempotencyKey(key, userID))
	return nil
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	var n int64
	for k, ikey := range r.store.idempotency {
		if ikey.IsExpired() {
			delete(r.store.idempotency, k)
			n++
		}
	}
	return n, nil
}
