package repository

import (
	"context"

	"github.com/machinetrade/pos-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an unexpired key for the user, nil if none
	GetByKey(ctx context.Context, key, userID string) (*entity.IdempotencyKey, error)
	// Create reserves a key. An expired row with the same key is replaced;
	// a live one yields a Conflict.
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Complete stores the response of a reserved key
	Complete(ctx context.Context, key, userID string, code int, body string) error
	// Delete releases a key so the request can be retried
	Delete(ctx context.Context, key, userID string) error
	// DeleteExpired removes expired keys and reports how many were dropped
	DeleteExpired(ctx context.Context) (int64, error)
}
