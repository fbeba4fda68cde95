package repository

import (
	"context"
	"errors"
	"time"

	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key, userID string) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := conn(ctx, r.db).
		Where("key = ? AND user_id = ? AND expires_at > ?", key, userID, time.Now()).
		First(&ikey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ikey, err
}

func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("key = ? AND user_id = ? AND expires_at <= ?", ikey.Key, ikey.UserID, time.Now()).
			Delete(&entity.IdempotencyKey{}).Error; err != nil {
			return err
		}
		return TranslateError(tx.Create(ikey).Error)
	})
}

func (r *idempotencyRepository) Complete(ctx context.Context, key, userID string, code int, body string) error {
	return conn(ctx, r.db).Model(&entity.IdempotencyKey{}).
		Where("key = ? AND user_id = ?", key, userID).
		Updates(map[string]interface{}{"response_code": code, "response_body": body}).Error
}

func (r *idempotencyRepository) Delete(ctx context.Context, key, userID string) error {
	return conn(ctx, r.db).
		Where("key = ? AND user_id = ?", key, userID).
		Delete(&entity.IdempotencyKey{}).Error
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := conn(ctx, r.db).
		Where("expires_at < ?", time.Now()).
		Delete(&entity.IdempotencyKey{})
	return result.RowsAffected, result.Error
}
