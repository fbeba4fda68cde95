package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) domainRepo.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return TranslateError(conn(ctx, r.db).Create(customer).Error)
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	return r.first(ctx, "phone = ?", phone)
}

func (r *customerRepository) GetByNationalID(ctx context.Context, nationalID string) (*entity.Customer, error) {
	return r.first(ctx, "national_id = ?", nationalID)
}

func (r *customerRepository) first(ctx context.Context, query string, arg interface{}) (*entity.Customer, error) {
	var customer entity.Customer
	err := conn(ctx, r.db).First(&customer, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

// contactColumns are the only columns Update may write; statistics belong to RecordPurchase
var contactColumns = []string{"name", "phone", "national_id", "email", "address", "updated_at"}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	db := conn(ctx, r.db)
	err := db.Model(customer).Select(contactColumns).Updates(customer).Error
	if err != nil {
		return TranslateError(err)
	}
	return db.Select("total_orders", "total_spent", "last_order_date").
		First(customer, "id = ?", customer.ID).Error
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Delete(&entity.Customer{}, "id = ?", id).Error
}

func (r *customerRepository) List(ctx context.Context, params *domainRepo.CustomerFilterParams) ([]entity.Customer, int64, error) {
	var customers []entity.Customer
	var total int64

	query := conn(ctx, r.db).Model(&entity.Customer{}).
		Scopes(SearchScope(params.Search, "name", "phone", "email", "national_id"))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.
		Scopes(SortScope(params.SortBy, params.SortOrder, "created_at", "name", "total_spent", "total_orders", "last_order_date", "created_at")).
		Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Find(&customers).Error

	return customers, total, err
}

func (r *customerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Customer{}).Count(&count).Error
	return count, err
}

func (r *customerRepository) RecordPurchase(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	result := conn(ctx, r.db).Model(&entity.Customer{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"total_orders":    gorm.Expr("total_orders + 1"),
			"total_spent":     gorm.Expr("total_spent + ?", amount),
			"last_order_date": at,
			"updated_at":      at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
