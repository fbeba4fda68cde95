package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// GetByPhone expects an already normalized phone
	GetByPhone(ctx context.Context, phone string) (*entity.Customer, error)
	// GetByNationalID expects an already upper-cased ID
	GetByNationalID(ctx context.Context, nationalID string) (*entity.Customer, error)
	// Update writes the contact columns only and refreshes the purchase
	// statistics on customer from storage
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *CustomerFilterParams) ([]entity.Customer, int64, error)
	Count(ctx context.Context) (int64, error)
	// RecordPurchase bumps order count and lifetime spend in one statement
	RecordPurchase(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error
}

// CustomerFilterParams contains filtering parameters for customer queries
type CustomerFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	SortBy     string
	SortOrder  string
}
