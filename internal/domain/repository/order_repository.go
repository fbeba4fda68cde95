package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/pkg/pagination"
)

// OrderRepository defines the interface for order data operations.
// Orders are loaded with items and extras in position order.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByCode(ctx context.Context, code string) (*entity.Order, error)
	// Update rewrites the order, its items and extras if order.Version is
	// still current, then bumps Version. A stale version yields
	// apperror.ErrStaleOrder.
	Update(ctx context.Context, order *entity.Order) error
	List(ctx context.Context, params *OrderFilterParams) ([]entity.Order, int64, error)
	ListWithCursor(ctx context.Context, params *OrderCursorFilterParams) ([]entity.Order, error)
	ExistsForMachine(ctx context.Context, machineID uuid.UUID) (bool, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// OrderFilter holds the predicates shared by page and cursor listing
type OrderFilter struct {
	Search     string
	Status     *enum.OrderStatus
	CustomerID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	OrderFilter
	Pagination *pagination.PaginationParams
	SortBy     string
	SortOrder  string
}

// OrderCursorFilterParams contains cursor-based filtering for order queries
type OrderCursorFilterParams struct {
	OrderFilter
	Cursor *pagination.CursorParams
}
