package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/pkg/pagination"
)

// MachineRepository defines the interface for inventory data operations.
// Lookups return (nil, nil) when the record does not exist.
type MachineRepository interface {
	Create(ctx context.Context, machine *entity.Machine) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error)
	// GetByIDs retrieves multiple machines in a single query
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Machine, error)
	GetByCode(ctx context.Context, code string) (*entity.Machine, error)
	Update(ctx context.Context, machine *entity.Machine) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *MachineFilterParams) ([]entity.Machine, int64, error)
	ListLowStock(ctx context.Context, threshold int) ([]entity.Machine, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
	// DecrementStock subtracts amount only if on-hand covers it.
	// Returns (false, nil) when stock is insufficient or the machine is gone.
	DecrementStock(ctx context.Context, id uuid.UUID, amount int) (bool, error)
	// IncrementStock adds amount and returns the updated machine, nil if absent.
	IncrementStock(ctx context.Context, id uuid.UUID, amount int) (*entity.Machine, error)
}

// MachineFilterParams contains filtering parameters for machine queries
type MachineFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Category   *enum.MachineCategory
	// LowStockThreshold, when set, keeps only machines at or below it
	LowStockThreshold *int
	SortBy            string
	SortOrder         string
}
