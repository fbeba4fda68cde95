package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type machineRepository struct {
	db *gorm.DB
}

// NewMachineRepository creates a new machine repository
func NewMachineRepository(db *gorm.DB) domainRepo.MachineRepository {
	return &machineRepository{db: db}
}

func (r *machineRepository) Create(ctx context.Context, machine *entity.Machine) error {
	return TranslateError(conn(ctx, r.db).Create(machine).Error)
}

func (r *machineRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error) {
	var machine entity.Machine
	err := conn(ctx, r.db).First(&machine, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &machine, err
}

// GetByIDs retrieves multiple machines by their IDs in a single query
func (r *machineRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Machine, error) {
	if len(ids) == 0 {
		return []entity.Machine{}, nil
	}
	var machines []entity.Machine
	err := conn(ctx, r.db).Where("id IN ?", ids).Find(&machines).Error
	return machines, err
}

func (r *machineRepository) GetByCode(ctx context.Context, code string) (*entity.Machine, error) {
	var machine entity.Machine
	err := conn(ctx, r.db).First(&machine, "code = ?", entity.NormalizeMachineCode(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &machine, err
}

func (r *machineRepository) Update(ctx context.Context, machine *entity.Machine) error {
	return TranslateError(conn(ctx, r.db).Save(machine).Error)
}

func (r *machineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Delete(&entity.Machine{}, "id = ?", id).Error
}

func (r *machineRepository) List(ctx context.Context, params *domainRepo.MachineFilterParams) ([]entity.Machine, int64, error) {
	var machines []entity.Machine
	var total int64

	query := conn(ctx, r.db).Model(&entity.Machine{}).
		Scopes(SearchScope(params.Search, "code", "name", "description"))

	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}

	if params.LowStockThreshold != nil {
		query = query.Where("quantity <= ?", *params.LowStockThreshold)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.
		Scopes(SortScope(params.SortBy, params.SortOrder, "created_at", "code", "name", "price", "quantity", "created_at")).
		Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Find(&machines).Error

	return machines, total, err
}

func (r *machineRepository) ListLowStock(ctx context.Context, threshold int) ([]entity.Machine, error) {
	var machines []entity.Machine
	err := conn(ctx, r.db).
		Where("quantity <= ?", threshold).
		Order("quantity ASC, code ASC").
		Find(&machines).Error
	return machines, err
}

func (r *machineRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Machine{}).Where("quantity <= ?", threshold).Count(&count).Error
	return count, err
}

// DecrementStock uses a conditional UPDATE so concurrent sales of the same
// machine serialize on the row lock and the loser sees zero rows affected.
func (r *machineRepository) DecrementStock(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.Machine{}).
		Where("id = ? AND quantity >= ?", id, amount).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *machineRepository) IncrementStock(ctx context.Context, id uuid.UUID, amount int) (*entity.Machine, error) {
	var machine entity.Machine
	result := conn(ctx, r.db).Model(&machine).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &machine, nil
}
