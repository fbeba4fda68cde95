package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
)

type machineRepository struct {
	store *Store
}

// NewMachineRepository creates a machine repository over store
func NewMachineRepository(store *Store) domainRepo.MachineRepository {
	return &machineRepository{store: store}
}

var machineSorts = map[string]func(a, b entity.Machine) bool{
	"code":       func(a, b entity.Machine) bool { return a.Code < b.Code },
	"name":       func(a, b entity.Machine) bool { return a.Name < b.Name },
	"price":      func(a, b entity.Machine) bool { return a.Price.LessThan(b.Price) },
	"quantity":   func(a, b entity.Machine) bool { return a.Quantity < b.Quantity },
	"created_at": func(a, b entity.Machine) bool { return a.CreatedAt.Before(b.CreatedAt) },
}

func (r *machineRepository) codeTaken(code string, except uuid.UUID) bool {
	for id, m := range r.store.machines {
		if id != except && m.Code == code {
			return true
		}
	}
	return false
}

func (r *machineRepository) Create(ctx context.Context, machine *entity.Machine) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if machine.ID == uuid.Nil {
		machine.ID = uuid.New()
	}
	machine.Code = entity.NormalizeMachineCode(machine.Code)
	if r.codeTaken(machine.Code, machine.ID) {
		return apperror.NewConflictError("code", "code already exists")
	}
	now := time.Now()
	machine.CreatedAt = now
	machine.UpdatedAt = now
	r.store.machines[machine.ID] = *machine
	return nil
}

func (r *machineRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	m, ok := r.store.machines[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *machineRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Machine, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	out := make([]entity.Machine, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.store.machines[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *machineRepository) GetByCode(ctx context.Context, code string) (*entity.Machine, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	code = entity.NormalizeMachineCode(code)
	for _, m := range r.store.machines {
		if m.Code == code {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *machineRepository) Update(ctx context.Context, machine *entity.Machine) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, ok := r.store.machines[machine.ID]; !ok {
		return apperror.NewNotFoundError("Machine")
	}
	if r.codeTaken(machine.Code, machine.ID) {
		return apperror.NewConflictError("code", "code already exists")
	}
	machine.UpdatedAt = time.Now()
	r.store.machines[machine.ID] = *machine
	return nil
}

func (r *machineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	delete(r.store.machines, id)
	return nil
}

func (r *machineRepository) List(ctx context.Context, params *domainRepo.MachineFilterParams) ([]entity.Machine, int64, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	out := make([]entity.Machine, 0)
	for _, m := range r.store.machines {
		if !matchesAny(params.Search, m.Code, m.Name, deref(m.Description)) {
			continue
		}
		if params.Category != nil && m.Category != *params.Category {
			continue
		}
		if params.LowStockThreshold != nil && m.Quantity > *params.LowStockThreshold {
			continue
		}
		out = append(out, m)
	}

	less, ok := machineSorts[params.SortBy]
	if !ok {
		less = machineSorts["created_at"]
	}
	sortItems(out, less, params.SortOrder != "asc" && params.SortOrder != "ASC")

	return page(out, params.Pagination), int64(len(out)), nil
}

func (r *machineRepository) ListLowStock(ctx context.Context, threshold int) ([]entity.Machine, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	out := make([]entity.Machine, 0)
	for _, m := range r.store.machines {
		if m.Quantity <= threshold {
			out = append(out, m)
		}
	}
	sortItems(out, func(a, b entity.Machine) bool {
		if a.Quantity != b.Quantity {
			return a.Quantity < b.Quantity
		}
		return a.Code < b.Code
	}, false)
	return out, nil
}

func (r *machineRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	var n int64
	for _, m := range r.store.machines {
		if m.Quantity <= threshold {
			n++
		}
	}
	return n, nil
}

func (r *machineRepository) DecrementStock(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	m, ok := r.store.machines[id]
	if !ok || m.Quantity < amount {
		return false, nil
	}
	m.Quantity -= amount
	m.UpdatedAt = time.Now()
	r.store.machines[id] = m
	return true, nil
}

func (r *machineRepository) IncrementStock(ctx context.Context, id uuid.UUID, amount int) (*entity.Machine, error) {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	m, ok := r.store.machines[id]
	if !ok {
		return nil, nil
	}
	m.Quantity += amount
	m.UpdatedAt = time.Now()
	r.store.machines[id] = m
	return &m, nil
}
