package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

type customerRepository struct {
	store *Store
}

// NewCustomerRepository creates a customer repository over store
func NewCustomerRepository(store *Store) domainRepo.CustomerRepository {
	return &customerRepository{store: store}
}

var customerSorts = map[string]func(a, b entity.Customer) bool{
	"name":         func(a, b entity.Customer) bool { return a.Name < b.Name },
	"total_spent":  func(a, b entity.Customer) bool { return a.TotalSpent.LessThan(b.TotalSpent) },
	"total_orders": func(a, b entity.Customer) bool { return a.TotalOrders < b.TotalOrders },
	"created_at":   func(a, b entity.Customer) bool { return a.CreatedAt.Before(b.CreatedAt) },
}

// checkUnique enforces the phone and national_id unique indexes
func (r *customerRepository) checkUnique(c *entity.Customer) error {
	for id, other := range r.store.customers {
		if id == c.ID {
			continue
		}
		if other.Phone == c.Phone {
			return apperror.NewConflictError("phone", "phone already exists")
		}
		if c.NationalID != nil && other.NationalID != nil && *other.NationalID == *c.NationalID {
			return apperror.NewConflictError("national_id", "national_id already exists")
		}
	}
	return nil
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if err := r.checkUnique(customer); err != nil {
		return err
	}
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	r.store.customers[customer.ID] = *customer
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	c, ok := r.store.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *customerRepository) find(ctx context.Context, match func(c entity.Customer) bool) *entity.Customer {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	for _, c := range r.store.customers {
		if match(c) {
			cp := c
			return &cp
		}
	}
	return nil
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	return r.find(ctx, func(c entity.Customer) bool { return c.Phone == phone }), nil
}

func (r *customerRepository) GetByNationalID(ctx context.Context, nationalID string) (*entity.Customer, error) {
	return r.find(ctx, func(c entity.Customer) bool {
		return c.NationalID != nil && *c.NationalID == nationalID
	}), nil
}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	stored, ok := r.store.customers[customer.ID]
	if !ok {
		return apperror.NewNotFoundError("Customer")
	}
	if err := r.checkUnique(customer); err != nil {
		return err
	}
	stored.Name = customer.Name
	stored.Phone = customer.Phone
	stored.NationalID = customer.NationalID
	stored.Email = customer.Email
	stored.Address = customer.Address
	stored.UpdatedAt = time.Now()
	r.store.customers[customer.ID] = stored

	customer.TotalOrders = stored.TotalOrders
	customer.TotalSpent = stored.TotalSpent
	customer.LastOrderDate = stored.LastOrderDate
	customer.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	delete(r.store.customers, id)
	return nil
}

func (r *customerRepository) List(ctx context.Context, params *domainRepo.CustomerFilterParams) ([]entity.Customer, int64, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	out := make([]entity.Customer, 0)
	for _, c := range r.store.customers {
		if matchesAny(params.Search, c.Name, c.Phone, deref(c.Email), deref(c.NationalID)) {
			out = append(out, c)
		}
	}

	less, ok := customerSorts[params.SortBy]
	if !ok {
		less = customerSorts["created_at"]
	}
	sortItems(out, less, params.SortOrder != "asc" && params.SortOrder != "ASC")

	return page(out, params.Pagination), int64(len(out)), nil
}

func (r *customerRepository) Count(ctx context.Context) (int64, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	return int64(len(r.store.customers)), nil
}

func (r *customerRepository) RecordPurchase(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	c, ok := r.store.customers[id]
	if !ok {
		return apperror.NewNotFoundError("Customer")
	}
	c.TotalOrders++
	c.TotalSpent = c.TotalSpent.Add(amount)
	c.LastOrderDate = &at
	c.UpdatedAt = at
	r.store.customers[id] = c
	return nil
}
