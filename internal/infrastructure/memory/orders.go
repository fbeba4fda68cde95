package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
)

type orderRepository struct {
	store *Store
}

// NewOrderRepository creates an order repository over store
func NewOrderRepository(store *Store) domainRepo.OrderRepository {
	return &orderRepository{store: store}
}

var orderSorts = map[string]func(a, b entity.Order) bool{
	"order_code":    func(a, b entity.Order) bool { return a.OrderCode < b.OrderCode },
	"customer_name": func(a, b entity.Order) bool { return a.CustomerName < b.CustomerName },
	"final_total":   func(a, b entity.Order) bool { return a.FinalTotal.LessThan(b.FinalTotal) },
	"created_at":    newerLast,
}

func newerLast(a, b entity.Order) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID.String() < b.ID.String()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func prepareLines(order *entity.Order) {
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	for i := range order.Extras {
		if order.Extras[i].ID == uuid.Nil {
			order.Extras[i].ID = uuid.New()
		}
		order.Extras[i].OrderID = order.ID
		order.Extras[i].Position = i
	}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for _, o := range r.store.orders {
		if o.OrderCode == order.OrderCode {
			return apperror.NewConflictError("order_code", "order_code already exists")
		}
	}
	prepareLines(order)
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.Version = 1
	r.store.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	o, ok := r.store.orders[id]
	if !ok {
		return nil, nil
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*entity.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	for _, o := range r.store.orders {
		if o.OrderCode == code {
			cp := cloneOrder(o)
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	stored, ok := r.store.orders[order.ID]
	if !ok {
		return apperror.NewNotFoundError("Order")
	}
	if stored.Version != order.Version {
		return apperror.ErrStaleOrder
	}
	prepareLines(order)
	order.Version++
	order.CreatedAt = stored.CreatedAt
	order.UpdatedAt = time.Now()
	r.store.orders[order.ID] = cloneOrder(*order)
	return nil
}

func matchesOrder(o entity.Order, f domainRepo.OrderFilter) bool {
	if !matchesAny(f.Search, o.OrderCode, o.CustomerName, o.CustomerPhone) {
		return false
	}
	if f.Status != nil && o.OrderStatus != *f.Status {
		return false
	}
	if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
		return false
	}
	if f.StartDate != nil && o.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && o.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

func (r *orderRepository) filtered(f domainRepo.OrderFilter) []entity.Order {
	out := make([]entity.Order, 0)
	for _, o := range r.store.orders {
		if matchesOrder(o, f) {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

func (r *orderRepository) List(ctx context.Context, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	out := r.filtered(params.OrderFilter)
	less, ok := orderSorts[params.SortBy]
	if !ok {
		less = newerLast
	}
	sortItems(out, less, params.SortOrder != "asc" && params.SortOrder != "ASC")

	return page(out, params.Pagination), int64(len(out)), nil
}

func (r *orderRepository) ListWithCursor(ctx context.Context, params *domainRepo.OrderCursorFilterParams) ([]entity.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	params.Cursor.Validate()
	cursor, err := params.Cursor.DecodeCursor()
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	all := r.filtered(params.OrderFilter)
	sortItems(all, newerLast, true)

	out := make([]entity.Order, 0, params.Cursor.Limit+1)
	if cursor == nil {
		out = append(out, all...)
	} else {
		pivot := entity.Order{CreatedAt: cursor.CreatedAt}
		pivot.ID, _ = uuid.Parse(cursor.ID)
		for _, o := range all {
			if params.Cursor.Direction == pagination.CursorDirectionPrev {
				if newerLast(pivot, o) {
					out = append(out, o)
				}
			} else if newerLast(o, pivot) {
				out = append(out, o)
			}
		}
		if params.Cursor.Direction == pagination.CursorDirectionPrev && len(out) > params.Cursor.Limit+1 {
			out = out[len(out)-params.Cursor.Limit-1:]
		}
	}
	if len(out) > params.Cursor.Limit+1 {
		out = out[:params.Cursor.Limit+1]
	}
	return out, nil
}

func (r *orderRepository) ExistsForMachine(ctx context.Context, machineID uuid.UUID) (bool, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	for _, o := range r.store.orders {
		for _, item := range o.Items {
			if item.MachineID == machineID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *orderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	var n int64
	for _, o := range r.store.orders {
		if o.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}
