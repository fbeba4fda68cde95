package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Extras", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	numberLines(order)
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		return TranslateError(tx.Create(order).Error)
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := conn(ctx, r.db).Scopes(preloadLines).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*entity.Order, error) {
	var order entity.Order
	err := conn(ctx, r.db).Scopes(preloadLines).First(&order, "order_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

// Update writes the header guarded by the version column, then replaces
// the item and extra rows. Item IDs are preserved so returns stay addressable.
func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	numberLines(order)
	current := order.Version

	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		order.Version = current + 1
		result := tx.Model(order).
			Where("version = ?", current).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(order)
		if result.Error != nil {
			return TranslateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.ErrStaleOrder
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&entity.OrderItem{}).Error; err != nil {
			return err
		}
		if len(order.Items) > 0 {
			if err := tx.Create(&order.Items).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&entity.OrderExtra{}).Error; err != nil {
			return err
		}
		if len(order.Extras) > 0 {
			if err := tx.Create(&order.Extras).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		order.Version = current
	}
	return err
}

func numberLines(order *entity.Order) {
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	for i := range order.Extras {
		order.Extras[i].OrderID = order.ID
		order.Extras[i].Position = i
	}
}

func orderFilterScope(f domainRepo.OrderFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(SearchScope(f.Search, "order_code", "customer_name", "customer_phone"))
		if f.Status != nil {
			db = db.Where("order_status = ?", *f.Status)
		}
		if f.CustomerID != nil {
			db = db.Where("customer_id = ?", *f.CustomerID)
		}
		if f.StartDate != nil {
			db = db.Where("created_at >= ?", *f.StartDate)
		}
		if f.EndDate != nil {
			db = db.Where("created_at <= ?", *f.EndDate)
		}
		return db
	}
}

func (r *orderRepository) List(ctx context.Context, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := conn(ctx, r.db).Model(&entity.Order{}).Scopes(orderFilterScope(params.OrderFilter))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.
		Scopes(preloadLines, SortScope(params.SortBy, params.SortOrder, "created_at", "created_at", "final_total", "order_code", "customer_name")).
		Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Find(&orders).Error

	return orders, total, err
}

// ListWithCursor pages newest-first on (created_at, id)
func (r *orderRepository) ListWithCursor(ctx context.Context, params *domainRepo.OrderCursorFilterParams) ([]entity.Order, error) {
	var orders []entity.Order

	params.Cursor.Validate()
	query := conn(ctx, r.db).Model(&entity.Order{}).Scopes(orderFilterScope(params.OrderFilter))

	cursor, err := params.Cursor.DecodeCursor()
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	order := "created_at DESC, id DESC"
	if cursor != nil {
		if params.Cursor.Direction == pagination.CursorDirectionPrev {
			query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
			order = "created_at ASC, id ASC"
		} else {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	err = query.Scopes(preloadLines).
		Limit(params.Cursor.Limit + 1).
		Order(order).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	if params.Cursor.Direction == pagination.CursorDirectionPrev {
		for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
			orders[i], orders[j] = orders[j], orders[i]
		}
	}
	return orders, nil
}

func (r *orderRepository) ExistsForMachine(ctx context.Context, machineID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.OrderItem{}).
		Where("machine_id = ?", machineID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Order{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}
