package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/domain/pricing"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
	"github.com/machinetrade/pos-api/pkg/validation"
	"github.com/shopspring/decimal"
)

// OrderService handles order queries, edits and cancellation
type OrderService struct {
	orderRepo   repository.OrderRepository
	machineRepo repository.MachineRepository
	reports     ReportInvalidator
	settings    SaleSettings
}

// NewOrderService creates a new order service. reports may be nil.
// settings supply VAT and warranty for lines added by an edit.
func NewOrderService(
	orderRepo repository.OrderRepository,
	machineRepo repository.MachineRepository,
	reports ReportInvalidator,
	settings SaleSettings,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		machineRepo: machineRepo,
		reports:     reports,
		settings:    settings,
	}
}

// UpdateOrderItemInput is one line of a replacement item list.
// ID keeps an existing line (and its returned quantity); nil adds a new one.
type UpdateOrderItemInput struct {
	ID             *uuid.UUID
	MachineID      uuid.UUID
	Quantity       int
	UnitPrice      *decimal.Decimal
	VATPercentage  *decimal.Decimal
	WarrantyMonths *int
}

// UpdateOrderInput is a partial order update. Nil fields are left alone;
// a non-nil Items or Extras replaces the whole list.
type UpdateOrderInput struct {
	CustomerName       *string
	CustomerPhone      *string
	CustomerEmail      *string
	CustomerNationalID *string
	CustomerAddress    *string
	Items              []UpdateOrderItemInput
	Extras             []SaleExtraInput
	DiscountPercentage *decimal.Decimal
	OrderStatus        *enum.OrderStatus
	PaymentStatus      *enum.PaymentStatus
	Notes              *string
	ProcessedBy        *string
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// GetOrderByCode retrieves an order by its human-readable code
func (s *OrderService) GetOrderByCode(ctx context.Context, code string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrders lists orders with filtering
func (s *OrderService) ListOrders(ctx context.Context, params *repository.OrderFilterParams) (*pagination.PaginatedResult[entity.Order], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(orders, pag), nil
}

// ListOrdersWithCursor lists orders with cursor-based pagination
func (s *OrderService) ListOrdersWithCursor(ctx context.Context, params *repository.OrderCursorFilterParams) (*pagination.CursorPaginatedResult[entity.Order], error) {
	if params.Cursor == nil {
		params.Cursor = &pagination.CursorParams{}
	}
	orders, err := s.orderRepo.ListWithCursor(ctx, params)
	if err != nil {
		return nil, err
	}

	return pagination.NewCursorPage(orders, params.Cursor.Limit, params.Cursor.Cursor != "",
		func(o entity.Order) (string, time.Time) { return o.ID.String(), o.CreatedAt },
	), nil
}

// UpdateOrder applies a partial edit and recomputes the totals.
// Editing never touches stock; returns and sales do that.
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, input *UpdateOrderInput) (*entity.Order, error) {
	if fieldErrs := checkOrderUpdate(input); len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError(fieldErrs)
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	if input.CustomerName != nil {
		order.CustomerName = strings.TrimSpace(*input.CustomerName)
	}
	if input.CustomerPhone != nil {
		order.CustomerPhone = validation.NormalizePhone(*input.CustomerPhone)
	}
	if input.CustomerEmail != nil {
		order.CustomerEmail = trimmed(input.CustomerEmail)
	}
	if input.CustomerNationalID != nil {
		order.CustomerNationalID = normalizedNationalID(input.CustomerNationalID)
	}
	if input.CustomerAddress != nil {
		order.CustomerAddress = trimmed(input.CustomerAddress)
	}

	if input.Items != nil {
		items, err := s.replaceItems(ctx, order, input.Items)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	if input.Extras != nil {
		extras := make([]entity.OrderExtra, 0, len(input.Extras))
		for _, e := range input.Extras {
			extras = append(extras, entity.OrderExtra{
				Description: strings.TrimSpace(e.Description),
				Amount:      pricing.Round2(e.Amount),
			})
		}
		order.Extras = extras
	}

	if input.DiscountPercentage != nil {
		order.DiscountPercentage = *input.DiscountPercentage
	}
	if input.OrderStatus != nil {
		order.OrderStatus = *input.OrderStatus
	}
	if input.PaymentStatus != nil {
		order.PaymentStatus = *input.PaymentStatus
	}
	if input.Notes != nil {
		order.Notes = trimmed(input.Notes)
	}
	if input.ProcessedBy != nil {
		order.ProcessedBy = strings.TrimSpace(*input.ProcessedBy)
	}

	pricing.RecomputeTotals(order)
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return order, nil
}

// replaceItems builds the new line list. Lines that name an existing ID keep
// their machine snapshot and returned quantity, clamped to the new quantity.
func (s *OrderService) replaceItems(ctx context.Context, order *entity.Order, lines []UpdateOrderItemInput) ([]entity.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MachineID)
	}
	machines, err := s.machineRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	machineMap := make(map[uuid.UUID]*entity.Machine, len(machines))
	for i := range machines {
		machineMap[machines[i].ID] = &machines[i]
	}

	existing := make(map[uuid.UUID]entity.OrderItem, len(order.Items))
	for _, item := range order.Items {
		existing[item.ID] = item
	}

	seen := make(map[uuid.UUID]bool, len(lines))
	items := make([]entity.OrderItem, 0, len(lines))
	for i, line := range lines {
		machine, ok := machineMap[line.MachineID]
		if !ok {
			return nil, apperror.NewFieldValidationError(fmt.Sprintf("items[%d].machine_id", i),
				fmt.Sprintf("machine not found: %s", line.MachineID))
		}

		var item, prev entity.OrderItem
		var kept bool
		if line.ID != nil {
			prev, kept = existing[*line.ID]
			if !kept {
				return nil, apperror.NewFieldValidationError(fmt.Sprintf("items[%d].id", i),
					fmt.Sprintf("order item not found: %s", *line.ID))
			}
			if seen[prev.ID] {
				return nil, apperror.NewFieldValidationError(fmt.Sprintf("items[%d].id", i), "order item listed twice")
			}
			seen[prev.ID] = true
		}

		if kept && prev.MachineID == machine.ID {
			item = prev
		} else {
			item = entity.OrderItem{
				MachineID:       machine.ID,
				MachineCode:     machine.Code,
				MachineName:     machine.Name,
				MachineCategory: machine.Category,
				UnitPrice:       machine.Price,
				VATPercentage:   s.settings.DefaultVATPercentage,
				WarrantyMonths:  s.settings.DefaultWarrantyMonths,
			}
			if kept {
				item.ID = prev.ID
				item.VATPercentage = prev.VATPercentage
				item.WarrantyMonths = prev.WarrantyMonths
				item.ReturnedQuantity = prev.ReturnedQuantity
				item.ReturnedAt = prev.ReturnedAt
			}
		}

		item.Quantity = line.Quantity
		if line.UnitPrice != nil {
			item.UnitPrice = pricing.Round2(*line.UnitPrice)
		}
		if line.VATPercentage != nil {
			item.VATPercentage = *line.VATPercentage
		}
		if line.WarrantyMonths != nil {
			item.WarrantyMonths = *line.WarrantyMonths
		}

		if item.ReturnedQuantity > item.Quantity {
			item.ReturnedQuantity = item.Quantity
		}
		item.Returned = item.ReturnedQuantity > 0 && item.ReturnedQuantity >= item.Quantity
		if item.ReturnedQuantity == 0 {
			item.ReturnedAt = nil
		}
		items = append(items, item)
	}
	return items, nil
}

// CancelOrder marks an order cancelled. Stock is not restored; units come
// back through returns.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	if order.OrderStatus == enum.OrderStatusCancelled {
		return nil, apperror.NewFieldValidationError("order_status", "order is already cancelled")
	}

	order.OrderStatus = enum.OrderStatusCancelled
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return order, nil
}

func (s *OrderService) invalidate(ctx context.Context) {
	if s.reports != nil {
		s.reports.InvalidateReports(ctx)
	}
}

func checkOrderUpdate(input *UpdateOrderInput) []apperror.FieldError {
	var errs []apperror.FieldError
	add := func(field, msg string) {
		errs = append(errs, apperror.FieldError{Field: field, Message: msg})
	}

	if input.CustomerName != nil && strings.TrimSpace(*input.CustomerName) == "" {
		add("customer_name", "must not be empty")
	}
	if input.CustomerPhone != nil && !validation.IsValidPhone(*input.CustomerPhone) {
		add("customer_phone", "must be a valid phone number")
	}
	if e := trimmed(input.CustomerEmail); e != nil && !validation.IsValidEmail(*e) {
		add("customer_email", "must be a valid email address")
	}
	if n := trimmed(input.CustomerNationalID); n != nil && !validation.IsValidNationalID(*n) {
		add("customer_national_id", "must be a valid national ID (9 digits + V/X or 12 digits)")
	}

	if input.Items != nil && len(input.Items) == 0 {
		add("items", "at least one item is required")
	}
	for i, line := range input.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if line.MachineID == uuid.Nil {
			add(prefix+"machine_id", "is required")
		}
		if line.Quantity < 1 {
			add(prefix+"quantity", "must be at least 1")
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			add(prefix+"unit_price", "must not be negative")
		}
		if line.VATPercentage != nil && !pricing.ValidPercentage(*line.VATPercentage) {
			add(prefix+"vat_percentage", "must be between 0 and 100")
		}
		if line.WarrantyMonths != nil && *line.WarrantyMonths < 0 {
			add(prefix+"warranty_months", "must not be negative")
		}
	}
	errs = append(errs, checkExtras(input.Extras)...)

	if input.DiscountPercentage != nil && !pricing.ValidPercentage(*input.DiscountPercentage) {
		add("discount_percentage", "must be between 0 and 100")
	}
	if input.OrderStatus != nil && !input.OrderStatus.Valid() {
		add("order_status", "is invalid")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.Valid() {
		add("payment_status", "is invalid")
	}
	return errs
}
