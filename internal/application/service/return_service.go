package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/domain/pricing"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
)

// ReturnService takes sold units back into stock
type ReturnService struct {
	machineRepo repository.MachineRepository
	orderRepo   repository.OrderRepository
	reports     ReportInvalidator
	now         func() time.Time
}

// NewReturnService creates a new return service. reports may be nil.
func NewReturnService(
	machineRepo repository.MachineRepository,
	orderRepo repository.OrderRepository,
	reports ReportInvalidator,
) *ReturnService {
	return &ReturnService{
		machineRepo: machineRepo,
		orderRepo:   orderRepo,
		reports:     reports,
		now:         time.Now,
	}
}

// ReturnedItem summarizes the line a return was applied to
type ReturnedItem struct {
	ItemID            uuid.UUID `json:"item_id"`
	MachineID         uuid.UUID `json:"machine_id"`
	MachineCode       string    `json:"machine_code"`
	MachineName       string    `json:"machine_name"`
	ReturnedQuantity  int       `json:"returned_quantity"`
	TotalReturned     int       `json:"total_returned"`
	RemainingQuantity int       `json:"remaining_quantity"`
	Returned          bool      `json:"returned"`
}

// ReturnResult is returned by ReturnItem
type ReturnResult struct {
	Order        *entity.Order `json:"order"`
	ReturnedItem ReturnedItem  `json:"returned_item"`
	UpdatedStock int           `json:"updated_stock"`
}

// returnState is the part of a line and its order a return mutates
type returnState struct {
	returnedQuantity int
	returned         bool
	returnedAt       *time.Time
	orderStatus      enum.OrderStatus
}

// ReturnItem records the return of quantity units of one order line and
// restocks the machine. The order is written first; if the restock cannot
// happen the line is put back exactly as it was.
// itemRef may be the line's own ID or the ID of the machine it sold.
func (s *ReturnService) ReturnItem(ctx context.Context, orderID, itemRef uuid.UUID, quantity int) (*ReturnResult, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, abortUnlessTyped(err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	item := order.FindItem(itemRef)
	if item == nil {
		return nil, apperror.NewNotFoundByIDError("order item", itemRef.String())
	}
	if quantity < 1 {
		return nil, apperror.NewFieldValidationError("quantity", "must be at least 1")
	}
	available := item.RemainingQuantity()
	if quantity > available {
		return nil, apperror.NewFieldValidationError("quantity",
			fmt.Sprintf("cannot return %d units, only %d available to return", quantity, available))
	}

	itemID := item.ID
	prior := returnState{
		returnedQuantity: item.ReturnedQuantity,
		returned:         item.Returned,
		returnedAt:       item.ReturnedAt,
		orderStatus:      order.OrderStatus,
	}

	now := s.now()
	item.ReturnedQuantity += quantity
	if item.ReturnedQuantity >= item.Quantity {
		item.Returned = true
	}
	if item.ReturnedAt == nil {
		item.ReturnedAt = &now
	}
	if order.OrderStatus != enum.OrderStatusCancelled && order.HasFullyReturnedItem() {
		order.OrderStatus = enum.OrderStatusReturned
	}
	pricing.RecomputeTotals(order)

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, abortUnlessTyped(err)
	}

	machine, err := s.machineRepo.IncrementStock(ctx, item.MachineID, quantity)
	if err != nil || machine == nil {
		s.undo(ctx, order, itemID, prior)
		if err != nil {
			return nil, apperror.NewTransactionAbortError(err)
		}
		return nil, apperror.NewNotFoundByIDError("machine", item.MachineID.String())
	}

	if s.reports != nil {
		s.reports.InvalidateReports(ctx)
	}

	item = order.FindItem(itemID)
	return &ReturnResult{
		Order: order,
		ReturnedItem: ReturnedItem{
			ItemID:            item.ID,
			MachineID:         item.MachineID,
			MachineCode:       item.MachineCode,
			MachineName:       item.MachineName,
			ReturnedQuantity:  quantity,
			TotalReturned:     item.ReturnedQuantity,
			RemainingQuantity: item.RemainingQuantity(),
			Returned:          item.Returned,
		},
		UpdatedStock: machine.Quantity,
	}, nil
}

// undo restores the line and order status captured before the return
func (s *ReturnService) undo(ctx context.Context, order *entity.Order, itemID uuid.UUID, prior returnState) {
	item := order.FindItem(itemID)
	item.ReturnedQuantity = prior.returnedQuantity
	item.Returned = prior.returned
	item.ReturnedAt = prior.returnedAt
	order.OrderStatus = prior.orderStatus
	pricing.RecomputeTotals(order)

	if err := s.orderRepo.Update(context.WithoutCancel(ctx), order); err != nil {
		log.Printf("[return] ERROR: failed to roll back return on order %s item %s: %v", order.OrderCode, itemID, err)
	}
}
