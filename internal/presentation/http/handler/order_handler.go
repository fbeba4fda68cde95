package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/application/service"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/request"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/response"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService  *service.OrderService
	returnService *service.ReturnService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, returnService *service.ReturnService) *OrderHandler {
	return &OrderHandler{orderService: orderService, returnService: returnService}
}

// List handles listing orders (supports both page-based and cursor-based pagination)
func (h *OrderHandler) List(c *gin.Context) {
	filter, err := orderFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if cursor := c.Query("cursor"); cursor != "" || c.Query("limit") != "" {
		limit, _ := strconv.Atoi(c.Query("limit"))
		params := &repository.OrderCursorFilterParams{
			OrderFilter: *filter,
			Cursor: &pagination.CursorParams{
				Cursor:    cursor,
				Direction: pagination.CursorDirection(c.DefaultQuery("direction", "next")),
				Limit:     limit,
			},
		}
		result, err := h.orderService.ListOrdersWithCursor(c.Request.Context(), params)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "Orders retrieved successfully", result)
		return
	}

	params := &repository.OrderFilterParams{
		OrderFilter: *filter,
		Pagination:  pageParams(c),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}
	result, err := h.orderService.ListOrders(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "Orders retrieved successfully", result)
}

func orderFilter(c *gin.Context) (*repository.OrderFilter, error) {
	filter := &repository.OrderFilter{Search: strings.TrimSpace(c.Query("search"))}

	if raw := c.Query("status"); raw != "" {
		status, err := enum.ParseOrderStatus(raw)
		if err != nil {
			n, convErr := strconv.Atoi(raw)
			status = enum.OrderStatus(n)
			if convErr != nil || !status.Valid() {
				return nil, apperror.NewFieldValidationError("status", "is invalid")
			}
		}
		filter.Status = &status
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperror.NewFieldValidationError("customer_id", "must be a valid UUID")
		}
		filter.CustomerID = &id
	}

	var err error
	if filter.StartDate, err = dateQuery(c, "start_date"); err != nil {
		return nil, err
	}
	if filter.EndDate, err = dateQuery(c, "end_date"); err != nil {
		return nil, err
	}
	if filter.EndDate != nil {
		// the end date is inclusive
		end := filter.EndDate.AddDate(0, 0, 1)
		filter.EndDate = &end
	}
	return filter, nil
}

// Get handles getting a single order
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", order)
}

// GetByCode handles looking an order up by its code
func (h *OrderHandler) GetByCode(c *gin.Context) {
	order, err := h.orderService.GetOrderByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", order)
}

// Update handles editing an order
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "order")
	if !ok {
		return
	}
	var req request.UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), id, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order updated successfully", order)
}

// Cancel handles cancelling an order
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := uuidParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order cancelled successfully", order)
}

// ReturnItem handles returning units of one order line
func (h *OrderHandler) ReturnItem(c *gin.Context) {
	id, ok := uuidParam(c, "id", "order")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId", "item")
	if !ok {
		return
	}
	var req request.ReturnItemRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.returnService.ReturnItem(c.Request.Context(), id, itemID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item returned successfully", result)
}
