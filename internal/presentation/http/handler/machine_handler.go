package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/machinetrade/pos-api/internal/application/service"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/request"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/response"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
)

// MachineHandler handles inventory HTTP requests
type MachineHandler struct {
	machineService    *service.MachineService
	lowStockThreshold int
}

// NewMachineHandler creates a new machine handler
func NewMachineHandler(machineService *service.MachineService, lowStockThreshold int) *MachineHandler {
	return &MachineHandler{machineService: machineService, lowStockThreshold: lowStockThreshold}
}

// List handles listing machines
func (h *MachineHandler) List(c *gin.Context) {
	var filter request.MachineFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.MachineFilterParams{
		Pagination: &pagination.PaginationParams{Page: filter.Page, PerPage: filter.PerPage},
		Search:     filter.Search,
		SortBy:     filter.SortBy,
		SortOrder:  filter.SortOrder,
	}
	if filter.Category != "" {
		category, err := enum.ParseMachineCategory(filter.Category)
		if err != nil {
			response.Error(c, apperror.NewFieldValidationError("category", "is invalid"))
			return
		}
		params.Category = &category
	}
	if filter.LowStock {
		params.LowStockThreshold = &h.lowStockThreshold
	}

	result, err := h.machineService.ListMachines(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "Machines retrieved successfully", result)
}

// LowStock handles listing machines at or below the low-stock threshold
func (h *MachineHandler) LowStock(c *gin.Context) {
	machines, err := h.machineService.LowStock(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Low stock machines retrieved successfully", machines)
}

// Create handles creating a machine
func (h *MachineHandler) Create(c *gin.Context) {
	var req request.CreateMachineRequest
	if !bindJSON(c, &req) {
		return
	}

	machine, err := h.machineService.CreateMachine(c.Request.Context(), &service.CreateMachineInput{
		Code:        req.Code,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Machine created successfully", machine)
}

// Get handles getting a single machine
func (h *MachineHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "machine")
	if !ok {
		return
	}

	machine, err := h.machineService.GetMachine(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Machine retrieved successfully", machine)
}

// Update handles updating a machine
func (h *MachineHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "machine")
	if !ok {
		return
	}
	var req request.UpdateMachineRequest
	if !bindJSON(c, &req) {
		return
	}

	machine, err := h.machineService.UpdateMachine(c.Request.Context(), id, &service.UpdateMachineInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Machine updated successfully", machine)
}

// Delete handles deleting a machine
func (h *MachineHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id", "machine")
	if !ok {
		return
	}

	if err := h.machineService.DeleteMachine(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Machine deleted successfully", nil)
}
