package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/machinetrade/pos-api/internal/application/service"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/request"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/response"
)

// SaleHandler handles sale HTTP requests
type SaleHandler struct {
	saleService *service.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Process handles POST /sales
func (h *SaleHandler) Process(c *gin.Context) {
	var req request.ProcessSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.saleService.ProcessSale(c.Request.Context(), req.ToInput(processedBy(c)))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale processed successfully", result)
}

// Validate handles POST /sales/validate. Stock problems come back in the
// body with 200; only malformed requests fail.
func (h *SaleHandler) Validate(c *gin.Context) {
	var req request.ProcessSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.saleService.ValidateSale(c.Request.Context(), req.ToInput(processedBy(c)))
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Sale is valid"
	if !result.IsValid {
		message = "Sale has validation errors"
	}
	response.OK(c, message, result)
}
