package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/machinetrade/pos-api/internal/application/service"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/response"
)

// ReportHandler handles reporting requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Dashboard handles GET /reports/dashboard?period=daily|weekly|monthly
func (h *ReportHandler) Dashboard(c *gin.Context) {
	period, err := service.ParseReportPeriod(c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}

	dashboard, err := h.reportService.Dashboard(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Dashboard retrieved successfully", dashboard)
}
