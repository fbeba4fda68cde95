package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesSummary aggregates non-cancelled orders in a window
type SalesSummary struct {
	Revenue    decimal.Decimal
	OrderCount int64
}

// TopMachineResult is a machine's sales net of returns
type TopMachineResult struct {
	MachineID    uuid.UUID       `json:"machine_id"`
	MachineCode  string          `json:"machine_code"`
	MachineName  string          `json:"machine_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// TopCustomerResult is a customer's spend in a window
type TopCustomerResult struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	OrderCount   int             `json:"order_count"`
}

// DailySalesResult is revenue for a single calendar day
type DailySalesResult struct {
	Date       time.Time       `json:"date"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int             `json:"order_count"`
}

// ReportRepository defines read-only aggregation queries over [from, to)
type ReportRepository interface {
	SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
	TopMachines(ctx context.Context, from, to time.Time, limit int) ([]TopMachineResult, error)
	TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopCustomerResult, error)
	DailySales(ctx context.Context, from, to time.Time) ([]DailySalesResult, error)
}
