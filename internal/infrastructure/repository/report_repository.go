package repository

import (
	"context"
	"time"

	"github.com/machinetrade/pos-api/internal/domain/enum"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) domainRepo.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SalesSummary(ctx context.Context, from, to time.Time) (*domainRepo.SalesSummary, error) {
	var summary domainRepo.SalesSummary
	err := conn(ctx, r.db).Raw(`
		SELECT
			COALESCE(SUM(final_total), 0) AS revenue,
			COUNT(*) AS order_count
		FROM orders
		WHERE order_status <> ? AND created_at >= ? AND created_at < ?
	`, enum.OrderStatusCancelled, from, to).Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *reportRepository) TopMachines(ctx context.Context, from, to time.Time, limit int) ([]domainRepo.TopMachineResult, error) {
	var results []domainRepo.TopMachineResult
	err := conn(ctx, r.db).Raw(`
		SELECT
			oi.machine_id,
			oi.machine_code,
			oi.machine_name,
			SUM(oi.quantity - oi.returned_quantity) AS quantity_sold,
			COALESCE(SUM((oi.quantity - oi.returned_quantity) * oi.unit_price), 0) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.order_status <> ? AND o.created_at >= ? AND o.created_at < ?
		GROUP BY oi.machine_id, oi.machine_code, oi.machine_name
		HAVING SUM(oi.quantity - oi.returned_quantity) > 0
		ORDER BY quantity_sold DESC, revenue DESC
		LIMIT ?
	`, enum.OrderStatusCancelled, from, to, limit).Scan(&results).Error
	return results, err
}

func (r *reportRepository) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]domainRepo.TopCustomerResult, error) {
	var results []domainRepo.TopCustomerResult
	err := conn(ctx, r.db).Raw(`
		SELECT
			o.customer_id,
			c.name AS customer_name,
			c.phone,
			COALESCE(SUM(o.final_total), 0) AS total_spent,
			COUNT(o.id) AS order_count
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.order_status <> ? AND o.created_at >= ? AND o.created_at < ?
		GROUP BY o.customer_id, c.name, c.phone
		ORDER BY total_spent DESC
		LIMIT ?
	`, enum.OrderStatusCancelled, from, to, limit).Scan(&results).Error
	return results, err
}

func (r *reportRepository) DailySales(ctx context.Context, from, to time.Time) ([]domainRepo.DailySalesResult, error) {
	var results []domainRepo.DailySalesResult
	err := conn(ctx, r.db).Raw(`
		SELECT
			date_trunc('day', created_at) AS date,
			COALESCE(SUM(final_total), 0) AS revenue,
			COUNT(*) AS order_count
		FROM orders
		WHERE order_status <> ? AND created_at >= ? AND created_at < ?
		GROUP BY 1
		ORDER BY 1
	`, enum.OrderStatusCancelled, from, to).Scan(&results).Error
	return results, err
}
