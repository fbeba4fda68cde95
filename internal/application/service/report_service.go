package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/internal/infrastructure/cache"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// ReportPeriod selects the dashboard window
type ReportPeriod string

const (
	ReportPeriodDaily   ReportPeriod = "daily"
	ReportPeriodWeekly  ReportPeriod = "weekly"
	ReportPeriodMonthly ReportPeriod = "monthly"
)

var reportPeriods = []ReportPeriod{ReportPeriodDaily, ReportPeriodWeekly, ReportPeriodMonthly}

// ParseReportPeriod accepts daily, weekly or monthly; empty means monthly
func ParseReportPeriod(s string) (ReportPeriod, error) {
	p := ReportPeriod(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ReportPeriodMonthly, nil
	}
	for _, valid := range reportPeriods {
		if p == valid {
			return p, nil
		}
	}
	return "", apperror.NewFieldValidationError("period", "must be one of daily, weekly, monthly")
}

func (p ReportPeriod) days() int {
	switch p {
	case ReportPeriodDaily:
		return 1
	case ReportPeriodWeekly:
		return 7
	default:
		return 30
	}
}

const (
	reportCachePrefix = "report:dashboard:"
	topListLimit      = 5
)

// ReportService builds read-only dashboard rollups
type ReportService struct {
	reportRepo        repository.ReportRepository
	machineRepo       repository.MachineRepository
	customerRepo      repository.CustomerRepository
	cache             cache.ReportCache
	ttl               time.Duration
	lowStockThreshold int
	now               func() time.Time
}

// NewReportService creates a new report service. A nil cache disables caching.
func NewReportService(
	reportRepo repository.ReportRepository,
	machineRepo repository.MachineRepository,
	customerRepo repository.CustomerRepository,
	reportCache cache.ReportCache,
	ttl time.Duration,
	lowStockThreshold int,
) *ReportService {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	return &ReportService{
		reportRepo:        reportRepo,
		machineRepo:       machineRepo,
		customerRepo:      customerRepo,
		cache:             reportCache,
		ttl:               ttl,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// Dashboard is the rollup for one period
type Dashboard struct {
	Period            ReportPeriod                   `json:"period"`
	From              time.Time                      `json:"from"`
	To                time.Time                      `json:"to"`
	Revenue           decimal.Decimal                `json:"revenue"`
	OrderCount        int64                          `json:"order_count"`
	AverageOrderValue decimal.Decimal                `json:"average_order_value"`
	RevenueGrowth     decimal.Decimal                `json:"revenue_growth"`
	TopMachines       []repository.TopMachineResult  `json:"top_machines"`
	TopCustomers      []repository.TopCustomerResult `json:"top_customers"`
	LowStockCount     int64                          `json:"low_stock_count"`
	CustomerCount     int64                          `json:"customer_count"`
	DailySales        []repository.DailySalesResult  `json:"daily_sales"`
	GeneratedAt       time.Time                      `json:"generated_at"`
}

// Dashboard returns the rollup for period, served from cache when fresh
func (s *ReportService) Dashboard(ctx context.Context, period ReportPeriod) (*Dashboard, error) {
	key := reportCachePrefix + string(period)
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("[report] WARN: cache read failed for %s: %v", key, err)
	} else if ok {
		var cached Dashboard
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	dashboard, err := s.build(ctx, period)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(dashboard); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			log.Printf("[report] WARN: cache write failed for %s: %v", key, err)
		}
	}
	return dashboard, nil
}

// InvalidateReports drops every cached dashboard
func (s *ReportService) InvalidateReports(ctx context.Context) {
	keys := make([]string, 0, len(reportPeriods))
	for _, p := range reportPeriods {
		keys = append(keys, reportCachePrefix+string(p))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("[report] WARN: cache invalidation failed: %v", err)
	}
}

func (s *ReportService) build(ctx context.Context, period ReportPeriod) (*Dashboard, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := today.AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -period.days())
	prevFrom := from.AddDate(0, 0, -period.days())

	summary, err := s.reportRepo.SalesSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	previous, err := s.reportRepo.SalesSummary(ctx, prevFrom, from)
	if err != nil {
		return nil, err
	}
	topMachines, err := s.reportRepo.TopMachines(ctx, from, to, topListLimit)
	if err != nil {
		return nil, err
	}
	topCustomers, err := s.reportRepo.TopCustomers(ctx, from, to, topListLimit)
	if err != nil {
		return nil, err
	}
	daily, err := s.reportRepo.DailySales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.machineRepo.CountLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Period:            period,
		From:              from,
		To:                to,
		Revenue:           summary.Revenue,
		OrderCount:        summary.OrderCount,
		AverageOrderValue: decimal.Zero,
		RevenueGrowth:     growth(summary.Revenue, previous.Revenue),
		TopMachines:       nonNil(topMachines),
		TopCustomers:      nonNil(topCustomers),
		LowStockCount:     lowStock,
		CustomerCount:     customers,
		DailySales:        nonNil(daily),
		GeneratedAt:       now,
	}
	if summary.OrderCount > 0 {
		dashboard.AverageOrderValue = summary.Revenue.Div(decimal.NewFromInt(summary.OrderCount)).Round(2)
	}
	return dashboard, nil
}

// growth is the percentage change from previous to current, 100 when
// there was nothing before
func growth(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
