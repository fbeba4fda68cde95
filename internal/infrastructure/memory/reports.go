package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type reportRepository struct {
	store *Store
}

// NewReportRepository creates a report repository over store
func NewReportRepository(store *Store) domainRepo.ReportRepository {
	return &reportRepository{store: store}
}

// counted yields non-cancelled orders created in [from, to)
func (r *reportRepository) counted(from, to time.Time, fn func(o entity.Order)) {
	for _, o := range r.store.orders {
		if o.OrderStatus == enum.OrderStatusCancelled {
			continue
		}
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		fn(o)
	}
}

func (r *reportRepository) SalesSummary(ctx context.Context, from, to time.Time) (*domainRepo.SalesSummary, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	summary := &domainRepo.SalesSummary{}
	r.counted(from, to, func(o entity.Order) {
		summary.Revenue = summary.Revenue.Add(o.FinalTotal)
		summary.OrderCount++
	})
	return summary, nil
}

func (r *reportRepository) TopMachines(ctx context.Context, from, to time.Time, limit int) ([]domainRepo.TopMachineResult, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	byMachine := make(map[uuid.UUID]*domainRepo.TopMachineResult)
	r.counted(from, to, func(o entity.Order) {
		for _, item := range o.Items {
			kept := item.Quantity - item.ReturnedQuantity
			if kept <= 0 {
				continue
			}
			res, ok := byMachine[item.MachineID]
			if !ok {
				res = &domainRepo.TopMachineResult{
					MachineID:   item.MachineID,
					MachineCode: item.MachineCode,
					MachineName: item.MachineName,
				}
				byMachine[item.MachineID] = res
			}
			res.QuantitySold += kept
			res.Revenue = res.Revenue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(kept))))
		}
	})

	out := make([]domainRepo.TopMachineResult, 0, len(byMachine))
	for _, res := range byMachine {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuantitySold != out[j].QuantitySold {
			return out[i].QuantitySold > out[j].QuantitySold
		}
		return out[i].Revenue.GreaterThan(out[j].Revenue)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reportRepository) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]domainRepo.TopCustomerResult, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	byCustomer := make(map[uuid.UUID]*domainRepo.TopCustomerResult)
	r.counted(from, to, func(o entity.Order) {
		res, ok := byCustomer[o.CustomerID]
		if !ok {
			res = &domainRepo.TopCustomerResult{CustomerID: o.CustomerID, CustomerName: o.CustomerName, Phone: o.CustomerPhone}
			if c, found := r.store.customers[o.CustomerID]; found {
				res.CustomerName = c.Name
				res.Phone = c.Phone
			}
			byCustomer[o.CustomerID] = res
		}
		res.TotalSpent = res.TotalSpent.Add(o.FinalTotal)
		res.OrderCount++
	})

	out := make([]domainRepo.TopCustomerResult, 0, len(byCustomer))
	for _, res := range byCustomer {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSpent.GreaterThan(out[j].TotalSpent) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reportRepository) DailySales(ctx context.Context, from, to time.Time) ([]domainRepo.DailySalesResult, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	byDay := make(map[time.Time]*domainRepo.DailySalesResult)
	r.counted(from, to, func(o entity.Order) {
		y, m, d := o.CreatedAt.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, o.CreatedAt.Location())
		res, ok := byDay[day]
		if !ok {
			res = &domainRepo.DailySalesResult{Date: day}
			byDay[day] = res
		}
		res.Revenue = res.Revenue.Add(o.FinalTotal)
		res.OrderCount++
	})

	out := make([]domainRepo.DailySalesResult, 0, len(byDay))
	for _, res := range byDay {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
