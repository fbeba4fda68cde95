package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture wires every service over one in-memory store
type fixture struct {
	repos     repository.Repositories
	reports   *countingInvalidator
	sales     *SaleService
	returns   *ReturnService
	orders    *OrderService
	customers *CustomerService
	machines  *MachineService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewStore().Repositories()
	return newFixtureWith(repos)
}

func newFixtureWith(repos repository.Repositories) *fixture {
	settings := DefaultSaleSettings()
	reports := &countingInvalidator{}
	return &fixture{
		repos:     repos,
		reports:   reports,
		sales:     NewSaleService(repos.Transactor, repos.Machines, repos.Customers, repos.Orders, reports, settings),
		returns:   NewReturnService(repos.Machines, repos.Orders, reports),
		orders:    NewOrderService(repos.Orders, repos.Machines, reports, settings),
		customers: NewCustomerService(repos.Customers, repos.Orders),
		machines:  NewMachineService(repos.Machines, repos.Orders, reports, settings.LowStockThreshold),
	}
}

func (f *fixture) machine(t *testing.T, code string, price int64, qty int) *entity.Machine {
	t.Helper()
	m := &entity.Machine{
		Code:     code,
		Name:     "Machine " + code,
		Category: enum.CategoryGenerator,
		Price:    decimal.NewFromInt(price),
		Quantity: qty,
	}
	require.NoError(t, f.repos.Machines.Create(context.Background(), m))
	return m
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	m, err := f.repos.Machines.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m.Quantity
}

func (f *fixture) sell(t *testing.T, phone string, lines ...SaleItemInput) *SaleResult {
	t.Helper()
	result, err := f.sales.ProcessSale(context.Background(), saleInput(phone, lines...))
	require.NoError(t, err)
	return result
}

func saleInput(phone string, lines ...SaleItemInput) *ProcessSaleInput {
	return &ProcessSaleInput{
		Customer:    SaleCustomerInput{Name: "Sunil Perera", Phone: phone},
		Items:       lines,
		ProcessedBy: "cashier",
	}
}

func line(machineID uuid.UUID, qty int) SaleItemInput {
	return SaleItemInput{MachineID: machineID, Quantity: qty}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) InvalidateReports(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

var errInjected = errors.New("injected failure")

// failingOrders fails GetByID, Create or Update on demand
type failingOrders struct {
	repository.OrderRepository
	failGet    bool
	failCreate bool
	failUpdate int // fail the nth Update call, 1-based; 0 never
	updates    int
}

func (f *failingOrders) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	if f.failGet {
		return nil, errInjected
	}
	return f.OrderRepository.GetByID(ctx, id)
}

func (f *failingOrders) Create(ctx context.Context, order *entity.Order) error {
	if f.failCreate {
		return errInjected
	}
	return f.OrderRepository.Create(ctx, order)
}

func (f *failingOrders) Update(ctx context.Context, order *entity.Order) error {
	f.updates++
	if f.updates == f.failUpdate {
		return errInjected
	}
	return f.OrderRepository.Update(ctx, order)
}

// fakeCache is an in-process ReportCache
type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	sets    int
	deletes []string
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deletes = append(c.deletes, k)
	}
	return nil
}
