package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/infrastructure/memory"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	appErr := apperror.GetAppError(err)
	require.Equal(t, apperror.KindValidation, appErr.Kind, "error: %v", err)
	names := make([]string, 0, len(appErr.Errors))
	for _, fe := range appErr.Errors {
		names = append(names, fe.Field)
	}
	return names
}

func TestProcessSaleHappyPath(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)

	result := f.sell(t, "0771234567", line(m.ID, 2))

	order := result.Order
	require.Len(t, order.Items, 1)
	assert.True(t, order.Subtotal.Equal(dec("1640")), "subtotal %s", order.Subtotal)
	assert.True(t, order.VATAmount.Equal(dec("360")), "vat %s", order.VATAmount)
	assert.True(t, order.FinalTotal.Equal(dec("2000")), "final %s", order.FinalTotal)
	assert.Equal(t, enum.OrderStatusCompleted, order.OrderStatus)
	assert.Equal(t, enum.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "cashier", order.ProcessedBy)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, order.OrderCode)

	item := order.Items[0]
	assert.Equal(t, "GEN-100", item.MachineCode)
	assert.True(t, item.VATPercentage.Equal(dec("18")))
	assert.Equal(t, 12, item.WarrantyMonths)

	assert.True(t, result.Summary.IsNewCustomer)
	assert.Equal(t, 2, result.Summary.TotalQuantity)
	assert.Equal(t, 3, f.stock(t, m.ID))
	assert.Equal(t, 1, f.reports.count())

	customer, err := f.repos.Customers.GetByID(context.Background(), order.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, 1, customer.TotalOrders)
	assert.True(t, customer.TotalSpent.Equal(dec("2000")))
	assert.NotNil(t, customer.LastOrderDate)
}

func TestProcessSaleInsufficientStockLeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 3)

	_, err := f.sales.ProcessSale(context.Background(), saleInput("0771234567", line(m.ID, 5)))

	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, 3, appErr.Details["available"])
	assert.Equal(t, 5, appErr.Details["requested"])
	assert.Equal(t, 3, f.stock(t, m.ID))
	assert.Zero(t, f.reports.count())
}

func TestProcessSaleRollsBackEarlierLines(t *testing.T) {
	f := newFixture(t)
	a := f.machine(t, "GEN-A", 1000, 5)
	b := f.machine(t, "GEN-B", 500, 1)

	_, err := f.sales.ProcessSale(context.Background(), saleInput("0771234567", line(a.ID, 2), line(b.ID, 2)))

	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))
	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))

	n, err := f.repos.Customers.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessSaleStorageFailureAbortsEverything(t *testing.T) {
	repos := memory.NewStore().Repositories()
	repos.Orders = &failingOrders{OrderRepository: repos.Orders, failCreate: true}
	f := newFixtureWith(repos)
	m := f.machine(t, "GEN-100", 1000, 5)

	_, err := f.sales.ProcessSale(context.Background(), saleInput("0771234567", line(m.ID, 2)))

	require.Error(t, err)
	assert.Equal(t, apperror.KindTransactionAbort, apperror.KindOf(err))
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, 5, f.stock(t, m.ID))

	n, _ := f.repos.Customers.Count(context.Background())
	assert.Zero(t, n)
}

func TestProcessSaleMatchesCustomerAcrossPhoneFormats(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)

	first := f.sell(t, "077 123 4567", line(m.ID, 1))
	second := f.sell(t, "077-123-4567", line(m.ID, 1))

	assert.Equal(t, first.Order.CustomerID, second.Order.CustomerID)
	assert.False(t, second.Summary.IsNewCustomer)
	assert.Equal(t, "0771234567", second.Order.CustomerPhone)

	customer, err := f.repos.Customers.GetByID(context.Background(), first.Order.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, 2, customer.TotalOrders)
	assert.True(t, customer.TotalSpent.Equal(dec("2000")))
}

func TestProcessSaleFindsCustomerByNationalID(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)

	in := saleInput("0771234567", line(m.ID, 1))
	in.Customer.NationalID = ptr("912345678v")
	first, err := f.sales.ProcessSale(context.Background(), in)
	require.NoError(t, err)

	in = saleInput("0719876543", line(m.ID, 1))
	in.Customer.NationalID = ptr("912345678V")
	second, err := f.sales.ProcessSale(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.Order.CustomerID, second.Order.CustomerID)
	customer, _ := f.repos.Customers.GetByID(context.Background(), first.Order.CustomerID)
	assert.Equal(t, "0719876543", customer.Phone)
	assert.Equal(t, "912345678V", *customer.NationalID)
}

func TestProcessSaleRejectsNationalIDOwnedByAnotherCustomer(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)

	in := saleInput("0771234567", line(m.ID, 1))
	in.Customer.NationalID = ptr("912345678V")
	_, err := f.sales.ProcessSale(context.Background(), in)
	require.NoError(t, err)
	f.sell(t, "0719876543", line(m.ID, 1))

	in = saleInput("0719876543", line(m.ID, 1))
	in.Customer.NationalID = ptr("912345678V")
	_, err = f.sales.ProcessSale(context.Background(), in)

	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, 3, f.stock(t, m.ID))
}

func TestProcessSaleValidation(t *testing.T) {
	f := newFixture(t)

	in := &ProcessSaleInput{
		Customer:           SaleCustomerInput{Name: " ", Phone: "12"},
		Items:              []SaleItemInput{{MachineID: uuid.Nil, Quantity: 0}},
		Extras:             []SaleExtraInput{{Description: "", Amount: dec("-5")}},
		DiscountPercentage: ptr(dec("150")),
	}
	_, err := f.sales.ProcessSale(context.Background(), in)

	assert.ElementsMatch(t, []string{
		"customer.name",
		"customer.phone",
		"items[0].machine_id",
		"items[0].quantity",
		"extras[0].description",
		"extras[0].amount",
		"discount_percentage",
	}, fieldNames(t, err))
}

func TestProcessSaleRequiresItems(t *testing.T) {
	f := newFixture(t)
	_, err := f.sales.ProcessSale(context.Background(), saleInput("0771234567"))
	assert.Equal(t, []string{"items"}, fieldNames(t, err))
}

func TestProcessSaleUnknownMachine(t *testing.T) {
	f := newFixture(t)
	_, err := f.sales.ProcessSale(context.Background(), saleInput("0771234567", line(uuid.New(), 1)))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestProcessSaleDiscountExtrasAndOverrides(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)

	in := saleInput("0771234567", SaleItemInput{
		MachineID:      m.ID,
		Quantity:       2,
		VATPercentage:  ptr(dec("0")),
		WarrantyMonths: ptr(24),
	})
	in.DiscountPercentage = ptr(dec("10"))
	in.Extras = []SaleExtraInput{{Description: " Delivery ", Amount: dec("250")}}
	in.PaymentStatus = ptr(enum.PaymentStatusPartial)

	result, err := f.sales.ProcessSale(context.Background(), in)
	require.NoError(t, err)

	order := result.Order
	assert.True(t, order.VATAmount.IsZero())
	assert.True(t, order.DiscountAmount.Equal(dec("200")))
	assert.True(t, order.FinalTotal.Equal(dec("2050")), "final %s", order.FinalTotal)
	assert.Equal(t, "Delivery", order.Extras[0].Description)
	assert.Equal(t, 24, order.Items[0].WarrantyMonths)
	assert.Equal(t, enum.PaymentStatusPartial, order.PaymentStatus)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold, rejected := 0, 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sales.ProcessSale(context.Background(), saleInput("0771234567", line(m.ID, 1)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				sold++
			} else if apperror.KindOf(err) == apperror.KindInsufficientStock {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sold)
	assert.Equal(t, 15, rejected)
	assert.Zero(t, f.stock(t, m.ID))
}

func TestValidateSaleReportsWithoutWriting(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 3)

	result, err := f.sales.ValidateSale(context.Background(),
		saleInput("0771234567", line(m.ID, 2), line(m.ID, 2), line(uuid.New(), 1)))
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	require.Len(t, result.Items, 3)
	assert.True(t, result.Items[0].Valid)
	assert.False(t, result.Items[1].Valid)
	assert.False(t, result.Items[2].Valid)

	fields := make([]string, 0, len(result.Errors))
	for _, fe := range result.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"items[1].quantity", "items[2].machine_id"}, fields)
	assert.Equal(t, 3, f.stock(t, m.ID))

	n, _ := f.repos.Customers.Count(context.Background())
	assert.Zero(t, n)
}

func TestValidateSaleWarnsOnLowStock(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 10)

	result, err := f.sales.ValidateSale(context.Background(), saleInput("0771234567", line(m.ID, 6)))
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "4 left")
	assert.True(t, result.Summary.FinalTotal.Equal(dec("6000")))
	assert.Equal(t, 6, result.Summary.TotalQuantity)
}
