package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateOrderRecomputesTotals(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 2))
	calls := f.reports.count()

	updated, err := f.orders.UpdateOrder(context.Background(), sale.Order.ID, &UpdateOrderInput{
		DiscountPercentage: ptr(dec("10")),
		Extras:             []SaleExtraInput{{Description: "Installation", Amount: dec("300")}},
		Notes:              ptr("  deliver friday "),
		CustomerPhone:      ptr("077 999 8888"),
	})
	require.NoError(t, err)

	assert.True(t, updated.DiscountAmount.Equal(dec("200")))
	assert.True(t, updated.FinalTotal.Equal(dec("2100")), "final %s", updated.FinalTotal)
	assert.Equal(t, "deliver friday", *updated.Notes)
	assert.Equal(t, "0779998888", updated.CustomerPhone)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, calls+1, f.reports.count())
	assert.Equal(t, 3, f.stock(t, m.ID))
}

func TestUpdateOrderItemsCarryReturnedQuantity(t *testing.T) {
	f := newFixture(t)
	a := f.machine(t, "GEN-A", 1000, 10)
	b := f.machine(t, "GEN-B", 500, 10)
	sale := f.sell(t, "0771234567", line(a.ID, 5))
	itemID := sale.Order.Items[0].ID

	_, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, itemID, 3)
	require.NoError(t, err)

	updated, err := f.orders.UpdateOrder(context.Background(), sale.Order.ID, &UpdateOrderInput{
		Items: []UpdateOrderItemInput{
			{ID: &itemID, MachineID: a.ID, Quantity: 2},
			{MachineID: b.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)

	kept := updated.Items[0]
	assert.Equal(t, itemID, kept.ID)
	assert.Equal(t, 2, kept.Quantity)
	assert.Equal(t, 2, kept.ReturnedQuantity)
	assert.True(t, kept.Returned)
	assert.NotNil(t, kept.ReturnedAt)

	added := updated.Items[1]
	assert.NotEqual(t, uuid.Nil, added.ID)
	assert.Equal(t, "GEN-B", added.MachineCode)
	assert.True(t, added.VATPercentage.Equal(dec("18")))
	assert.Equal(t, 12, added.WarrantyMonths)
	assert.Zero(t, added.ReturnedQuantity)

	assert.True(t, updated.FinalTotal.Equal(dec("500")), "final %s", updated.FinalTotal)
	assert.Equal(t, 8, f.stock(t, a.ID))
	assert.Equal(t, 10, f.stock(t, b.ID))
}

func TestUpdateOrderSwapsMachineOnKeptLine(t *testing.T) {
	f := newFixture(t)
	a := f.machine(t, "GEN-A", 1000, 10)
	b := f.machine(t, "GEN-B", 500, 10)

	in := saleInput("0771234567", SaleItemInput{MachineID: a.ID, Quantity: 2, VATPercentage: ptr(dec("5")), WarrantyMonths: ptr(36)})
	sale, err := f.sales.ProcessSale(context.Background(), in)
	require.NoError(t, err)
	itemID := sale.Order.Items[0].ID

	updated, err := f.orders.UpdateOrder(context.Background(), sale.Order.ID, &UpdateOrderInput{
		Items: []UpdateOrderItemInput{{ID: &itemID, MachineID: b.ID, Quantity: 2, UnitPrice: ptr(dec("450"))}},
	})
	require.NoError(t, err)

	item := updated.Items[0]
	assert.Equal(t, itemID, item.ID)
	assert.Equal(t, b.ID, item.MachineID)
	assert.Equal(t, "GEN-B", item.MachineCode)
	assert.True(t, item.UnitPrice.Equal(dec("450")))
	assert.True(t, item.VATPercentage.Equal(dec("5")))
	assert.Equal(t, 36, item.WarrantyMonths)
	assert.True(t, updated.FinalTotal.Equal(dec("900")))
}

func TestUpdateOrderRejectsBadItems(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 1))
	itemID := sale.Order.Items[0].ID
	unknown := uuid.New()

	cases := []struct {
		name  string
		items []UpdateOrderItemInput
		field string
	}{
		{"empty list", []UpdateOrderItemInput{}, "items"},
		{"unknown line", []UpdateOrderItemInput{{ID: &unknown, MachineID: m.ID, Quantity: 1}}, "items[0].id"},
		{"duplicate line", []UpdateOrderItemInput{
			{ID: &itemID, MachineID: m.ID, Quantity: 1},
			{ID: &itemID, MachineID: m.ID, Quantity: 1},
		}, "items[1].id"},
		{"missing machine", []UpdateOrderItemInput{{MachineID: uuid.New(), Quantity: 1}}, "items[0].machine_id"},
		{"zero quantity", []UpdateOrderItemInput{{MachineID: m.ID, Quantity: 0}}, "items[0].quantity"},
		{"bad vat", []UpdateOrderItemInput{{MachineID: m.ID, Quantity: 1, VATPercentage: ptr(dec("101"))}}, "items[0].vat_percentage"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.UpdateOrder(context.Background(), sale.Order.ID, &UpdateOrderInput{Items: tc.items})
			assert.Equal(t, []string{tc.field}, fieldNames(t, err))
		})
	}

	stored, err := f.orders.GetOrder(context.Background(), sale.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
}

func TestUpdateOrderValidatesStatusesAndCustomer(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 1))

	bad := enum.OrderStatus(9)
	_, err := f.orders.UpdateOrder(context.Background(), sale.Order.ID, &UpdateOrderInput{
		OrderStatus:        &bad,
		CustomerName:       ptr(" "),
		CustomerEmail:      ptr("not-an-email"),
		DiscountPercentage: ptr(dec("-1")),
	})
	assert.ElementsMatch(t, []string{"order_status", "customer_name", "customer_email", "discount_percentage"}, fieldNames(t, err))
}

func TestUpdateOrderNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.UpdateOrder(context.Background(), uuid.New(), &UpdateOrderInput{Notes: ptr("x")})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 2))

	cancelled, err := f.orders.CancelOrder(context.Background(), sale.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCancelled, cancelled.OrderStatus)
	assert.Equal(t, 3, f.stock(t, m.ID))

	_, err = f.orders.CancelOrder(context.Background(), sale.Order.ID)
	assert.Equal(t, []string{"order_status"}, fieldNames(t, err))
}

func TestGetOrderByCodeIgnoresCase(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 1))

	got, err := f.orders.GetOrderByCode(context.Background(), strings.ToLower(sale.Order.OrderCode))
	require.NoError(t, err)
	assert.Equal(t, sale.Order.ID, got.ID)

	_, err = f.orders.GetOrderByCode(context.Background(), "ORD-NOPE")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 10)
	first := f.sell(t, "0771234567", line(m.ID, 1))
	f.sell(t, "0771234567", line(m.ID, 1))
	f.sell(t, "0719876543", line(m.ID, 1))
	_, err := f.orders.CancelOrder(context.Background(), first.Order.ID)
	require.NoError(t, err)

	status := enum.OrderStatusCompleted
	result, err := f.orders.ListOrders(context.Background(), &repository.OrderFilterParams{
		OrderFilter: repository.OrderFilter{Status: &status},
	})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(2), result.Pagination.Total)

	result, err = f.orders.ListOrders(context.Background(), &repository.OrderFilterParams{
		OrderFilter: repository.OrderFilter{Search: "98765"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestListOrdersWithCursor(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 10)
	for i := 0; i < 3; i++ {
		f.sell(t, "0771234567", line(m.ID, 1))
	}

	page, err := f.orders.ListOrdersWithCursor(context.Background(), &repository.OrderCursorFilterParams{
		Cursor: &pagination.CursorParams{Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
	require.NotNil(t, page.Pagination.NextCursor)

	next, err := f.orders.ListOrdersWithCursor(context.Background(), &repository.OrderCursorFilterParams{
		Cursor: &pagination.CursorParams{Cursor: *page.Pagination.NextCursor, Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, next.Items, 1)
	assert.False(t, next.Pagination.HasNext)
	assert.True(t, next.Pagination.HasPrev)
}

// assertReconciles rederives the order totals from its stored lines and extras
func assertReconciles(t *testing.T, o *entity.Order) {
	t.Helper()
	gross := decimal.Zero
	for _, item := range o.Items {
		kept := decimal.NewFromInt(int64(item.Quantity - item.ReturnedQuantity))
		gross = gross.Add(item.UnitPrice.Mul(kept))
	}
	extras := decimal.Zero
	for _, extra := range o.Extras {
		extras = extras.Add(extra.Amount)
	}
	discount := gross.Mul(o.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)

	assert.True(t, o.Subtotal.Add(o.VATAmount).Equal(gross), "subtotal+vat %s, lines %s", o.Subtotal.Add(o.VATAmount), gross)
	assert.True(t, o.ExtrasTotal.Equal(extras), "extras %s", o.ExtrasTotal)
	assert.True(t, o.DiscountAmount.Equal(discount), "discount %s", o.DiscountAmount)
	want := o.Subtotal.Add(o.VATAmount).Sub(o.DiscountAmount).Add(o.ExtrasTotal)
	assert.True(t, o.FinalTotal.Equal(want), "final %s, want %s", o.FinalTotal, want)
}

func assertSameTotals(t *testing.T, a, b *entity.Order) {
	t.Helper()
	assert.True(t, a.Subtotal.Equal(b.Subtotal))
	assert.True(t, a.VATAmount.Equal(b.VATAmount))
	assert.True(t, a.DiscountAmount.Equal(b.DiscountAmount))
	assert.True(t, a.ExtrasTotal.Equal(b.ExtrasTotal))
	assert.True(t, a.FinalTotal.Equal(b.FinalTotal))
	assert.Equal(t, a.Version, b.Version)
	require.Len(t, b.Items, len(a.Items))
	for i := range a.Items {
		assert.Equal(t, a.Items[i].ReturnedQuantity, b.Items[i].ReturnedQuantity)
		assert.True(t, a.Items[i].TotalWithVAT.Equal(b.Items[i].TotalWithVAT))
	}
}

func TestStoredOrderTotalsReconcileAndRefetchIsStable(t *testing.T) {
	f := newFixture(t)
	a := &entity.Machine{Code: "GEN-A", Name: "Generator A", Category: enum.CategoryGenerator, Price: dec("999.99"), Quantity: 10}
	b := &entity.Machine{Code: "PMP-B", Name: "Pump B", Category: enum.CategoryPump, Price: dec("1250.50"), Quantity: 10}
	require.NoError(t, f.repos.Machines.Create(context.Background(), a))
	require.NoError(t, f.repos.Machines.Create(context.Background(), b))

	in := saleInput("0771234567",
		SaleItemInput{MachineID: a.ID, Quantity: 3},
		SaleItemInput{MachineID: b.ID, Quantity: 2, VATPercentage: ptr(dec("7.5"))},
	)
	in.DiscountPercentage = ptr(dec("12.5"))
	in.Extras = []SaleExtraInput{{Description: "Delivery", Amount: dec("350.25")}}
	sale, err := f.sales.ProcessSale(context.Background(), in)
	require.NoError(t, err)

	first, err := f.orders.GetOrder(context.Background(), sale.Order.ID)
	require.NoError(t, err)
	second, err := f.orders.GetOrder(context.Background(), sale.Order.ID)
	require.NoError(t, err)
	assertReconciles(t, first)
	assertSameTotals(t, first, second)
	assert.True(t, first.FinalTotal.Equal(sale.Summary.FinalTotal))

	_, err = f.returns.ReturnItem(context.Background(), sale.Order.ID, b.ID, 1)
	require.NoError(t, err)

	first, err = f.orders.GetOrder(context.Background(), sale.Order.ID)
	require.NoError(t, err)
	second, err = f.orders.GetOrderByCode(context.Background(), sale.Order.OrderCode)
	require.NoError(t, err)
	assertReconciles(t, first)
	assertSameTotals(t, first, second)
	assert.Equal(t, 1, first.Items[1].ReturnedQuantity)
}
