package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	"github.com/machinetrade/pos-api/internal/infrastructure/memory"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnItemPartialThenFull(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 5))
	itemID := sale.Order.Items[0].ID
	assert.Zero(t, f.stock(t, m.ID))

	first, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, itemID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ReturnedItem.ReturnedQuantity)
	assert.Equal(t, 2, first.ReturnedItem.TotalReturned)
	assert.Equal(t, 3, first.ReturnedItem.RemainingQuantity)
	assert.False(t, first.ReturnedItem.Returned)
	assert.Equal(t, 2, first.UpdatedStock)
	assert.Equal(t, enum.OrderStatusCompleted, first.Order.OrderStatus)
	assert.True(t, first.Order.FinalTotal.Equal(dec("3000")), "final %s", first.Order.FinalTotal)
	assert.NotNil(t, first.Order.Items[0].ReturnedAt)

	second, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, itemID, 3)
	require.NoError(t, err)
	assert.True(t, second.ReturnedItem.Returned)
	assert.Zero(t, second.ReturnedItem.RemainingQuantity)
	assert.Equal(t, enum.OrderStatusReturned, second.Order.OrderStatus)
	assert.True(t, second.Order.FinalTotal.IsZero())
	assert.Equal(t, 5, f.stock(t, m.ID))

	stored, err := f.orders.GetOrder(context.Background(), sale.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Items[0].ReturnedQuantity)
	assert.Equal(t, enum.OrderStatusReturned, stored.OrderStatus)
}

func TestReturnItemCannotExceedRemaining(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 3))
	itemID := sale.Order.Items[0].ID

	_, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, itemID, 2)
	require.NoError(t, err)

	_, err = f.returns.ReturnItem(context.Background(), sale.Order.ID, itemID, 2)
	assert.Equal(t, []string{"quantity"}, fieldNames(t, err))

	_, err = f.returns.ReturnItem(context.Background(), sale.Order.ID, itemID, 0)
	assert.Equal(t, []string{"quantity"}, fieldNames(t, err))

	assert.Equal(t, 4, f.stock(t, m.ID))
}

func TestReturnItemByMachineID(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 2))

	result, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, m.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, sale.Order.Items[0].ID, result.ReturnedItem.ItemID)
	assert.Equal(t, 4, result.UpdatedStock)
}

func TestReturnItemFullyReturnedLineMarksOrderReturned(t *testing.T) {
	f := newFixture(t)
	a := f.machine(t, "GEN-A", 1000, 5)
	b := f.machine(t, "GEN-B", 500, 5)
	sale := f.sell(t, "0771234567", line(a.ID, 2), line(b.ID, 2))

	result, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, b.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusReturned, result.Order.OrderStatus)
	assert.True(t, result.Order.FinalTotal.Equal(dec("2000")), "final %s", result.Order.FinalTotal)
}

func TestReturnItemNotFound(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 1))

	_, err := f.returns.ReturnItem(context.Background(), uuid.New(), m.ID, 1)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.returns.ReturnItem(context.Background(), sale.Order.ID, uuid.New(), 1)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestReturnItemRestoresOrderWhenMachineIsGone(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 2))
	require.NoError(t, f.repos.Machines.Delete(context.Background(), m.ID))
	calls := f.reports.count()

	_, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, m.ID, 2)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	stored, err := f.orders.GetOrder(context.Background(), sale.Order.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Items[0].ReturnedQuantity)
	assert.False(t, stored.Items[0].Returned)
	assert.Nil(t, stored.Items[0].ReturnedAt)
	assert.Equal(t, enum.OrderStatusCompleted, stored.OrderStatus)
	assert.True(t, stored.FinalTotal.Equal(dec("2000")))
	assert.Equal(t, calls, f.reports.count())
}

func TestReturnItemOrderWriteFailureKeepsStock(t *testing.T) {
	repos := memory.NewStore().Repositories()
	orders := &failingOrders{OrderRepository: repos.Orders, failUpdate: 1}
	repos.Orders = orders
	f := newFixtureWith(repos)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 2))

	_, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, m.ID, 1)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, apperror.KindTransactionAbort, apperror.KindOf(err))
	assert.Equal(t, 3, f.stock(t, m.ID))
}

func TestReturnItemOrderReadFailureAborts(t *testing.T) {
	repos := memory.NewStore().Repositories()
	orders := &failingOrders{OrderRepository: repos.Orders}
	repos.Orders = orders
	f := newFixtureWith(repos)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 2))

	orders.failGet = true
	_, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, m.ID, 1)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, apperror.KindTransactionAbort, apperror.KindOf(err))
	assert.Equal(t, 3, f.stock(t, m.ID))
}

func TestReturnItemByMachineIDSkipsFullyReturnedLine(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 10)
	sale := f.sell(t, "0771234567", line(m.ID, 1), line(m.ID, 2))
	first, second := sale.Order.Items[0].ID, sale.Order.Items[1].ID

	_, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, first, 1)
	require.NoError(t, err)

	result, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, m.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, second, result.ReturnedItem.ItemID)
	assert.Equal(t, 0, result.ReturnedItem.RemainingQuantity)
	assert.Equal(t, 10, f.stock(t, m.ID))

	_, err = f.returns.ReturnItem(context.Background(), sale.Order.ID, m.ID, 1)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestReturnOnCancelledOrderKeepsCancelledStatus(t *testing.T) {
	f := newFixture(t)
	m := f.machine(t, "GEN-100", 1000, 5)
	sale := f.sell(t, "0771234567", line(m.ID, 1))
	_, err := f.orders.CancelOrder(context.Background(), sale.Order.ID)
	require.NoError(t, err)

	result, err := f.returns.ReturnItem(context.Background(), sale.Order.ID, m.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCancelled, result.Order.OrderStatus)
	assert.Equal(t, 5, f.stock(t, m.ID))
}
