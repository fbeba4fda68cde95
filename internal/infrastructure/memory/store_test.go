package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/enum"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/apperror"
	"github.com/machinetrade/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMachine(t *testing.T, repos domainRepo.Repositories, code string, qty int) *entity.Machine {
	t.Helper()
	m := &entity.Machine{
		Code:     code,
		Name:     "Machine " + code,
		Category: enum.CategoryGenerator,
		Price:    decimal.NewFromInt(1000),
		Quantity: qty,
	}
	require.NoError(t, repos.Machines.Create(context.Background(), m))
	return m
}

func TestTransactorRollsBackEveryWrite(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	m := seedMachine(t, repos, "GEN-1", 5)

	boom := errors.New("boom")
	err := repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := repos.Machines.DecrementStock(ctx, m.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, repos.Customers.Create(ctx, &entity.Customer{Name: "Kamal", Phone: "0771234567"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Machines.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	n, err := repos.Customers.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTransactorCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	m := seedMachine(t, repos, "GEN-1", 5)

	err := repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := repos.Machines.DecrementStock(ctx, m.ID, 2)
		return err
	})
	require.NoError(t, err)

	got, _ := repos.Machines.GetByID(ctx, m.ID)
	assert.Equal(t, 3, got.Quantity)
}

func TestDecrementStockNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	m := seedMachine(t, repos, "GEN-1", 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repos.Machines.DecrementStock(ctx, m.ID, 1)
			if err == nil && ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, _ := repos.Machines.GetByID(ctx, m.ID)
	assert.Equal(t, 10, succeeded)
	assert.Zero(t, got.Quantity)
}

func TestIncrementStockMissingMachine(t *testing.T) {
	repos := NewStore().Repositories()
	m, err := repos.Machines.IncrementStock(context.Background(), uuid.New(), 1)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMachineCodeIsUnique(t *testing.T) {
	repos := NewStore().Repositories()
	seedMachine(t, repos, "gen-1", 1)

	err := repos.Machines.Create(context.Background(), &entity.Machine{Code: " GEN-1 ", Name: "dup", Category: enum.CategoryPump})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestOrderUpdateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	order := &entity.Order{OrderCode: "ORD-1", Items: []entity.OrderItem{{Quantity: 1}}}
	require.NoError(t, repos.Orders.Create(ctx, order))

	first, _ := repos.Orders.GetByID(ctx, order.ID)
	second, _ := repos.Orders.GetByID(ctx, order.ID)

	first.Notes = ptr("first")
	require.NoError(t, repos.Orders.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Notes = ptr("second")
	assert.ErrorIs(t, repos.Orders.Update(ctx, second), apperror.ErrStaleOrder)
}

func TestOrderReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	order := &entity.Order{OrderCode: "ORD-1", Items: []entity.OrderItem{{Quantity: 1}}}
	require.NoError(t, repos.Orders.Create(ctx, order))

	got, _ := repos.Orders.GetByID(ctx, order.ID)
	got.Items[0].Quantity = 99

	again, _ := repos.Orders.GetByID(ctx, order.ID)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestOrderCursorPaging(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		o := &entity.Order{OrderCode: "ORD-" + string(rune('A'+i))}
		require.NoError(t, repos.Orders.Create(ctx, o))
		stored := store.orders[o.ID]
		stored.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		store.orders[o.ID] = stored
	}

	params := &domainRepo.OrderCursorFilterParams{Cursor: &pagination.CursorParams{Limit: 2}}
	page1, err := repos.Orders.ListWithCursor(ctx, params)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	assert.Equal(t, "ORD-E", page1[0].OrderCode)
	assert.Equal(t, "ORD-D", page1[1].OrderCode)

	cursor := pagination.EncodeCursor(page1[1].ID.String(), page1[1].CreatedAt)
	params = &domainRepo.OrderCursorFilterParams{Cursor: &pagination.CursorParams{Cursor: cursor, Limit: 2}}
	page2, err := repos.Orders.ListWithCursor(ctx, params)
	require.NoError(t, err)
	require.Len(t, page2, 3)
	assert.Equal(t, "ORD-C", page2[0].OrderCode)
	assert.Equal(t, "ORD-B", page2[1].OrderCode)
}

func TestIdempotencyReservation(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repositories().Idempotency

	key := &entity.IdempotencyKey{Key: "k1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, key))

	dup := &entity.IdempotencyKey{Key: "k1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(repo.Create(ctx, dup)))

	other := &entity.IdempotencyKey{Key: "k1", UserID: "u2", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, other))

	got, err := repo.GetByKey(ctx, "k1", "u1")
	require.NoError(t, err)
	assert.True(t, got.IsPending())

	require.NoError(t, repo.Complete(ctx, "k1", "u1", 201, `{"ok":true}`))
	got, _ = repo.GetByKey(ctx, "k1", "u1")
	assert.Equal(t, 201, got.ResponseCode)

	require.NoError(t, repo.Delete(ctx, "k1", "u1"))
	got, _ = repo.GetByKey(ctx, "k1", "u1")
	assert.Nil(t, got)
}

func TestIdempotencyExpiredKeyIsReplaced(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repositories().Idempotency

	require.NoError(t, repo.Create(ctx, &entity.IdempotencyKey{Key: "k1", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)}))

	got, err := repo.GetByKey(ctx, "k1", "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Create(ctx, &entity.IdempotencyKey{Key: "k1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func ptr[T any](v T) *T {
	return &v
}
