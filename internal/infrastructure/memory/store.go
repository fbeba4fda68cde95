// Package memory implements every repository on a single in-process store.
// It backs the service and handler tests and STORAGE_DRIVER=memory runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	domainRepo "github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/pkg/pagination"
)

// Store holds all records behind one RWMutex. Repositories return copies,
// never pointers into the maps.
type Store struct {
	mu          sync.RWMutex
	machines    map[uuid.UUID]entity.Machine
	customers   map[uuid.UUID]entity.Customer
	orders      map[uuid.UUID]entity.Order
	idempotency map[string]entity.IdempotencyKey
}

func NewStore() *Store {
	return &Store{
		machines:    make(map[uuid.UUID]entity.Machine),
		customers:   make(map[uuid.UUID]entity.Customer),
		orders:      make(map[uuid.UUID]entity.Order),
		idempotency: make(map[string]entity.IdempotencyKey),
	}
}

// Repositories returns every repository backed by s
func (s *Store) Repositories() domainRepo.Repositories {
	return domainRepo.Repositories{
		Transactor:  NewTransactor(s),
		Machines:    NewMachineRepository(s),
		Customers:   NewCustomerRepository(s),
		Orders:      NewOrderRepository(s),
		Idempotency: NewIdempotencyRepository(s),
		Reports:     NewReportRepository(s),
	}
}

// transaction-aware locking: inside WithinTransaction the write lock is
// already held, so repository calls must not take it again.
type txKey struct{}

func inTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (s *Store) rlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.RLock()
	}
}

func (s *Store) runlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.RUnlock()
	}
}

func (s *Store) wlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Unlock()
	}
}

type snapshot struct {
	machines    map[uuid.UUID]entity.Machine
	customers   map[uuid.UUID]entity.Customer
	orders      map[uuid.UUID]entity.Order
	idempotency map[string]entity.IdempotencyKey
}

// snapshot copies every map; caller holds the write lock
func (s *Store) snapshot() snapshot {
	snap := snapshot{
		machines:    make(map[uuid.UUID]entity.Machine, len(s.machines)),
		customers:   make(map[uuid.UUID]entity.Customer, len(s.customers)),
		orders:      make(map[uuid.UUID]entity.Order, len(s.orders)),
		idempotency: make(map[string]entity.IdempotencyKey, len(s.idempotency)),
	}
	for k, v := range s.machines {
		snap.machines[k] = v
	}
	for k, v := range s.customers {
		snap.customers[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range s.idempotency {
		snap.idempotency[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.machines = snap.machines
	s.customers = snap.customers
	s.orders = snap.orders
	s.idempotency = snap.idempotency
}

func cloneOrder(o entity.Order) entity.Order {
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	o.Extras = append([]entity.OrderExtra(nil), o.Extras...)
	return o
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesAny(term string, fields ...string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	for _, f := range fields {
		if containsFold(f, term) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// page applies offset pagination to an already sorted slice
func page[T any](items []T, params *pagination.PaginationParams) []T {
	params.Validate()
	start := params.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + params.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// sortItems orders items by less, reversed when desc is set
func sortItems[T any](items []T, less func(a, b T) bool, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
