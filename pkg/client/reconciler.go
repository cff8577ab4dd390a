// Package client is a Go client for the repair desk API: a thin REST wrapper,
// a websocket connection with bounded reconnects, and a reconciler that keeps
// a local order collection in sync with pushed change events.
package client

import (
	"sync"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
)

// Reconciler maintains a client-local collection of order snapshots, kept
// current via an initial bulk fetch and incremental relay events. The merge is
// idempotent by order number: applying the same event twice, once from a local
// mutation and once from the relay, leaves the collection unchanged.
type Reconciler struct {
	mu     sync.RWMutex
	orders []*domain.OrderSnapshot
	index  map[string]int
}

// NewReconciler creates an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{
		index: make(map[string]int),
	}
}

// SetOrders replaces the whole collection, typically after a bulk fetch on
// startup or reconnect.
func (r *Reconciler) SetOrders(orders []*domain.OrderSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders = make([]*domain.OrderSnapshot, len(orders))
	r.index = make(map[string]int, len(orders))
	for i, order := range orders {
		copied := *order
		r.orders[i] = &copied
		r.index[order.OrderNo] = i
	}
}

// Apply merges a single relay event into the collection.
//
//   - created: prepend unless already present (the local client may have added
//     it optimistically); an existing entry keeps its position.
//   - updated: replace the matching entry in place; events for unknown orders
//     are dropped, a later refetch fills the gap.
//   - deleted: remove the matching entry; no-op when absent.
//
// Events of any other type are ignored.
func (r *Reconciler) Apply(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case domain.EventOrderCreated:
		if event.Order == nil {
			return
		}
		if _, exists := r.index[event.OrderNo]; exists {
			return
		}
		copied := *event.Order
		r.orders = append([]*domain.OrderSnapshot{&copied}, r.orders...)
		r.reindex()

	case domain.EventOrderUpdated:
		if event.Order == nil {
			return
		}
		pos, exists := r.index[event.OrderNo]
		if !exists {
			return
		}
		copied := *event.Order
		r.orders[pos] = &copied

	case domain.EventOrderDeleted:
		pos, exists := r.index[event.OrderNo]
		if !exists {
			return
		}
		r.orders = append(r.orders[:pos], r.orders[pos+1:]...)
		r.reindex()
	}
}

// reindex rebuilds the order number index. Callers hold the write lock.
func (r *Reconciler) reindex() {
	r.index = make(map[string]int, len(r.orders))
	for i, order := range r.orders {
		r.index[order.OrderNo] = i
	}
}

// Orders returns a copy of the current collection.
func (r *Reconciler) Orders() []*domain.OrderSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.OrderSnapshot, len(r.orders))
	for i, order := range r.orders {
		copied := *order
		out[i] = &copied
	}
	return out
}

// Get returns the snapshot for an order number, if present.
func (r *Reconciler) Get(orderNo string) (*domain.OrderSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.index[orderNo]
	if !exists {
		return nil, false
	}
	copied := *r.orders[pos]
	return &copied, true
}

// Len returns the number of orders in the collection.
func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
