package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
)

func snapshot(orderNo, subject string) *domain.OrderSnapshot {
	return &domain.OrderSnapshot{
		OrderNo: orderNo,
		Subject: subject,
		Status:  "pending",
	}
}

func createdEvent(orderNo, subject string) domain.Event {
	return domain.Event{
		Type:    domain.EventOrderCreated,
		OrderNo: orderNo,
		Order:   snapshot(orderNo, subject),
	}
}

func TestReconciler_CreatedPrepends(t *testing.T) {
	r := NewReconciler()
	r.SetOrders([]*domain.OrderSnapshot{snapshot("RO-2026-0001", "First")})

	r.Apply(createdEvent("RO-2026-0002", "Second"))

	orders := r.Orders()
	assert.Len(t, orders, 2)
	assert.Equal(t, "RO-2026-0002", orders[0].OrderNo)
	assert.Equal(t, "RO-2026-0001", orders[1].OrderNo)
}

func TestReconciler_CreatedIsIdempotent(t *testing.T) {
	r := NewReconciler()

	// Optimistic local insert followed by the relay's copy of the same event.
	r.Apply(createdEvent("RO-2026-0001", "Local copy"))
	r.Apply(createdEvent("RO-2026-0001", "Relay copy"))

	orders := r.Orders()
	assert.Len(t, orders, 1)
	// The existing entry keeps its content and position.
	assert.Equal(t, "Local copy", orders[0].Subject)
}

func TestReconciler_CreatedKeepsExistingPosition(t *testing.T) {
	r := NewReconciler()
	r.SetOrders([]*domain.OrderSnapshot{
		snapshot("RO-2026-0002", "Second"),
		snapshot("RO-2026-0001", "First"),
	})

	r.Apply(createdEvent("RO-2026-0001", "First again"))

	orders := r.Orders()
	assert.Len(t, orders, 2)
	assert.Equal(t, "RO-2026-0001", orders[1].OrderNo)
}

func TestReconciler_UpdatedReplaces(t *testing.T) {
	r := NewReconciler()
	r.SetOrders([]*domain.OrderSnapshot{snapshot("RO-2026-0001", "Before")})

	updated := snapshot("RO-2026-0001", "After")
	updated.Status = "in-progress"
	r.Apply(domain.Event{
		Type:    domain.EventOrderUpdated,
		OrderNo: "RO-2026-0001",
		Order:   updated,
	})

	got, ok := r.Get("RO-2026-0001")
	assert.True(t, ok)
	assert.Equal(t, "After", got.Subject)
	assert.Equal(t, "in-progress", got.Status)
	assert.Equal(t, 1, r.Len())
}

func TestReconciler_UpdatedForUnknownOrderIsDropped(t *testing.T) {
	r := NewReconciler()
	r.SetOrders([]*domain.OrderSnapshot{snapshot("RO-2026-0001", "Known")})

	// The client missed the created event for this order; no gap-fill.
	r.Apply(domain.Event{
		Type:    domain.EventOrderUpdated,
		OrderNo: "RO-2026-0099",
		Order:   snapshot("RO-2026-0099", "Never seen"),
	})

	assert.Equal(t, 1, r.Len())
	_, ok := r.Get("RO-2026-0099")
	assert.False(t, ok)
}

func TestReconciler_DeletedRemoves(t *testing.T) {
	r := NewReconciler()
	r.SetOrders([]*domain.OrderSnapshot{
		snapshot("RO-2026-0001", "Keep"),
		snapshot("RO-2026-0002", "Remove"),
		snapshot("RO-2026-0003", "Keep too"),
	})

	r.Apply(domain.Event{Type: domain.EventOrderDeleted, OrderNo: "RO-2026-0002"})

	orders := r.Orders()
	assert.Len(t, orders, 2)
	assert.Equal(t, "RO-2026-0001", orders[0].OrderNo)
	assert.Equal(t, "RO-2026-0003", orders[1].OrderNo)

	// Deleting again is a no-op.
	r.Apply(domain.Event{Type: domain.EventOrderDeleted, OrderNo: "RO-2026-0002"})
	assert.Equal(t, 2, r.Len())
}

func TestReconciler_UnknownEventTypeIgnored(t *testing.T) {
	r := NewReconciler()
	r.SetOrders([]*domain.OrderSnapshot{snapshot("RO-2026-0001", "Only")})

	r.Apply(domain.Event{Type: "PONG"})

	assert.Equal(t, 1, r.Len())
}

func TestReconciler_SetOrdersReplacesEverything(t *testing.T) {
	r := NewReconciler()
	r.Apply(createdEvent("RO-2026-0001", "Old"))

	r.SetOrders([]*domain.OrderSnapshot{
		snapshot("RO-2026-0005", "Fresh"),
	})

	orders := r.Orders()
	assert.Len(t, orders, 1)
	assert.Equal(t, "RO-2026-0005", orders[0].OrderNo)
}

func TestReconciler_OrdersReturnsCopies(t *testing.T) {
	r := NewReconciler()
	r.SetOrders([]*domain.OrderSnapshot{snapshot("RO-2026-0001", "Original")})

	r.Orders()[0].Subject = "Mutated"

	got, ok := r.Get("RO-2026-0001")
	assert.True(t, ok)
	assert.Equal(t, "Original", got.Subject)
}
