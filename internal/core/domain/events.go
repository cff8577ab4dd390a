package domain

import "time"

// RoomRepairOrders is the logical room every dashboard client joins to receive
// order change notifications.
const RoomRepairOrders = "repair-orders"

// EventType defines the type of real-time event.
type EventType string

const (
	EventOrderCreated EventType = "order-created"
	EventOrderUpdated EventType = "order-updated"
	EventOrderDeleted EventType = "order-deleted"
)

// Event is the payload sent over WebSocket. Events are transient: they are
// built right after a successful store mutation, broadcast once, and discarded.
type Event struct {
	Type    EventType      `json:"type"`
	OrderNo string         `json:"orderNo"`
	Order   *OrderSnapshot `json:"order,omitempty"`
}

// OrderSnapshot matches the API response shape for repair orders.
type OrderSnapshot struct {
	OrderNo            string `json:"orderNo"`
	Subject            string `json:"subject"`
	DeviceName         string `json:"deviceName"`
	Department         string `json:"department"`
	ReportedBy         string `json:"reportedBy"`
	Status             string `json:"status"`
	Items              string `json:"items,omitempty"`
	RootCause          string `json:"rootCause,omitempty"`
	Action             string `json:"action,omitempty"`
	AssignedTechnician string `json:"assignedTechnician,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CreatedAt          string `json:"createdAt"`
	LastModifiedAt     string `json:"lastModifiedAt"`
}

// NewOrderSnapshot builds a snapshot from a domain order.
func NewOrderSnapshot(order *RepairOrder) *OrderSnapshot {
	return &OrderSnapshot{
		OrderNo:            order.OrderNo,
		Subject:            order.Subject,
		DeviceName:         order.DeviceName,
		Department:         order.Department,
		ReportedBy:         order.ReportedBy,
		Status:             string(order.Status),
		Items:              order.Items,
		RootCause:          order.RootCause,
		Action:             order.Action,
		AssignedTechnician: order.AssignedTechnician,
		Notes:              order.Notes,
		CreatedAt:          order.CreatedAt.UTC().Format(time.RFC3339),
		LastModifiedAt:     order.LastModifiedAt.UTC().Format(time.RFC3339),
	}
}

// NewOrderCreatedEvent builds the event broadcast after a successful create.
func NewOrderCreatedEvent(order *RepairOrder) Event {
	return Event{Type: EventOrderCreated, OrderNo: order.OrderNo, Order: NewOrderSnapshot(order)}
}

// NewOrderUpdatedEvent builds the event broadcast after a successful update.
func NewOrderUpdatedEvent(order *RepairOrder) Event {
	return Event{Type: EventOrderUpdated, OrderNo: order.OrderNo, Order: NewOrderSnapshot(order)}
}

// NewOrderDeletedEvent builds the event broadcast after a successful delete.
// Deletes carry only the order number.
func NewOrderDeletedEvent(orderNo string) Event {
	return Event{Type: EventOrderDeleted, OrderNo: orderNo}
}
