package ports

import (
	"context"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
)

// CreateOrderParams defines the required input for creating a repair order.
type CreateOrderParams struct {
	Subject    string
	DeviceName string
	Department string
	ReportedBy string
	Items      string
	Notes      string
}

// UpdateOrderParams defines the input for a partial update of a repair order.
type UpdateOrderParams struct {
	OrderNo string
	Fields  domain.OrderUpdate
}

// ListOrdersParams defines the input for listing repair orders.
type ListOrdersParams struct {
	Status     *string
	Department *string
	Search     *string
	Limit      int
	Offset     int
}

// OrderService defines the core business operations for managing repair orders.
type OrderService interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*domain.RepairOrder, error)
	GetOrder(ctx context.Context, orderNo string) (*domain.RepairOrder, error)
	UpdateOrder(ctx context.Context, params UpdateOrderParams) (*domain.RepairOrder, error)
	DeleteOrder(ctx context.Context, orderNo string) error
	ListOrders(ctx context.Context, params ListOrdersParams) ([]*domain.RepairOrder, error)
	Shutdown()
}

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// EventBroadcaster is the producer-side port of the event relay. Broadcast is
// best effort: delivery failures stay inside the relay and are never returned
// to the caller beyond enqueueing problems.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
