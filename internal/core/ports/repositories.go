package ports

import (
	"context"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
)

// ListOrdersRepoParams narrows and pages a repository list query.
type ListOrdersRepoParams struct {
	Status     *string
	Department *string
	Search     *string
	Limit      int32
	Offset     int32
}

// OrderRepository is the persistence port for repair orders. Create assigns
// the order number; numbers are never reused, even after a delete.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.RepairOrder) (*domain.RepairOrder, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*domain.RepairOrder, error)
	Update(ctx context.Context, order *domain.RepairOrder) (*domain.RepairOrder, error)
	Delete(ctx context.Context, orderNo string) error
	List(ctx context.Context, params ListOrdersRepoParams) ([]*domain.RepairOrder, error)
}

// UserRepository is the persistence port for staff accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
