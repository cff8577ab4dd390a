// Package memory provides an in-memory repair order store used when the
// persistent store is unreachable. It backs the demo mode of the service:
// fully functional CRUD, but nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
	apperrors "github.com/novatech/repair-desk-backend/internal/core/errors"
	"github.com/novatech/repair-desk-backend/internal/core/ports"
)

// OrderRepository is a mutex-guarded map keyed by order number.
type OrderRepository struct {
	mu      sync.RWMutex
	orders  map[string]*domain.RepairOrder
	nextSeq int
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository creates an empty in-memory repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:  make(map[string]*domain.RepairOrder),
		nextSeq: 1,
	}
}

// NewSeededOrderRepository creates a repository preloaded with sample orders
// so the demo dashboard has something to show.
func NewSeededOrderRepository() *OrderRepository {
	repo := NewOrderRepository()
	ctx := context.Background()

	seeds := []domain.OrderParams{
		{
			Subject:    "Laptop will not power on",
			DeviceName: "Dell Latitude 5440",
			Department: "Accounting",
			ReportedBy: "Maria Chen",
			Items:      "Charger tested OK, battery swap pending",
		},
		{
			Subject:    "Projector color banding in room 3B",
			DeviceName: "Epson EB-2250U",
			Department: "Training",
			ReportedBy: "David Osei",
		},
		{
			Subject:    "Label printer jams on every second job",
			DeviceName: "Zebra ZD421",
			Department: "Warehouse",
			ReportedBy: "Priya Nair",
			Notes:      "Happens only with the narrow label rolls",
		},
	}

	for _, params := range seeds {
		order, err := domain.NewRepairOrder(params)
		if err != nil {
			// Seeds are hardcoded and valid; a failure here is a bug.
			panic(fmt.Sprintf("invalid seed order: %v", err))
		}
		if _, err := repo.Create(ctx, order); err != nil {
			panic(fmt.Sprintf("failed to seed order: %v", err))
		}
	}

	return repo
}

// clone returns a copy so callers never share the stored struct.
func clone(order *domain.RepairOrder) *domain.RepairOrder {
	copied := *order
	return &copied
}

// Create assigns the next order number and stores the order. Numbers are
// never reused; the counter only moves forward.
func (r *OrderRepository) Create(_ context.Context, order *domain.RepairOrder) (*domain.RepairOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := clone(order)
	stored.OrderNo = fmt.Sprintf("RO-%d-%04d", time.Now().UTC().Year(), r.nextSeq)
	r.nextSeq++

	r.orders[stored.OrderNo] = stored
	return clone(stored), nil
}

// GetByOrderNo retrieves a single order by its number.
func (r *OrderRepository) GetByOrderNo(_ context.Context, orderNo string) (*domain.RepairOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[orderNo]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	return clone(order), nil
}

// Update replaces the stored order with the given state.
func (r *OrderRepository) Update(_ context.Context, order *domain.RepairOrder) (*domain.RepairOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.OrderNo]; !ok {
		return nil, apperrors.ErrOrderNotFound
	}

	stored := clone(order)
	r.orders[order.OrderNo] = stored
	return clone(stored), nil
}

// Delete removes the order. The burned order number is not handed out again.
func (r *OrderRepository) Delete(_ context.Context, orderNo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[orderNo]; !ok {
		return apperrors.ErrOrderNotFound
	}
	delete(r.orders, orderNo)
	return nil
}

// List returns orders newest first with the same filter semantics as the
// postgres adapter: nil pointers match everything, search is a case
// insensitive substring match over order number, subject, device and reporter.
func (r *OrderRepository) List(_ context.Context, params ports.ListOrdersRepoParams) ([]*domain.RepairOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.RepairOrder, 0, len(r.orders))
	for _, order := range r.orders {
		if params.Status != nil && string(order.Status) != *params.Status {
			continue
		}
		if params.Department != nil && order.Department != *params.Department {
			continue
		}
		if params.Search != nil && !matchesSearch(order, *params.Search) {
			continue
		}
		matched = append(matched, clone(order))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].OrderNo > matched[j].OrderNo
	})

	offset := int(params.Offset)
	if offset >= len(matched) {
		return []*domain.RepairOrder{}, nil
	}
	matched = matched[offset:]

	limit := int(params.Limit)
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, nil
}

func matchesSearch(order *domain.RepairOrder, search string) bool {
	needle := strings.ToLower(search)
	for _, haystack := range []string{order.OrderNo, order.Subject, order.DeviceName, order.ReportedBy} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}
