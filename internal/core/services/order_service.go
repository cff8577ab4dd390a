package services

import (
	"context"
	"sync"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
	apperrors "github.com/novatech/repair-desk-backend/internal/core/errors"
	"github.com/novatech/repair-desk-backend/internal/core/ports"
)

// OrderService implements business logic for repair order management.
type OrderService struct {
	orderRepo   ports.OrderRepository
	broadcaster ports.EventBroadcaster
	wg          sync.WaitGroup
}

var _ ports.OrderService = (*OrderService)(nil)

// NewOrderService creates a new order service.
func NewOrderService(orderRepo ports.OrderRepository, broadcaster ports.EventBroadcaster) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		broadcaster: broadcaster,
	}
}

// CreateOrder handles the use case for submitting a new repair order.
func (s *OrderService) CreateOrder(ctx context.Context, params ports.CreateOrderParams) (*domain.RepairOrder, error) {
	order, err := domain.NewRepairOrder(domain.OrderParams{
		Subject:    params.Subject,
		DeviceName: params.DeviceName,
		Department: params.Department,
		ReportedBy: params.ReportedBy,
		Items:      params.Items,
		Notes:      params.Notes,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	// Emitted only after the store mutation committed. Delivery is best effort
	// and independent of the mutation result.
	s.emit(domain.NewOrderCreatedEvent(created))

	return created, nil
}

// GetOrder retrieves a single repair order by its order number.
func (s *OrderService) GetOrder(ctx context.Context, orderNo string) (*domain.RepairOrder, error) {
	if orderNo == "" {
		return nil, apperrors.ErrOrderNoRequired
	}
	return s.orderRepo.GetByOrderNo(ctx, orderNo)
}

// UpdateOrder applies a partial update to an existing repair order.
func (s *OrderService) UpdateOrder(ctx context.Context, params ports.UpdateOrderParams) (*domain.RepairOrder, error) {
	if params.OrderNo == "" {
		return nil, apperrors.ErrOrderNoRequired
	}

	order, err := s.orderRepo.GetByOrderNo(ctx, params.OrderNo)
	if err != nil {
		return nil, err
	}

	if err := order.Apply(params.Fields); err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.Update(ctx, order)
	if err != nil {
		return nil, err
	}

	s.emit(domain.NewOrderUpdatedEvent(updated))

	return updated, nil
}

// DeleteOrder removes a repair order. The order number is never reused.
func (s *OrderService) DeleteOrder(ctx context.Context, orderNo string) error {
	if orderNo == "" {
		return apperrors.ErrOrderNoRequired
	}

	if err := s.orderRepo.Delete(ctx, orderNo); err != nil {
		return err
	}

	s.emit(domain.NewOrderDeletedEvent(orderNo))

	return nil
}

// ListOrders retrieves repair orders with optional filters and pagination.
func (s *OrderService) ListOrders(ctx context.Context, params ports.ListOrdersParams) ([]*domain.RepairOrder, error) {
	return s.orderRepo.List(ctx, ports.ListOrdersRepoParams{
		Status:     params.Status,
		Department: params.Department,
		Search:     params.Search,
		Limit:      int32(params.Limit),
		Offset:     int32(params.Offset),
	})
}

// emit broadcasts a relay event in the background. A broadcast failure never
// rolls back or fails the store mutation that produced the event.
func (s *OrderService) emit(event domain.Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.broadcaster.Broadcast(event)
	}()
}

// Shutdown waits for in-flight event emissions to finish.
func (s *OrderService) Shutdown() {
	s.wg.Wait()
}
