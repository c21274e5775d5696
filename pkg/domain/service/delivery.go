package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// DeliveryService is the delivery agent's view of assigned orders.
// The only mutation it offers is the forward-only advance through
// DISPATCHED and DELIVERED.
type DeliveryService interface {
	Orders() []model.Order
	Refresh(ctx context.Context) error
	Advance(ctx context.Context, id uuid.UUID, target model.OrderStatus) (*model.Order, error)
}

func NewDeliveryService(gw DeliveryGateway, dispatcher EventDispatcher) DeliveryService {
	return &deliveryService{gw: gw, dispatcher: dispatcher}
}

type deliveryService struct {
	gw         DeliveryGateway
	dispatcher EventDispatcher

	mu    sync.Mutex
	cache []model.Order
}

func (s *deliveryService) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]model.Order, len(s.cache))
	copy(snapshot, s.cache)
	return snapshot
}

func (s *deliveryService) Refresh(ctx context.Context) error {
	orders, err := s.gw.ViewOrders(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = orders
	s.mu.Unlock()

	_ = s.dispatcher.Dispatch(model.CacheRefreshed{Role: model.RoleDeliveryAgent.String(), Entries: len(orders)})
	return nil
}

func (s *deliveryService) Advance(ctx context.Context, id uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	if target != model.OrderDispatched && target != model.OrderDelivered {
		return nil, model.ErrValidation
	}

	s.mu.Lock()
	var current *model.Order
	for i := range s.cache {
		if s.cache[i].ID == id {
			current = &s.cache[i]
			break
		}
	}
	if current == nil {
		s.mu.Unlock()
		return nil, model.ErrOrderNotFound
	}
	if !current.Status.CanAdvanceTo(target) {
		s.mu.Unlock()
		return nil, model.ErrInvalidTransition
	}
	if target == model.OrderDispatched && !current.CanDispatch() {
		s.mu.Unlock()
		return nil, model.ErrInvalidTransition
	}
	s.mu.Unlock()

	// The backend stamps dispatchedAt/deliveredAt and returns the
	// updated entity; only that one cache entry gets patched.
	order, err := s.gw.ChangeOrderStatus(ctx, id, target)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var previous model.OrderStatus
	for i := range s.cache {
		if s.cache[i].ID == id {
			previous = s.cache[i].Status
			s.cache[i] = order
			break
		}
	}
	s.mu.Unlock()

	_ = s.dispatcher.Dispatch(model.OrderStatusChanged{
		OrderID:   id,
		OldStatus: previous,
		NewStatus: order.Status,
	})
	return &order, nil
}
