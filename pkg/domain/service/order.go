package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// OrderService holds one dashboard's view of Order entities and, for
// the distributor, mints orders out of accepted requests. The
// interface carries an unexported markPaid so that the Payment Gate is
// the only possible trigger for the PENDING to PAID transition.
type OrderService interface {
	Orders() []model.Order
	Order(id uuid.UUID) (*model.Order, error)
	Refresh(ctx context.Context) error
	Generate(ctx context.Context, requestID uuid.UUID, deliveryAgent string) (*model.Order, error)
	ListAgents(ctx context.Context) ([]model.DeliveryAgent, error)

	markPaid(id uuid.UUID, at time.Time) (*model.Order, error)
}

func NewOrderService(role model.Role, gw OrderGateway, dispatcher EventDispatcher) OrderService {
	return &orderService{role: role, gw: gw, dispatcher: dispatcher}
}

type orderService struct {
	role       model.Role
	gw         OrderGateway
	dispatcher EventDispatcher

	mu    sync.Mutex
	cache []model.Order
}

func (s *orderService) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]model.Order, len(s.cache))
	copy(snapshot, s.cache)
	return snapshot
}

func (s *orderService) Order(id uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			order := s.cache[i]
			return &order, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (s *orderService) Refresh(ctx context.Context) error {
	orders, err := s.gw.ViewOrders(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = orders
	s.mu.Unlock()

	_ = s.dispatcher.Dispatch(model.CacheRefreshed{Role: s.role.String(), Entries: len(orders)})
	return nil
}

func (s *orderService) Generate(ctx context.Context, requestID uuid.UUID, deliveryAgent string) (*model.Order, error) {
	if s.role != model.RoleDistributor {
		return nil, model.ErrRoleNotAllowed
	}
	if deliveryAgent == "" {
		return nil, model.ErrValidation
	}

	// The backend enforces that the request is ACCEPTED and not yet
	// ordered; a duplicate generation (rapid double submit) comes back
	// as ErrConflict and must stay an ordinary rejected action.
	order, err := s.gw.GenerateOrder(ctx, requestID, deliveryAgent)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache = append(s.cache, order)
	s.mu.Unlock()

	_ = s.dispatcher.Dispatch(model.OrderGenerated{
		OrderID:       order.ID,
		RequestID:     requestID,
		DeliveryAgent: deliveryAgent,
	})
	return &order, nil
}

// ListAgents fetches the assignment picker's reference data. Failure
// is non-fatal to the store: the caller gets an empty list plus the
// error and may simply retry.
func (s *orderService) ListAgents(ctx context.Context) ([]model.DeliveryAgent, error) {
	agents, err := s.gw.Agents(ctx)
	if err != nil {
		return []model.DeliveryAgent{}, err
	}
	return agents, nil
}

func (s *orderService) markPaid(id uuid.UUID, at time.Time) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cache {
		if s.cache[i].ID != id {
			continue
		}
		if !s.cache[i].Status.CanAdvanceTo(model.OrderPaid) {
			return nil, model.ErrInvalidTransition
		}
		paidAt := at
		s.cache[i].Status = model.OrderPaid
		s.cache[i].PaymentTimestamp = &paidAt
		order := s.cache[i]
		return &order, nil
	}
	return nil, model.ErrOrderNotFound
}
