package tests

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"procurement/pkg/domain/model"
	"procurement/pkg/domain/service"
)

// --- Shared mocks ---
//
// The gateway mocks behave like the backend: they enforce the same
// preconditions server-side so that the client/server double-check
// discipline is what the tests actually exercise.

type mockEventDispatcher struct {
	events []service.Event
}

func (m *mockEventDispatcher) Dispatch(event service.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Reset() {
	m.events = nil
}

type mockRequestGateway struct {
	store    map[uuid.UUID]model.Request
	listErr  error
	callsLog []string
}

func newMockRequestGateway() *mockRequestGateway {
	return &mockRequestGateway{store: make(map[uuid.UUID]model.Request)}
}

func (m *mockRequestGateway) ViewRequests(context.Context) ([]model.Request, error) {
	m.callsLog = append(m.callsLog, "view")
	if m.listErr != nil {
		return nil, m.listErr
	}
	requests := make([]model.Request, 0, len(m.store))
	for _, request := range m.store {
		requests = append(requests, request)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.Before(requests[j].CreatedAt) })
	return requests, nil
}

func (m *mockRequestGateway) GenerateRequest(_ context.Context, productID, distributorID uuid.UUID, quantity int, priceCents int64) (model.Request, error) {
	request := model.Request{
		ID:          uuid.New(),
		Retailer:    model.UserRef{ID: uuid.New(), Username: "retailer1"},
		Distributor: model.UserRef{ID: distributorID, Username: "distributor1"},
		Product:     model.ProductRef{ID: productID, Name: "Basmati Rice 5kg", Category: "Grocery", PriceCents: 1250},
		Quantity:    quantity,
		PriceCents:  priceCents,
		Status:      model.RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	m.store[request.ID] = request
	return request, nil
}

func (m *mockRequestGateway) ChangeRequestStatus(_ context.Context, id uuid.UUID, status model.RequestStatus) (model.Request, error) {
	request, ok := m.store[id]
	if !ok {
		return model.Request{}, model.ErrRequestNotFound
	}
	if !request.Status.CanTransitionTo(status) {
		return model.Request{}, errors.WithMessage(model.ErrInvalidTransition, "request is not PENDING")
	}
	request.Status = status
	m.store[id] = request
	return request, nil
}

func (m *mockRequestGateway) DeleteRequest(_ context.Context, id uuid.UUID) error {
	request, ok := m.store[id]
	if !ok {
		return model.ErrRequestNotFound
	}
	if request.Status == model.RequestAccepted {
		return errors.WithMessage(model.ErrConflict, "request already converted to an order")
	}
	delete(m.store, id)
	return nil
}

// seed places a request directly into the fake backend, as if another
// dashboard had created it.
func (m *mockRequestGateway) seed(status model.RequestStatus) model.Request {
	request := model.Request{
		ID:          uuid.New(),
		Retailer:    model.UserRef{ID: uuid.New(), Username: "retailer1"},
		Distributor: model.UserRef{ID: uuid.New(), Username: "distributor1"},
		Product:     model.ProductRef{ID: uuid.New(), Name: "Sunflower Oil 1L", Category: "Grocery", PriceCents: 480},
		Quantity:    5,
		PriceCents:  2400,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	m.store[request.ID] = request
	return request
}

type mockOrderGateway struct {
	requests  map[uuid.UUID]model.Request
	store     map[uuid.UUID]model.Order
	agents    []model.DeliveryAgent
	agentsErr error
	seq       int
}

func newMockOrderGateway() *mockOrderGateway {
	return &mockOrderGateway{
		requests: make(map[uuid.UUID]model.Request),
		store:    make(map[uuid.UUID]model.Order),
		agents: []model.DeliveryAgent{
			{ID: uuid.New(), Username: "agent007", Email: "agent007@example.com"},
		},
		seq: 1000,
	}
}

func (m *mockOrderGateway) ViewOrders(context.Context) ([]model.Order, error) {
	orders := make([]model.Order, 0, len(m.store))
	for _, order := range m.store {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Number < orders[j].Number })
	return orders, nil
}

func (m *mockOrderGateway) GenerateOrder(_ context.Context, requestID uuid.UUID, deliveryAgent string) (model.Order, error) {
	request, ok := m.requests[requestID]
	if !ok {
		return model.Order{}, model.ErrRequestNotFound
	}
	if request.Status != model.RequestAccepted {
		return model.Order{}, errors.WithMessage(model.ErrInvalidTransition, "request is not ACCEPTED")
	}
	for _, order := range m.store {
		if order.RequestID == requestID {
			return model.Order{}, errors.WithMessage(model.ErrConflict, "order already generated for this request")
		}
	}

	m.seq++
	order := model.Order{
		ID:            uuid.New(),
		Number:        orderNumber(m.seq),
		RequestID:     requestID,
		Retailer:      request.Retailer,
		Distributor:   request.Distributor,
		Product:       request.Product,
		Quantity:      request.Quantity,
		PriceCents:    request.PriceCents,
		DeliveryAgent: &model.AgentRef{ID: uuid.New(), Username: deliveryAgent},
		Status:        model.OrderPending,
		CreatedAt:     time.Now().UTC(),
	}
	m.store[order.ID] = order
	return order, nil
}

func (m *mockOrderGateway) Agents(context.Context) ([]model.DeliveryAgent, error) {
	if m.agentsErr != nil {
		return nil, m.agentsErr
	}
	return m.agents, nil
}

func orderNumber(seq int) string {
	return fmt.Sprintf("ORD-%d", seq)
}

type mockDeliveryGateway struct {
	store map[uuid.UUID]model.Order
	calls int
}

func newMockDeliveryGateway() *mockDeliveryGateway {
	return &mockDeliveryGateway{store: make(map[uuid.UUID]model.Order)}
}

func (m *mockDeliveryGateway) ViewOrders(context.Context) ([]model.Order, error) {
	orders := make([]model.Order, 0, len(m.store))
	for _, order := range m.store {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Number < orders[j].Number })
	return orders, nil
}

func (m *mockDeliveryGateway) ChangeOrderStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) (model.Order, error) {
	m.calls++
	order, ok := m.store[id]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	if !order.Status.CanAdvanceTo(status) {
		return model.Order{}, errors.WithMessage(model.ErrInvalidTransition, "non-adjacent transition")
	}

	now := time.Now().UTC()
	order.Status = status
	if status == model.OrderDispatched {
		order.DispatchedAt = &now
	} else {
		order.DeliveredAt = &now
	}
	m.store[id] = order
	return order, nil
}

// seedOrder places an order into the fake backend in the given state.
func (m *mockDeliveryGateway) seedOrder(status model.OrderStatus, withAgent bool) model.Order {
	order := baseOrder(status, withAgent)
	m.store[order.ID] = order
	return order
}

func baseOrder(status model.OrderStatus, withAgent bool) model.Order {
	order := model.Order{
		ID:         uuid.New(),
		Number:     "ORD-" + uuid.NewString()[:8],
		RequestID:  uuid.New(),
		Retailer:   model.UserRef{ID: uuid.New(), Username: "retailer1"},
		Quantity:   5,
		PriceCents: 2400,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	if withAgent {
		order.DeliveryAgent = &model.AgentRef{ID: uuid.New(), Username: "agent007"}
	}
	if status >= model.OrderPaid {
		paidAt := time.Now().UTC().Add(-2 * time.Minute)
		order.PaymentTimestamp = &paidAt
	}
	if status >= model.OrderDispatched {
		dispatchedAt := time.Now().UTC().Add(-time.Minute)
		order.DispatchedAt = &dispatchedAt
	}
	return order
}

type mockPaymentInitiator struct {
	err   error
	calls int
}

func (m *mockPaymentInitiator) InitiatePayment(_ context.Context, orderID uuid.UUID, amountCents int64, currency string) (model.PaymentIntent, error) {
	m.calls++
	if m.err != nil {
		return model.PaymentIntent{}, m.err
	}
	return model.PaymentIntent{
		ID:           "pi_" + uuid.NewString()[:8],
		ClientSecret: "cs_" + uuid.NewString()[:8],
		OrderID:      orderID,
		AmountCents:  amountCents,
		Currency:     currency,
	}, nil
}

type mockCardProcessor struct {
	declineWith string
	calls       int
}

func (m *mockCardProcessor) Confirm(context.Context, string, model.CardDetails) error {
	m.calls++
	if m.declineWith != "" {
		return errors.WithMessage(model.ErrPaymentDeclined, m.declineWith)
	}
	return nil
}
