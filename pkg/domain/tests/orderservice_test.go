package tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/pkg/domain/model"
	"procurement/pkg/domain/service"
)

// --- Setup ---

func setupOrderTest(t *testing.T, role model.Role) (service.OrderService, *mockOrderGateway, *mockEventDispatcher) {
	t.Helper()
	gw := newMockOrderGateway()
	dispatcher := &mockEventDispatcher{}
	svc := service.NewOrderService(role, gw, dispatcher)
	return svc, gw, dispatcher
}

func acceptedRequest(gw *mockOrderGateway) model.Request {
	request := model.Request{
		ID:          uuid.New(),
		Retailer:    model.UserRef{ID: uuid.New(), Username: "retailer1"},
		Distributor: model.UserRef{ID: uuid.New(), Username: "distributor1"},
		Product:     model.ProductRef{ID: uuid.New(), Name: "Basmati Rice 5kg", PriceCents: 1250},
		Quantity:    5,
		PriceCents:  6250,
		Status:      model.RequestAccepted,
	}
	gw.requests[request.ID] = request
	return request
}

// --- Tests ---

func TestGenerateOrder_FromAcceptedRequest(t *testing.T) {
	svc, gw, dispatcher := setupOrderTest(t, model.RoleDistributor)
	request := acceptedRequest(gw)

	order, err := svc.Generate(context.Background(), request.ID, "agent007")

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, request.ID, order.RequestID)
	require.NotNil(t, order.DeliveryAgent)
	assert.Equal(t, "agent007", order.DeliveryAgent.Username)
	assert.NotEmpty(t, order.Number)

	// Payment and delivery milestones start unset.
	assert.Nil(t, order.PaymentTimestamp)
	assert.Nil(t, order.DispatchedAt)
	assert.Nil(t, order.DeliveredAt)

	cached := svc.Orders()
	require.Len(t, cached, 1)
	assert.Equal(t, order.ID, cached[0].ID)

	require.Len(t, dispatcher.events, 1)
	event, ok := dispatcher.events[0].(model.OrderGenerated)
	require.True(t, ok)
	assert.Equal(t, "agent007", event.DeliveryAgent)
}

func TestGenerateOrder_DuplicateIsConflict(t *testing.T) {
	svc, gw, _ := setupOrderTest(t, model.RoleDistributor)
	request := acceptedRequest(gw)

	_, err := svc.Generate(context.Background(), request.ID, "agent007")
	require.NoError(t, err)

	// Rapid double submit: the backend rejects the loser and the
	// client treats it as an ordinary retryable conflict.
	_, err = svc.Generate(context.Background(), request.ID, "agent007")
	assert.ErrorIs(t, err, model.ErrConflict)

	assert.Len(t, svc.Orders(), 1)
}

func TestGenerateOrder_RequestNotAccepted(t *testing.T) {
	svc, gw, _ := setupOrderTest(t, model.RoleDistributor)
	request := model.Request{ID: uuid.New(), Status: model.RequestPending}
	gw.requests[request.ID] = request

	_, err := svc.Generate(context.Background(), request.ID, "agent007")

	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Empty(t, svc.Orders())
}

func TestGenerateOrder_MissingAgent(t *testing.T) {
	svc, gw, _ := setupOrderTest(t, model.RoleDistributor)
	request := acceptedRequest(gw)

	_, err := svc.Generate(context.Background(), request.ID, "")

	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGenerateOrder_RoleGate(t *testing.T) {
	svc, gw, _ := setupOrderTest(t, model.RoleRetailer)
	request := acceptedRequest(gw)

	_, err := svc.Generate(context.Background(), request.ID, "agent007")

	assert.ErrorIs(t, err, model.ErrRoleNotAllowed)
}

func TestListAgents_FailureIsNonFatal(t *testing.T) {
	svc, gw, _ := setupOrderTest(t, model.RoleDistributor)
	request := acceptedRequest(gw)

	gw.agentsErr = model.ErrNetwork
	agents, err := svc.ListAgents(context.Background())

	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Empty(t, agents)

	// The rest of the store keeps working and the call is retryable.
	_, err = svc.Generate(context.Background(), request.ID, "agent007")
	require.NoError(t, err)

	gw.agentsErr = nil
	agents, err = svc.ListAgents(context.Background())
	require.NoError(t, err)
	assert.Len(t, agents, 1)
}

func TestOrderRefresh_Idempotent(t *testing.T) {
	svc, gw, _ := setupOrderTest(t, model.RoleDistributor)
	request := acceptedRequest(gw)
	_, err := svc.Generate(context.Background(), request.ID, "agent007")
	require.NoError(t, err)

	require.NoError(t, svc.Refresh(context.Background()))
	first := svc.Orders()
	require.NoError(t, svc.Refresh(context.Background()))
	second := svc.Orders()

	assert.Equal(t, first, second)
}

func TestOrderLookup(t *testing.T) {
	svc, gw, _ := setupOrderTest(t, model.RoleDistributor)
	request := acceptedRequest(gw)
	order, err := svc.Generate(context.Background(), request.ID, "agent007")
	require.NoError(t, err)

	found, err := svc.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Number, found.Number)

	_, err = svc.Order(uuid.New())
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}
