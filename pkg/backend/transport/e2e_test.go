package transport_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/pkg/backend/storage"
	"procurement/pkg/backend/transport"
	"procurement/pkg/domain/model"
	"procurement/pkg/domain/service"
	"procurement/pkg/gateway"
	"procurement/pkg/payment"
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(service.Event) error { return nil }

// lifecycleFixture runs the backend stub over the in-memory repository
// and logs in one client per role, the way the three dashboards would.
type lifecycleFixture struct {
	server *httptest.Server
	demo   *storage.DemoData

	retailer    *gateway.Client
	distributor *gateway.Client
	courier     *gateway.Client
}

func setupLifecycle(t *testing.T) *lifecycleFixture {
	t.Helper()

	repo := storage.NewMemory()
	demo, err := storage.SeedDemo(repo)
	require.NoError(t, err)

	server := httptest.NewServer(transport.NewServer(repo).Router())
	t.Cleanup(server.Close)

	login := func(username, password string) *gateway.Client {
		client, err := gateway.New(server.URL)
		require.NoError(t, err)
		require.NoError(t, client.Login(context.Background(), username, password))
		return client
	}

	return &lifecycleFixture{
		server:      server,
		demo:        demo,
		retailer:    login("retailer1", "retailer1"),
		distributor: login("distributor1", "distributor1"),
		courier:     login("agent007", "agent007"),
	}
}

func TestProcurementLifecycle(t *testing.T) {
	f := setupLifecycle(t)
	ctx := context.Background()
	dispatcher := nopDispatcher{}

	retailerRequests := service.NewRequestService(model.RoleRetailer, gateway.Retailer{C: f.retailer}, dispatcher)
	retailerOrders := service.NewOrderService(model.RoleRetailer, gateway.Retailer{C: f.retailer}, dispatcher)
	distributorRequests := service.NewRequestService(model.RoleDistributor, gateway.Distributor{C: f.distributor}, dispatcher)
	distributorOrders := service.NewOrderService(model.RoleDistributor, gateway.Distributor{C: f.distributor}, dispatcher)
	courierOrders := service.NewDeliveryService(gateway.Delivery{C: f.courier}, dispatcher)

	// Retailer raises a request; the backend prices it from the catalog.
	rice := f.demo.Products[0]
	request, err := retailerRequests.Create(ctx, rice.ID, f.demo.Distributor.ID, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, request.Status)
	assert.Equal(t, rice.PriceCents*5, request.PriceCents)

	// The distributor's cache is a separate view: empty until refreshed.
	assert.Empty(t, distributorRequests.Requests())
	require.NoError(t, distributorRequests.Refresh(ctx))
	incoming := distributorRequests.Requests()
	require.Len(t, incoming, 1)
	assert.Equal(t, request.ID, incoming[0].ID)
	assert.Equal(t, model.RequestPending, incoming[0].Status)

	// Accept, then mint the order with an assigned courier.
	accepted, err := distributorRequests.SetStatus(ctx, request.ID, model.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.RequestAccepted, accepted.Status)

	agents, err := distributorOrders.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)

	order, err := distributorOrders.Generate(ctx, request.ID, agents[0].Username)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.NotEmpty(t, order.Number)
	require.NotNil(t, order.DeliveryAgent)
	assert.Equal(t, "agent007", order.DeliveryAgent.Username)
	assert.Nil(t, order.PaymentTimestamp)

	// A rapid double submit is rejected, not duplicated.
	_, err = distributorOrders.Generate(ctx, request.ID, agents[0].Username)
	assert.ErrorIs(t, err, model.ErrConflict)

	// The retailer's cache still says PENDING, so the delete attempt
	// reaches the backend and is refused there.
	err = retailerRequests.Delete(ctx, request.ID)
	assert.ErrorIs(t, err, model.ErrConflict)

	// Courier cannot dispatch an unpaid order.
	require.NoError(t, courierOrders.Refresh(ctx))
	_, err = courierOrders.Advance(ctx, order.ID, model.OrderDispatched)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	// Retailer pays. The first card is declined and the order stays
	// PENDING and retryable; the second attempt succeeds.
	require.NoError(t, retailerOrders.Refresh(ctx))
	payments := service.NewPaymentService(
		gateway.Retailer{C: f.retailer},
		payment.New(f.server.URL+"/processor", "sk_test_local"),
		retailerOrders,
		"USD",
		dispatcher,
	)

	intent, err := payments.Initiate(ctx, order.ID, order.PriceCents)
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ClientSecret)

	declined := model.CardDetails{Number: "4000000000000002", ExpMonth: 12, ExpYear: 2030, CVC: "123"}
	_, err = payments.Confirm(ctx, intent, declined)
	assert.ErrorIs(t, err, model.ErrPaymentDeclined)
	pending, err := retailerOrders.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, pending.Status)

	good := model.CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"}
	paid, err := payments.Confirm(ctx, intent, good)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, paid.Status)
	require.NotNil(t, paid.PaymentTimestamp)

	// Courier dispatches and delivers; milestone stamps stay ordered.
	require.NoError(t, courierOrders.Refresh(ctx))
	dispatched, err := courierOrders.Advance(ctx, order.ID, model.OrderDispatched)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDispatched, dispatched.Status)
	require.NotNil(t, dispatched.DispatchedAt)

	delivered, err := courierOrders.Advance(ctx, order.ID, model.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.False(t, delivered.DeliveredAt.Before(*delivered.DispatchedAt))
	assert.False(t, delivered.DispatchedAt.Before(*delivered.PaymentTimestamp))

	// No backward or repeated moves once delivered.
	_, err = courierOrders.Advance(ctx, order.ID, model.OrderDispatched)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	// The distributor still holds the stale PENDING entry until the
	// reconciler fans out the refreshes.
	stale, err := distributorOrders.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, stale.Status)

	reconciler := service.NewReconciler(distributorRequests, distributorOrders)
	require.NoError(t, reconciler.Sync(ctx))

	fresh, err := distributorOrders.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, fresh.Status)
}

// slowOrderLookups stretches the gap between the handler's duplicate
// check and the insert so overlapping generate-order calls interleave.
type slowOrderLookups struct {
	storage.Repository
}

func (s slowOrderLookups) FindOrderByRequest(requestID uuid.UUID) (*model.Order, error) {
	order, err := s.Repository.FindOrderByRequest(requestID)
	time.Sleep(50 * time.Millisecond)
	return order, err
}

func TestGenerateOrder_ConcurrentDoubleSubmit(t *testing.T) {
	repo := storage.NewMemory()
	demo, err := storage.SeedDemo(repo)
	require.NoError(t, err)

	server := httptest.NewServer(transport.NewServer(slowOrderLookups{repo}).Router())
	t.Cleanup(server.Close)

	ctx := context.Background()
	retailer, err := gateway.New(server.URL)
	require.NoError(t, err)
	require.NoError(t, retailer.Login(ctx, "retailer1", "retailer1"))
	distributor, err := gateway.New(server.URL)
	require.NoError(t, err)
	require.NoError(t, distributor.Login(ctx, "distributor1", "distributor1"))

	request, err := retailer.GenerateRequest(ctx, demo.Products[0].ID, demo.Distributor.ID, 2, 0)
	require.NoError(t, err)
	_, err = distributor.ChangeRequestStatus(ctx, request.ID, model.RequestAccepted)
	require.NoError(t, err)

	// Rapid double click: both calls pass the handler's list check, so
	// only the repository's atomic insert can reject the loser.
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = distributor.GenerateOrder(ctx, request.ID, "agent007")
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, model.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	orders, err := distributor.DistributorOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, request.ID, orders[0].RequestID)
}

func TestRoleFencing(t *testing.T) {
	f := setupLifecycle(t)
	ctx := context.Background()

	// The facade refuses foreign operations before any network call.
	_, err := gateway.Retailer{C: f.retailer}.GenerateOrder(ctx, f.demo.Products[0].ID, "agent007")
	assert.ErrorIs(t, err, model.ErrRoleNotAllowed)

	// And the backend refuses a crafted call from the wrong session.
	_, err = f.courier.DistributorRequests(ctx)
	assert.ErrorIs(t, err, model.ErrRoleNotAllowed)
}

func TestDeletePendingRequest(t *testing.T) {
	f := setupLifecycle(t)
	ctx := context.Background()
	dispatcher := nopDispatcher{}

	retailerRequests := service.NewRequestService(model.RoleRetailer, gateway.Retailer{C: f.retailer}, dispatcher)

	request, err := retailerRequests.Create(ctx, f.demo.Products[1].ID, f.demo.Distributor.ID, 2, 0)
	require.NoError(t, err)

	require.NoError(t, retailerRequests.Delete(ctx, request.ID))
	assert.Empty(t, retailerRequests.Requests())

	// Gone on the backend too.
	require.NoError(t, retailerRequests.Refresh(ctx))
	assert.Empty(t, retailerRequests.Requests())
}
