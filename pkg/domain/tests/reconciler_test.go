package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/pkg/domain/model"
	"procurement/pkg/domain/service"
)

func TestReconciler_RefreshesEveryStore(t *testing.T) {
	requestGW := newMockRequestGateway()
	requestGW.seed(model.RequestPending)
	orderGW := newMockOrderGateway()

	dispatcher := &mockEventDispatcher{}
	requests := service.NewRequestService(model.RoleDistributor, requestGW, dispatcher)
	orders := service.NewOrderService(model.RoleDistributor, orderGW, dispatcher)

	reconciler := service.NewReconciler(requests, orders)
	require.NoError(t, reconciler.Sync(context.Background()))

	assert.Len(t, requests.Requests(), 1)
	assert.Empty(t, orders.Orders())

	// A sibling dashboard's write is only visible after the next sync.
	requestGW.seed(model.RequestPending)
	assert.Len(t, requests.Requests(), 1)

	require.NoError(t, reconciler.Sync(context.Background()))
	assert.Len(t, requests.Requests(), 2)
}

func TestReconciler_PropagatesFailure(t *testing.T) {
	requestGW := newMockRequestGateway()
	requestGW.listErr = model.ErrNetwork

	dispatcher := &mockEventDispatcher{}
	requests := service.NewRequestService(model.RoleRetailer, requestGW, dispatcher)

	err := service.NewReconciler(requests).Sync(context.Background())

	assert.ErrorIs(t, err, model.ErrNetwork)
}
