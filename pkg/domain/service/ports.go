package service

import (
	"context"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

type Event interface{ Type() string }
type EventDispatcher interface{ Dispatch(event Event) error }

// Gateway ports consumed by the stores. The concrete implementations
// live in pkg/gateway as per-role facades; tests substitute mocks.

type RequestGateway interface {
	ViewRequests(ctx context.Context) ([]model.Request, error)
	GenerateRequest(ctx context.Context, productID, distributorID uuid.UUID, quantity int, priceCents int64) (model.Request, error)
	ChangeRequestStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (model.Request, error)
	DeleteRequest(ctx context.Context, id uuid.UUID) error
}

type OrderGateway interface {
	ViewOrders(ctx context.Context) ([]model.Order, error)
	GenerateOrder(ctx context.Context, requestID uuid.UUID, deliveryAgent string) (model.Order, error)
	Agents(ctx context.Context) ([]model.DeliveryAgent, error)
}

type PaymentInitiator interface {
	InitiatePayment(ctx context.Context, orderID uuid.UUID, amountCents int64, currency string) (model.PaymentIntent, error)
}

// CardProcessor is the external payment processor's confirmation call.
// A nil return means the processor reported succeeded; a decline comes
// back wrapped around model.ErrPaymentDeclined.
type CardProcessor interface {
	Confirm(ctx context.Context, clientSecret string, card model.CardDetails) error
}

type DeliveryGateway interface {
	ViewOrders(ctx context.Context) ([]model.Order, error)
	ChangeOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (model.Order, error)
}
