package gateway

import (
	"context"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// Per-role facades. Each dashboard binds its stores to the facade for
// its own role, so a store only ever reaches the endpoints its role is
// entitled to; foreign operations fail fast without a network call.

type Retailer struct {
	C *Client
}

func (r Retailer) ViewRequests(ctx context.Context) ([]model.Request, error) {
	return r.C.RetailerRequests(ctx)
}

func (r Retailer) GenerateRequest(ctx context.Context, productID, distributorID uuid.UUID, quantity int, priceCents int64) (model.Request, error) {
	return r.C.GenerateRequest(ctx, productID, distributorID, quantity, priceCents)
}

func (r Retailer) ChangeRequestStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (model.Request, error) {
	return model.Request{}, model.ErrRoleNotAllowed
}

func (r Retailer) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return r.C.DeleteRequest(ctx, id)
}

func (r Retailer) ViewOrders(ctx context.Context) ([]model.Order, error) {
	return r.C.RetailerOrders(ctx)
}

func (r Retailer) GenerateOrder(ctx context.Context, requestID uuid.UUID, deliveryAgent string) (model.Order, error) {
	return model.Order{}, model.ErrRoleNotAllowed
}

func (r Retailer) Agents(ctx context.Context) ([]model.DeliveryAgent, error) {
	return nil, model.ErrRoleNotAllowed
}

func (r Retailer) InitiatePayment(ctx context.Context, orderID uuid.UUID, amountCents int64, currency string) (model.PaymentIntent, error) {
	return r.C.InitiatePayment(ctx, orderID, amountCents, currency)
}

type Distributor struct {
	C *Client
}

func (d Distributor) ViewRequests(ctx context.Context) ([]model.Request, error) {
	return d.C.DistributorRequests(ctx)
}

func (d Distributor) GenerateRequest(ctx context.Context, productID, distributorID uuid.UUID, quantity int, priceCents int64) (model.Request, error) {
	return model.Request{}, model.ErrRoleNotAllowed
}

func (d Distributor) ChangeRequestStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (model.Request, error) {
	return d.C.ChangeRequestStatus(ctx, id, status)
}

func (d Distributor) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return model.ErrRoleNotAllowed
}

func (d Distributor) ViewOrders(ctx context.Context) ([]model.Order, error) {
	return d.C.DistributorOrders(ctx)
}

func (d Distributor) GenerateOrder(ctx context.Context, requestID uuid.UUID, deliveryAgent string) (model.Order, error) {
	return d.C.GenerateOrder(ctx, requestID, deliveryAgent)
}

func (d Distributor) Agents(ctx context.Context) ([]model.DeliveryAgent, error) {
	return d.C.Agents(ctx)
}

type Delivery struct {
	C *Client
}

func (d Delivery) ViewOrders(ctx context.Context) ([]model.Order, error) {
	return d.C.DeliveryOrders(ctx)
}

func (d Delivery) ChangeOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (model.Order, error) {
	return d.C.ChangeOrderStatus(ctx, id, status)
}
