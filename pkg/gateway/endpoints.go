package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// Session bootstrap. Behavior around auth is out of core scope; the
// client only needs login to populate the cookie jar before the
// per-role endpoints are usable.

func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/login", nil, body, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (model.UserRef, error) {
	var dto userJSON
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &dto); err != nil {
		return model.UserRef{}, err
	}
	return dto.toModel(), nil
}

// Retailer-side request endpoints.

func (c *Client) RetailerRequests(ctx context.Context) ([]model.Request, error) {
	var dtos []requestJSON
	if err := c.do(ctx, http.MethodGet, "/retailer/request/view-request", nil, nil, &dtos); err != nil {
		return nil, err
	}
	return toRequests(dtos)
}

type generateRequestBody struct {
	ProductID     uuid.UUID `json:"productId"`
	DistributorID uuid.UUID `json:"distributorId"`
	Quantity      int       `json:"quantity"`
	Price         int64     `json:"price"`
}

func (c *Client) GenerateRequest(ctx context.Context, productID, distributorID uuid.UUID, quantity int, priceCents int64) (model.Request, error) {
	body := generateRequestBody{
		ProductID:     productID,
		DistributorID: distributorID,
		Quantity:      quantity,
		Price:         priceCents,
	}
	var dto requestJSON
	if err := c.do(ctx, http.MethodPost, "/retailer/request/generate-request", nil, body, &dto); err != nil {
		return model.Request{}, err
	}
	return dto.toModel()
}

func (c *Client) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/retailer/request/delete-request/"+id.String(), nil, nil, nil)
}

// Distributor-side request and order endpoints.

func (c *Client) DistributorRequests(ctx context.Context) ([]model.Request, error) {
	var dtos []requestJSON
	if err := c.do(ctx, http.MethodGet, "/distributor/request/view-requests", nil, nil, &dtos); err != nil {
		return nil, err
	}
	return toRequests(dtos)
}

func (c *Client) ChangeRequestStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (model.Request, error) {
	query := url.Values{"status": []string{status.String()}}
	var dto requestJSON
	if err := c.do(ctx, http.MethodPost, "/distributor/request/change-status/"+id.String(), query, nil, &dto); err != nil {
		return model.Request{}, err
	}
	return dto.toModel()
}

type generateOrderBody struct {
	DeliveryAgent string `json:"deliveryAgent"`
}

func (c *Client) GenerateOrder(ctx context.Context, requestID uuid.UUID, deliveryAgent string) (model.Order, error) {
	var dto orderJSON
	body := generateOrderBody{DeliveryAgent: deliveryAgent}
	if err := c.do(ctx, http.MethodPost, "/distributor/order/generate-order/"+requestID.String(), nil, body, &dto); err != nil {
		return model.Order{}, err
	}
	return dto.toModel()
}

func (c *Client) Agents(ctx context.Context) ([]model.DeliveryAgent, error) {
	var dtos []agentJSON
	if err := c.do(ctx, http.MethodGet, "/distributor/order/get-agents", nil, nil, &dtos); err != nil {
		return nil, err
	}
	agents := make([]model.DeliveryAgent, 0, len(dtos))
	for _, dto := range dtos {
		agents = append(agents, model.DeliveryAgent{
			ID:       dto.ID,
			Username: dto.Username,
			Email:    dto.Email,
			Phone:    dto.Phone,
		})
	}
	return agents, nil
}

// Order views per role.

func (c *Client) RetailerOrders(ctx context.Context) ([]model.Order, error) {
	var dtos []orderJSON
	if err := c.do(ctx, http.MethodGet, "/retailer/order/view-orders", nil, nil, &dtos); err != nil {
		return nil, err
	}
	return toOrders(dtos)
}

func (c *Client) DistributorOrders(ctx context.Context) ([]model.Order, error) {
	var dtos []orderJSON
	if err := c.do(ctx, http.MethodGet, "/distributor/order/view-orders", nil, nil, &dtos); err != nil {
		return nil, err
	}
	return toOrders(dtos)
}

func (c *Client) DeliveryOrders(ctx context.Context) ([]model.Order, error) {
	var dtos []orderJSON
	if err := c.do(ctx, http.MethodGet, "/delivery/order/view-orders", nil, nil, &dtos); err != nil {
		return nil, err
	}
	return toOrders(dtos)
}

// Payment initiation goes through the backend, which proxies the
// payment processor's intent creation and returns the client secret.

type initiatePaymentBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (c *Client) InitiatePayment(ctx context.Context, orderID uuid.UUID, amountCents int64, currency string) (model.PaymentIntent, error) {
	body := initiatePaymentBody{Amount: amountCents, Currency: currency}
	var dto intentJSON
	if err := c.do(ctx, http.MethodPost, "/retailer/order/payment/"+orderID.String(), nil, body, &dto); err != nil {
		return model.PaymentIntent{}, err
	}
	return model.PaymentIntent{
		ID:           dto.ID,
		ClientSecret: dto.ClientSecret,
		OrderID:      orderID,
		AmountCents:  dto.Amount,
		Currency:     dto.Currency,
	}, nil
}

// Delivery-agent order status advance.

func (c *Client) ChangeOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (model.Order, error) {
	query := url.Values{"status": []string{status.String()}}
	var dto orderJSON
	if err := c.do(ctx, http.MethodPost, "/delivery/order/change-order-status/"+id.String(), query, nil, &dto); err != nil {
		return model.Order{}, err
	}
	return dto.toModel()
}
