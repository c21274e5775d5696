package gateway

import (
	"time"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// Wire shapes for the backend's JSON bodies. Statuses travel as
// strings; prices travel as integer cents.

type userJSON struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func (u userJSON) toModel() model.UserRef {
	return model.UserRef{ID: u.ID, Username: u.Username, Email: u.Email}
}

type productJSON struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Price    int64     `json:"price"`
}

func (p productJSON) toModel() model.ProductRef {
	return model.ProductRef{ID: p.ID, Name: p.Name, Category: p.Category, PriceCents: p.Price}
}

type agentJSON struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
}

type requestJSON struct {
	RequestID   uuid.UUID   `json:"requestId"`
	Retailer    userJSON    `json:"retailer"`
	Distributor userJSON    `json:"distributor"`
	Product     productJSON `json:"product"`
	Quantity    int         `json:"quantity"`
	Price       int64       `json:"price"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (d requestJSON) toModel() (model.Request, error) {
	status, err := model.ParseRequestStatus(d.Status)
	if err != nil {
		return model.Request{}, err
	}
	return model.Request{
		ID:          d.RequestID,
		Retailer:    d.Retailer.toModel(),
		Distributor: d.Distributor.toModel(),
		Product:     d.Product.toModel(),
		Quantity:    d.Quantity,
		PriceCents:  d.Price,
		Status:      status,
		CreatedAt:   d.CreatedAt,
	}, nil
}

type orderJSON struct {
	OrderID          uuid.UUID   `json:"orderId"`
	OrderNumber      string      `json:"orderNumber"`
	RequestID        uuid.UUID   `json:"requestId"`
	Retailer         userJSON    `json:"retailer"`
	Distributor      userJSON    `json:"distributor"`
	Product          productJSON `json:"product"`
	Quantity         int         `json:"quantity"`
	Price            int64       `json:"price"`
	DeliveryAgent    *agentJSON  `json:"deliveryAgent"`
	Status           string      `json:"status"`
	PaymentTimestamp *time.Time  `json:"paymentTimestamp"`
	DispatchedAt     *time.Time  `json:"dispatchedAt"`
	DeliveredAt      *time.Time  `json:"deliveredAt"`
	CreatedAt        time.Time   `json:"createdAt"`
}

func (d orderJSON) toModel() (model.Order, error) {
	status, err := model.ParseOrderStatus(d.Status)
	if err != nil {
		return model.Order{}, err
	}
	order := model.Order{
		ID:               d.OrderID,
		Number:           d.OrderNumber,
		RequestID:        d.RequestID,
		Retailer:         d.Retailer.toModel(),
		Distributor:      d.Distributor.toModel(),
		Product:          d.Product.toModel(),
		Quantity:         d.Quantity,
		PriceCents:       d.Price,
		Status:           status,
		PaymentTimestamp: d.PaymentTimestamp,
		DispatchedAt:     d.DispatchedAt,
		DeliveredAt:      d.DeliveredAt,
		CreatedAt:        d.CreatedAt,
	}
	if d.DeliveryAgent != nil {
		order.DeliveryAgent = &model.AgentRef{ID: d.DeliveryAgent.ID, Username: d.DeliveryAgent.Username}
	}
	return order, nil
}

type intentJSON struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

func toRequests(dtos []requestJSON) ([]model.Request, error) {
	requests := make([]model.Request, 0, len(dtos))
	for _, dto := range dtos {
		request, err := dto.toModel()
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, nil
}

func toOrders(dtos []orderJSON) ([]model.Order, error) {
	orders := make([]model.Order, 0, len(dtos))
	for _, dto := range dtos {
		order, err := dto.toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}
