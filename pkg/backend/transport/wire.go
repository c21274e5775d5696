package transport

import (
	"time"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// Response shapes mirror what the client's gateway decodes.

type userJSON struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func userToJSON(u model.UserRef) userJSON {
	return userJSON{ID: u.ID, Username: u.Username, Email: u.Email}
}

type productJSON struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Price    int64     `json:"price"`
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

func requestToJSON(r model.Request) requestJSON {
	return requestJSON{
		RequestID:   r.ID,
		Retailer:    userToJSON(r.Retailer),
		Distributor: userToJSON(r.Distributor),
		Product:     productJSON{ID: r.Product.ID, Name: r.Product.Name, Category: r.Product.Category, Price: r.Product.PriceCents},
		Quantity:    r.Quantity,
		Price:       r.PriceCents,
		Status:      r.Status.String(),
		CreatedAt:   r.CreatedAt,
	}
}

func requestsToJSON(requests []model.Request) []requestJSON {
	dtos := make([]requestJSON, 0, len(requests))
	for _, request := range requests {
		dtos = append(dtos, requestToJSON(request))
	}
	return dtos
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

func orderToJSON(o model.Order) orderJSON {
	dto := orderJSON{
		OrderID:          o.ID,
		OrderNumber:      o.Number,
		RequestID:        o.RequestID,
		Retailer:         userToJSON(o.Retailer),
		Distributor:      userToJSON(o.Distributor),
		Product:          productJSON{ID: o.Product.ID, Name: o.Product.Name, Category: o.Product.Category, Price: o.Product.PriceCents},
		Quantity:         o.Quantity,
		Price:            o.PriceCents,
		Status:           o.Status.String(),
		PaymentTimestamp: o.PaymentTimestamp,
		DispatchedAt:     o.DispatchedAt,
		DeliveredAt:      o.DeliveredAt,
		CreatedAt:        o.CreatedAt,
	}
	if o.DeliveryAgent != nil {
		dto.DeliveryAgent = &agentJSON{ID: o.DeliveryAgent.ID, Username: o.DeliveryAgent.Username}
	}
	return dto
}

func ordersToJSON(orders []model.Order) []orderJSON {
	dtos := make([]orderJSON, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, orderToJSON(order))
	}
	return dtos
}

func agentsToJSON(agents []model.DeliveryAgent) []agentJSON {
	dtos := make([]agentJSON, 0, len(agents))
	for _, agent := range agents {
		dtos = append(dtos, agentJSON{ID: agent.ID, Username: agent.Username, Email: agent.Email, Phone: agent.Phone})
	}
	return dtos
}
