package model

import "github.com/google/uuid"

type RequestCreated struct {
	RequestID  uuid.UUID
	RetailerID uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
}

func (e RequestCreated) Type() string { return "RequestCreated" }

type RequestStatusChanged struct {
	RequestID uuid.UUID
	OldStatus RequestStatus
	NewStatus RequestStatus
}

func (e RequestStatusChanged) Type() string { return "RequestStatusChanged" }

type RequestDeleted struct {
	RequestID uuid.UUID
}

func (e RequestDeleted) Type() string { return "RequestDeleted" }

type OrderGenerated struct {
	OrderID       uuid.UUID
	RequestID     uuid.UUID
	DeliveryAgent string
}

func (e OrderGenerated) Type() string { return "OrderGenerated" }

type PaymentConfirmed struct {
	OrderID     uuid.UUID
	AmountCents int64
}

func (e PaymentConfirmed) Type() string { return "PaymentConfirmed" }

type PaymentFailed struct {
	OrderID uuid.UUID
	Reason  string
}

func (e PaymentFailed) Type() string { return "PaymentFailed" }

type OrderStatusChanged struct {
	OrderID   uuid.UUID
	OldStatus OrderStatus
	NewStatus OrderStatus
}

func (e OrderStatusChanged) Type() string { return "OrderStatusChanged" }

type CacheRefreshed struct {
	Role    string
	Entries int
}

func (e CacheRefreshed) Type() string { return "CacheRefreshed" }
