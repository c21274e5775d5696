package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderPaid
	OrderDispatched
	OrderDelivered
)

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "PENDING"
	case OrderPaid:
		return "PAID"
	case OrderDispatched:
		return "DISPATCHED"
	case OrderDelivered:
		return "DELIVERED"
	}
	return "UNKNOWN"
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "PENDING":
		return OrderPending, nil
	case "PAID":
		return OrderPaid, nil
	case "DISPATCHED":
		return OrderDispatched, nil
	case "DELIVERED":
		return OrderDelivered, nil
	}
	return 0, ErrValidation
}

// orderNext is the full transition table. Every edge is forward-only;
// anything not listed here is rejected regardless of who asks.
var orderNext = map[OrderStatus]OrderStatus{
	OrderPending:    OrderPaid,
	OrderPaid:       OrderDispatched,
	OrderDispatched: OrderDelivered,
}

// CanAdvanceTo reports whether target is the immediate successor of s.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	next, ok := orderNext[s]
	return ok && next == target
}

type AgentRef struct {
	ID       uuid.UUID
	Username string
}

type Order struct {
	ID               uuid.UUID
	Number           string
	RequestID        uuid.UUID
	Retailer         UserRef
	Distributor      UserRef
	Product          ProductRef
	Quantity         int
	PriceCents       int64
	DeliveryAgent    *AgentRef
	Status           OrderStatus
	PaymentTimestamp *time.Time
	DispatchedAt     *time.Time
	DeliveredAt      *time.Time
	CreatedAt        time.Time
}

// CanDispatch checks the dispatch preconditions beyond the transition
// table: an order must be paid and must have an assigned agent before
// it may leave the distributor's custody.
func (o *Order) CanDispatch() bool {
	return o.Status == OrderPaid && o.DeliveryAgent != nil && o.PaymentTimestamp != nil
}
