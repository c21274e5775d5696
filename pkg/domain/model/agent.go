package model

import "github.com/google/uuid"

// DeliveryAgent is read-only reference data used by the distributor's
// assignment picker; nothing in the client mutates it.
type DeliveryAgent struct {
	ID       uuid.UUID
	Username string
	Email    string
	Phone    string
}
