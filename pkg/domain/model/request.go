package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrRequestNotFound = errors.New("request not found")

type RequestStatus int

const (
	RequestPending RequestStatus = iota
	RequestAccepted
	RequestRejected
)

func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "PENDING"
	case RequestAccepted:
		return "ACCEPTED"
	case RequestRejected:
		return "REJECTED"
	}
	return "UNKNOWN"
}

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch s {
	case "PENDING":
		return RequestPending, nil
	case "ACCEPTED":
		return RequestAccepted, nil
	case "REJECTED":
		return RequestRejected, nil
	}
	return 0, ErrValidation
}

// CanTransitionTo encodes the request lifecycle: PENDING is the only
// non-terminal state, and it may only move to ACCEPTED or REJECTED.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	return s == RequestPending && (target == RequestAccepted || target == RequestRejected)
}

type Role int

const (
	RoleRetailer Role = iota
	RoleDistributor
	RoleDeliveryAgent
)

func (r Role) String() string {
	switch r {
	case RoleRetailer:
		return "retailer"
	case RoleDistributor:
		return "distributor"
	case RoleDeliveryAgent:
		return "delivery"
	}
	return "unknown"
}

type UserRef struct {
	ID       uuid.UUID
	Username string
	Email    string
}

type ProductRef struct {
	ID         uuid.UUID
	Name       string
	Category   string
	PriceCents int64
}

type Request struct {
	ID          uuid.UUID
	Retailer    UserRef
	Distributor UserRef
	Product     ProductRef
	Quantity    int
	PriceCents  int64
	Status      RequestStatus
	CreatedAt   time.Time
}
