// Package storage backs the dev backend stub. It is not a
// specification of the real backend's persistence model, just enough
// storage to exercise the client end to end.
package storage

import (
	"errors"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
)

type User struct {
	ID       uuid.UUID
	Username string
	Password string
	Email    string
	Role     model.Role
}

type Repository interface {
	NextID() (uuid.UUID, error)
	NextOrderNumber() (string, error)

	FindUserByUsername(username string) (*User, error)
	FindUserByID(id uuid.UUID) (*User, error)
	FindProduct(id uuid.UUID) (*model.ProductRef, error)
	ListAgents() ([]model.DeliveryAgent, error)
	FindAgentByUsername(username string) (*model.DeliveryAgent, error)

	CreateRequest(request *model.Request) error
	FindRequest(id uuid.UUID) (*model.Request, error)
	UpdateRequest(request *model.Request) error
	DeleteRequest(id uuid.UUID) error
	ListRequestsByRetailer(retailerID uuid.UUID) ([]model.Request, error)
	ListRequestsByDistributor(distributorID uuid.UUID) ([]model.Request, error)

	CreateOrder(order *model.Order) error
	FindOrder(id uuid.UUID) (*model.Order, error)
	FindOrderByRequest(requestID uuid.UUID) (*model.Order, error)
	UpdateOrder(order *model.Order) error
	ListOrdersByRetailer(retailerID uuid.UUID) ([]model.Order, error)
	ListOrdersByDistributor(distributorID uuid.UUID) ([]model.Order, error)
	ListOrdersByAgent(username string) ([]model.Order, error)

	SeedUser(user User) error
	SeedProduct(product model.ProductRef) error
	SeedAgent(agent model.DeliveryAgent) error
}
