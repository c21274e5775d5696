package storage

import (
	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// DemoData is the fixture set for local development and end-to-end
// tests: one user per role, one courier record, two products.
type DemoData struct {
	Retailer    User
	Distributor User
	Courier     User
	Agent       model.DeliveryAgent
	Products    []model.ProductRef
}

func SeedDemo(repo Repository) (*DemoData, error) {
	data := &DemoData{
		Retailer: User{
			ID: uuid.New(), Username: "retailer1", Password: "retailer1",
			Email: "retailer1@example.com", Role: model.RoleRetailer,
		},
		Distributor: User{
			ID: uuid.New(), Username: "distributor1", Password: "distributor1",
			Email: "distributor1@example.com", Role: model.RoleDistributor,
		},
		Courier: User{
			ID: uuid.New(), Username: "agent007", Password: "agent007",
			Email: "agent007@example.com", Role: model.RoleDeliveryAgent,
		},
		Products: []model.ProductRef{
			{ID: uuid.New(), Name: "Basmati Rice 5kg", Category: "Grocery", PriceCents: 1250},
			{ID: uuid.New(), Name: "Sunflower Oil 1L", Category: "Grocery", PriceCents: 480},
		},
	}
	data.Agent = model.DeliveryAgent{
		ID:       data.Courier.ID,
		Username: data.Courier.Username,
		Email:    data.Courier.Email,
		Phone:    "+1-555-0007",
	}

	for _, user := range []User{data.Retailer, data.Distributor, data.Courier} {
		if err := repo.SeedUser(user); err != nil {
			return nil, err
		}
	}
	if err := repo.SeedAgent(data.Agent); err != nil {
		return nil, err
	}
	for _, product := range data.Products {
		if err := repo.SeedProduct(product); err != nil {
			return nil, err
		}
	}
	return data, nil
}
