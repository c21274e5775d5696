package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// Memory is the default repository for tests and local development.
type Memory struct {
	mu       sync.Mutex
	users    map[string]User
	products map[uuid.UUID]model.ProductRef
	agents   map[string]model.DeliveryAgent
	requests map[uuid.UUID]model.Request
	orders   map[uuid.UUID]model.Order
	orderSeq int
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]User),
		products: make(map[uuid.UUID]model.ProductRef),
		agents:   make(map[string]model.DeliveryAgent),
		requests: make(map[uuid.UUID]model.Request),
		orders:   make(map[uuid.UUID]model.Order),
		orderSeq: 1000,
	}
}

func (m *Memory) NextID() (uuid.UUID, error) {
	return uuid.New(), nil
}

func (m *Memory) NextOrderNumber() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderSeq++
	return fmt.Sprintf("ORD-%d", m.orderSeq), nil
}

func (m *Memory) FindUserByUsername(username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (m *Memory) FindUserByID(id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			found := user
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *Memory) FindProduct(id uuid.UUID) (*model.ProductRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

func (m *Memory) ListAgents() ([]model.DeliveryAgent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agents := make([]model.DeliveryAgent, 0, len(m.agents))
	for _, agent := range m.agents {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Username < agents[j].Username })
	return agents, nil
}

func (m *Memory) FindAgentByUsername(username string) (*model.DeliveryAgent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agent, ok := m.agents[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &agent, nil
}

func (m *Memory) CreateRequest(request *model.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = *request
	return nil
}

func (m *Memory) FindRequest(id uuid.UUID) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	return &request, nil
}

func (m *Memory) UpdateRequest(request *model.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[request.ID]; !ok {
		return model.ErrRequestNotFound
	}
	m.requests[request.ID] = *request
	return nil
}

func (m *Memory) DeleteRequest(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return model.ErrRequestNotFound
	}
	delete(m.requests, id)
	return nil
}

func (m *Memory) ListRequestsByRetailer(retailerID uuid.UUID) ([]model.Request, error) {
	return m.listRequests(func(r model.Request) bool { return r.Retailer.ID == retailerID })
}

func (m *Memory) ListRequestsByDistributor(distributorID uuid.UUID) ([]model.Request, error) {
	return m.listRequests(func(r model.Request) bool { return r.Distributor.ID == distributorID })
}

func (m *Memory) listRequests(keep func(model.Request) bool) ([]model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests := make([]model.Request, 0)
	for _, request := range m.requests {
		if keep(request) {
			requests = append(requests, request)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.Before(requests[j].CreatedAt) })
	return requests, nil
}

// CreateOrder enforces one order per request under the repository
// mutex, so the check in the handler cannot race a concurrent insert.
func (m *Memory) CreateOrder(order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.RequestID == order.RequestID {
			return model.ErrConflict
		}
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *Memory) FindOrder(id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return &order, nil
}

func (m *Memory) FindOrderByRequest(requestID uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.RequestID == requestID {
			found := order
			return &found, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (m *Memory) UpdateOrder(order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return model.ErrOrderNotFound
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *Memory) ListOrdersByRetailer(retailerID uuid.UUID) ([]model.Order, error) {
	return m.listOrders(func(o model.Order) bool { return o.Retailer.ID == retailerID })
}

func (m *Memory) ListOrdersByDistributor(distributorID uuid.UUID) ([]model.Order, error) {
	return m.listOrders(func(o model.Order) bool { return o.Distributor.ID == distributorID })
}

func (m *Memory) ListOrdersByAgent(username string) ([]model.Order, error) {
	return m.listOrders(func(o model.Order) bool {
		return o.DeliveryAgent != nil && o.DeliveryAgent.Username == username
	})
}

func (m *Memory) listOrders(keep func(model.Order) bool) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]model.Order, 0)
	for _, order := range m.orders {
		if keep(order) {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Number < orders[j].Number })
	return orders, nil
}

func (m *Memory) SeedUser(user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Username] = user
	return nil
}

func (m *Memory) SeedProduct(product model.ProductRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return nil
}

func (m *Memory) SeedAgent(agent model.DeliveryAgent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[agent.Username] = agent
	return nil
}
