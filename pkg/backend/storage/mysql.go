package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"procurement/pkg/domain/model"
)

// MySQL is the sqlx-backed repository for a persistent dev backend.
type MySQL struct {
	db *sqlx.DB
}

func NewMySQL(dsn string) (*MySQL, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to mysql")
	}
	return &MySQL{db: db}, nil
}

func (s *MySQL) Close() error {
	return s.db.Close()
}

func (s *MySQL) NextID() (uuid.UUID, error) {
	return uuid.New(), nil
}

func (s *MySQL) NextOrderNumber() (string, error) {
	// Auto-increment allocation is atomic; concurrent calls cannot
	// collide on a sequence value.
	res, err := s.db.Exec("INSERT INTO order_numbers () VALUES ()")
	if err != nil {
		return "", errors.Wrap(err, "allocate order number")
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", errors.Wrap(err, "read allocated order number")
	}
	return fmt.Sprintf("ORD-%d", seq), nil
}

type userRow struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	Password string `db:"password"`
	Email    string `db:"email"`
	Role     string `db:"role"`
}

func (r userRow) toUser() (*User, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse user id")
	}
	role := model.RoleRetailer
	switch r.Role {
	case "distributor":
		role = model.RoleDistributor
	case "delivery":
		role = model.RoleDeliveryAgent
	}
	return &User{ID: id, Username: r.Username, Password: r.Password, Email: r.Email, Role: role}, nil
}

func (s *MySQL) FindUserByUsername(username string) (*User, error) {
	var row userRow
	err := s.db.Get(&row, "SELECT id, username, password, email, role FROM users WHERE username = ?", username)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	return row.toUser()
}

func (s *MySQL) FindUserByID(id uuid.UUID) (*User, error) {
	var row userRow
	err := s.db.Get(&row, "SELECT id, username, password, email, role FROM users WHERE id = ?", id.String())
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	return row.toUser()
}

type productRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Category string `db:"category"`
	Price    int64  `db:"price"`
}

func (s *MySQL) FindProduct(id uuid.UUID) (*model.ProductRef, error) {
	var row productRow
	err := s.db.Get(&row, "SELECT id, name, category, price FROM products WHERE id = ?", id.String())
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	pid, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse product id")
	}
	return &model.ProductRef{ID: pid, Name: row.Name, Category: row.Category, PriceCents: row.Price}, nil
}

type agentRow struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
	Phone    string `db:"phone"`
}

func (r agentRow) toModel() (model.DeliveryAgent, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.DeliveryAgent{}, errors.Wrap(err, "parse agent id")
	}
	return model.DeliveryAgent{ID: id, Username: r.Username, Email: r.Email, Phone: r.Phone}, nil
}

func (s *MySQL) ListAgents() ([]model.DeliveryAgent, error) {
	var rows []agentRow
	if err := s.db.Select(&rows, "SELECT id, username, email, phone FROM agents ORDER BY username"); err != nil {
		return nil, errors.Wrap(err, "query agents")
	}
	agents := make([]model.DeliveryAgent, 0, len(rows))
	for _, row := range rows {
		agent, err := row.toModel()
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

func (s *MySQL) FindAgentByUsername(username string) (*model.DeliveryAgent, error) {
	var row agentRow
	err := s.db.Get(&row, "SELECT id, username, email, phone FROM agents WHERE username = ?", username)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query agent")
	}
	agent, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

type requestRow struct {
	ID        string    `db:"id"`
	Quantity  int       `db:"quantity"`
	Price     int64     `db:"price"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`

	RetailerID       string `db:"retailer_id"`
	RetailerName     string `db:"retailer_username"`
	RetailerEmail    string `db:"retailer_email"`
	DistributorID    string `db:"distributor_id"`
	DistributorName  string `db:"distributor_username"`
	DistributorEmail string `db:"distributor_email"`
	ProductID        string `db:"product_id"`
	ProductName      string `db:"product_name"`
	ProductCategory  string `db:"product_category"`
	ProductPrice     int64  `db:"product_price"`
}

const requestSelect = `
SELECT r.id, r.quantity, r.price, r.status, r.created_at,
       r.retailer_id, ur.username AS retailer_username, ur.email AS retailer_email,
       r.distributor_id, ud.username AS distributor_username, ud.email AS distributor_email,
       r.product_id, p.name AS product_name, p.category AS product_category, p.price AS product_price
FROM requests r
JOIN users ur ON ur.id = r.retailer_id
JOIN users ud ON ud.id = r.distributor_id
JOIN products p ON p.id = r.product_id`

func (r requestRow) toModel() (model.Request, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.Request{}, errors.Wrap(err, "parse request id")
	}
	status, err := model.ParseRequestStatus(r.Status)
	if err != nil {
		return model.Request{}, err
	}
	retailerID, _ := uuid.Parse(r.RetailerID)
	distributorID, _ := uuid.Parse(r.DistributorID)
	productID, _ := uuid.Parse(r.ProductID)
	return model.Request{
		ID:          id,
		Retailer:    model.UserRef{ID: retailerID, Username: r.RetailerName, Email: r.RetailerEmail},
		Distributor: model.UserRef{ID: distributorID, Username: r.DistributorName, Email: r.DistributorEmail},
		Product:     model.ProductRef{ID: productID, Name: r.ProductName, Category: r.ProductCategory, PriceCents: r.ProductPrice},
		Quantity:    r.Quantity,
		PriceCents:  r.Price,
		Status:      status,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func (s *MySQL) CreateRequest(request *model.Request) error {
	_, err := s.db.Exec(
		`INSERT INTO requests (id, retailer_id, distributor_id, product_id, quantity, price, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID.String(), request.Retailer.ID.String(), request.Distributor.ID.String(),
		request.Product.ID.String(), request.Quantity, request.PriceCents,
		request.Status.String(), request.CreatedAt,
	)
	return errors.Wrap(err, "insert request")
}

func (s *MySQL) FindRequest(id uuid.UUID) (*model.Request, error) {
	var row requestRow
	err := s.db.Get(&row, requestSelect+" WHERE r.id = ?", id.String())
	if err == sql.ErrNoRows {
		return nil, model.ErrRequestNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query request")
	}
	request, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *MySQL) UpdateRequest(request *model.Request) error {
	res, err := s.db.Exec("UPDATE requests SET status = ? WHERE id = ?", request.Status.String(), request.ID.String())
	if err != nil {
		return errors.Wrap(err, "update request")
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return model.ErrRequestNotFound
	}
	return nil
}

func (s *MySQL) DeleteRequest(id uuid.UUID) error {
	res, err := s.db.Exec("DELETE FROM requests WHERE id = ?", id.String())
	if err != nil {
		return errors.Wrap(err, "delete request")
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return model.ErrRequestNotFound
	}
	return nil
}

func (s *MySQL) ListRequestsByRetailer(retailerID uuid.UUID) ([]model.Request, error) {
	return s.selectRequests(requestSelect+" WHERE r.retailer_id = ? ORDER BY r.created_at", retailerID.String())
}

func (s *MySQL) ListRequestsByDistributor(distributorID uuid.UUID) ([]model.Request, error) {
	return s.selectRequests(requestSelect+" WHERE r.distributor_id = ? ORDER BY r.created_at", distributorID.String())
}

func (s *MySQL) selectRequests(query string, args ...interface{}) ([]model.Request, error) {
	var rows []requestRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "query requests")
	}
	requests := make([]model.Request, 0, len(rows))
	for _, row := range rows {
		request, err := row.toModel()
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, nil
}

type orderRow struct {
	requestRow
	Number        string     `db:"number"`
	RequestID     string     `db:"request_id"`
	AgentID       *string    `db:"agent_id"`
	AgentUsername *string    `db:"agent_username"`
	PaidAt        *time.Time `db:"paid_at"`
	DispatchedAt  *time.Time `db:"dispatched_at"`
	DeliveredAt   *time.Time `db:"delivered_at"`
}

const orderSelect = `
SELECT o.id, o.number, o.request_id, o.quantity, o.price, o.status, o.created_at,
       o.paid_at, o.dispatched_at, o.delivered_at,
       o.retailer_id, ur.username AS retailer_username, ur.email AS retailer_email,
       o.distributor_id, ud.username AS distributor_username, ud.email AS distributor_email,
       o.product_id, p.name AS product_name, p.category AS product_category, p.price AS product_price,
       a.id AS agent_id, a.username AS agent_username
FROM orders o
JOIN users ur ON ur.id = o.retailer_id
JOIN users ud ON ud.id = o.distributor_id
JOIN products p ON p.id = o.product_id
LEFT JOIN agents a ON a.username = o.agent_username`

func (r orderRow) toOrder() (model.Order, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.Order{}, errors.Wrap(err, "parse order id")
	}
	status, err := model.ParseOrderStatus(r.Status)
	if err != nil {
		return model.Order{}, err
	}
	retailerID, _ := uuid.Parse(r.RetailerID)
	distributorID, _ := uuid.Parse(r.DistributorID)
	productID, _ := uuid.Parse(r.ProductID)
	requestID, _ := uuid.Parse(r.RequestID)

	order := model.Order{
		ID:               id,
		Number:           r.Number,
		RequestID:        requestID,
		Retailer:         model.UserRef{ID: retailerID, Username: r.RetailerName, Email: r.RetailerEmail},
		Distributor:      model.UserRef{ID: distributorID, Username: r.DistributorName, Email: r.DistributorEmail},
		Product:          model.ProductRef{ID: productID, Name: r.ProductName, Category: r.ProductCategory, PriceCents: r.ProductPrice},
		Quantity:         r.Quantity,
		PriceCents:       r.Price,
		Status:           status,
		PaymentTimestamp: r.PaidAt,
		DispatchedAt:     r.DispatchedAt,
		DeliveredAt:      r.DeliveredAt,
		CreatedAt:        r.CreatedAt,
	}
	if r.AgentID != nil && r.AgentUsername != nil {
		agentID, err := uuid.Parse(*r.AgentID)
		if err != nil {
			return model.Order{}, errors.Wrap(err, "parse agent id")
		}
		order.DeliveryAgent = &model.AgentRef{ID: agentID, Username: *r.AgentUsername}
	}
	return order, nil
}

func (s *MySQL) CreateOrder(order *model.Order) error {
	var agent *string
	if order.DeliveryAgent != nil {
		agent = &order.DeliveryAgent.Username
	}
	_, err := s.db.Exec(
		`INSERT INTO orders (id, number, request_id, retailer_id, distributor_id, product_id,
		                     quantity, price, agent_username, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID.String(), order.Number, order.RequestID.String(),
		order.Retailer.ID.String(), order.Distributor.ID.String(), order.Product.ID.String(),
		order.Quantity, order.PriceCents, agent, order.Status.String(), order.CreatedAt,
	)
	// The orders table carries a UNIQUE key on request_id; the loser of
	// a concurrent double generation hits it here.
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return model.ErrConflict
	}
	return errors.Wrap(err, "insert order")
}

func (s *MySQL) FindOrder(id uuid.UUID) (*model.Order, error) {
	return s.getOrder(orderSelect+" WHERE o.id = ?", id.String())
}

func (s *MySQL) FindOrderByRequest(requestID uuid.UUID) (*model.Order, error) {
	return s.getOrder(orderSelect+" WHERE o.request_id = ?", requestID.String())
}

func (s *MySQL) getOrder(query string, args ...interface{}) (*model.Order, error) {
	var row orderRow
	err := s.db.Get(&row, query, args...)
	if err == sql.ErrNoRows {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	order, err := row.toOrder()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MySQL) UpdateOrder(order *model.Order) error {
	res, err := s.db.Exec(
		"UPDATE orders SET status = ?, paid_at = ?, dispatched_at = ?, delivered_at = ? WHERE id = ?",
		order.Status.String(), order.PaymentTimestamp, order.DispatchedAt, order.DeliveredAt, order.ID.String(),
	)
	if err != nil {
		return errors.Wrap(err, "update order")
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

func (s *MySQL) ListOrdersByRetailer(retailerID uuid.UUID) ([]model.Order, error) {
	return s.selectOrders(orderSelect+" WHERE o.retailer_id = ? ORDER BY o.number", retailerID.String())
}

func (s *MySQL) ListOrdersByDistributor(distributorID uuid.UUID) ([]model.Order, error) {
	return s.selectOrders(orderSelect+" WHERE o.distributor_id = ? ORDER BY o.number", distributorID.String())
}

func (s *MySQL) ListOrdersByAgent(username string) ([]model.Order, error) {
	return s.selectOrders(orderSelect+" WHERE o.agent_username = ? ORDER BY o.number", username)
}

func (s *MySQL) selectOrders(query string, args ...interface{}) ([]model.Order, error) {
	var rows []orderRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *MySQL) SeedUser(user User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, username, password, email, role) VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE email = VALUES(email)`,
		user.ID.String(), user.Username, user.Password, user.Email, user.Role.String(),
	)
	return errors.Wrap(err, "seed user")
}

func (s *MySQL) SeedProduct(product model.ProductRef) error {
	_, err := s.db.Exec(
		`INSERT INTO products (id, name, category, price) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE price = VALUES(price)`,
		product.ID.String(), product.Name, product.Category, product.PriceCents,
	)
	return errors.Wrap(err, "seed product")
}

func (s *MySQL) SeedAgent(agent model.DeliveryAgent) error {
	_, err := s.db.Exec(
		`INSERT INTO agents (id, username, email, phone) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE email = VALUES(email)`,
		agent.ID.String(), agent.Username, agent.Email, agent.Phone,
	)
	return errors.Wrap(err, "seed agent")
}
