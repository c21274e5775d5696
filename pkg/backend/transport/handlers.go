package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"procurement/pkg/backend/storage"
	"procurement/pkg/domain/model"
)

const sessionCookie = "procurement_session"

// Server implements the REST surface the client consumes, together
// with a fake card processor under /processor so the whole payment
// loop can run locally.
type Server struct {
	repo storage.Repository

	mu       sync.Mutex
	sessions map[string]storage.User
	intents  map[string]uuid.UUID // client secret -> order
}

func NewServer(repo storage.Repository) *Server {
	return &Server{
		repo:     repo,
		sessions: make(map[string]storage.User),
		intents:  make(map[string]uuid.UUID),
	}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", s.me).Methods(http.MethodGet)

	r.HandleFunc("/retailer/request/view-request", s.retailerRequests).Methods(http.MethodGet)
	r.HandleFunc("/retailer/request/generate-request", s.generateRequest).Methods(http.MethodPost)
	r.HandleFunc("/retailer/request/delete-request/{id}", s.deleteRequest).Methods(http.MethodDelete)

	r.HandleFunc("/distributor/request/view-requests", s.distributorRequests).Methods(http.MethodGet)
	r.HandleFunc("/distributor/request/change-status/{id}", s.changeRequestStatus).Methods(http.MethodPost)
	r.HandleFunc("/distributor/order/generate-order/{requestId}", s.generateOrder).Methods(http.MethodPost)
	r.HandleFunc("/distributor/order/get-agents", s.agents).Methods(http.MethodGet)
	r.HandleFunc("/distributor/order/view-orders", s.distributorOrders).Methods(http.MethodGet)

	r.HandleFunc("/retailer/order/view-orders", s.retailerOrders).Methods(http.MethodGet)
	r.HandleFunc("/retailer/order/payment/{orderId}", s.initiatePayment).Methods(http.MethodPost)

	r.HandleFunc("/delivery/order/view-orders", s.deliveryOrders).Methods(http.MethodGet)
	r.HandleFunc("/delivery/order/change-order-status/{id}", s.changeOrderStatus).Methods(http.MethodPost)

	r.HandleFunc("/processor/v1/payment_intents/confirm", s.confirmIntent).Methods(http.MethodPost)

	return logMiddleware(r)
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.WithError(err).Error("write response body")
		}
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// --- auth ---

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "malformed login body")
		return
	}

	user, err := s.repo.FindUserByUsername(body.Username)
	if err != nil || user.Password != body.Password {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = *user
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/"})
	writeJSON(w, http.StatusOK, userToJSON(model.UserRef{ID: user.ID, Username: user.Username, Email: user.Email}))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userToJSON(model.UserRef{ID: user.ID, Username: user.Username, Email: user.Email}))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (storage.User, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return storage.User{}, false
	}
	s.mu.Lock()
	user, ok := s.sessions[cookie.Value]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unknown session")
		return storage.User{}, false
	}
	return user, true
}

func (s *Server) sessionWithRole(w http.ResponseWriter, r *http.Request, role model.Role) (storage.User, bool) {
	user, ok := s.session(w, r)
	if !ok {
		return storage.User{}, false
	}
	if user.Role != role {
		writeError(w, http.StatusForbidden, "forbidden", "role "+user.Role.String()+" may not call this endpoint")
		return storage.User{}, false
	}
	return user, true
}

// --- requests ---

func (s *Server) retailerRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleRetailer)
	if !ok {
		return
	}
	requests, err := s.repo.ListRequestsByRetailer(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, requestsToJSON(requests))
}

func (s *Server) distributorRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleDistributor)
	if !ok {
		return
	}
	requests, err := s.repo.ListRequestsByDistributor(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, requestsToJSON(requests))
}

func (s *Server) generateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleRetailer)
	if !ok {
		return
	}

	var body struct {
		ProductID     uuid.UUID `json:"productId"`
		DistributorID uuid.UUID `json:"distributorId"`
		Quantity      int       `json:"quantity"`
		Price         int64     `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "malformed request body")
		return
	}
	if body.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "quantity must be positive")
		return
	}

	product, err := s.repo.FindProduct(body.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "unknown product")
		return
	}
	distributor, err := s.repo.FindUserByID(body.DistributorID)
	if err != nil || distributor.Role != model.RoleDistributor {
		writeError(w, http.StatusBadRequest, "validation", "unknown distributor")
		return
	}

	id, err := s.repo.NextID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	price := body.Price
	if price == 0 {
		price = product.PriceCents * int64(body.Quantity)
	}

	request := &model.Request{
		ID:          id,
		Retailer:    model.UserRef{ID: user.ID, Username: user.Username, Email: user.Email},
		Distributor: model.UserRef{ID: distributor.ID, Username: distributor.Username, Email: distributor.Email},
		Product:     *product,
		Quantity:    body.Quantity,
		PriceCents:  price,
		Status:      model.RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateRequest(request); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, requestToJSON(*request))
}

func (s *Server) changeRequestStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionWithRole(w, r, model.RoleDistributor); !ok {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "malformed request id")
		return
	}
	status, err := model.ParseRequestStatus(r.URL.Query().Get("status"))
	if err != nil || status == model.RequestPending {
		writeError(w, http.StatusBadRequest, "validation", "status must be ACCEPTED or REJECTED")
		return
	}

	request, err := s.repo.FindRequest(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "request_not_found", "no such request")
		return
	}
	if !request.Status.CanTransitionTo(status) {
		writeError(w, http.StatusUnprocessableEntity, "invalid_transition",
			"request is "+request.Status.String()+", only PENDING requests can change status")
		return
	}

	request.Status = status
	if err := s.repo.UpdateRequest(request); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, requestToJSON(*request))
}

func (s *Server) deleteRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleRetailer)
	if !ok {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "malformed request id")
		return
	}

	request, err := s.repo.FindRequest(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "request_not_found", "no such request")
		return
	}
	if request.Retailer.ID != user.ID {
		writeError(w, http.StatusForbidden, "forbidden", "not your request")
		return
	}
	if request.Status == model.RequestAccepted {
		writeError(w, http.StatusConflict, "conflict", "request already converted to an order")
		return
	}

	if err := s.repo.DeleteRequest(id); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// --- orders ---

func (s *Server) generateOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionWithRole(w, r, model.RoleDistributor); !ok {
		return
	}

	requestID, err := uuid.Parse(mux.Vars(r)["requestId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "malformed request id")
		return
	}
	var body struct {
		DeliveryAgent string `json:"deliveryAgent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeliveryAgent == "" {
		writeError(w, http.StatusBadRequest, "validation", "deliveryAgent is required")
		return
	}

	request, err := s.repo.FindRequest(requestID)
	if err != nil {
		writeError(w, http.StatusNotFound, "request_not_found", "no such request")
		return
	}
	if request.Status != model.RequestAccepted {
		writeError(w, http.StatusUnprocessableEntity, "invalid_transition",
			"only ACCEPTED requests can be converted to orders")
		return
	}
	if _, err := s.repo.FindOrderByRequest(requestID); err == nil {
		writeError(w, http.StatusConflict, "conflict", "order already generated for this request")
		return
	}
	agent, err := s.repo.FindAgentByUsername(body.DeliveryAgent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "unknown delivery agent")
		return
	}

	id, err := s.repo.NextID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	number, err := s.repo.NextOrderNumber()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	order := &model.Order{
		ID:            id,
		Number:        number,
		RequestID:     requestID,
		Retailer:      request.Retailer,
		Distributor:   request.Distributor,
		Product:       request.Product,
		Quantity:      request.Quantity,
		PriceCents:    request.PriceCents,
		DeliveryAgent: &model.AgentRef{ID: agent.ID, Username: agent.Username},
		Status:        model.OrderPending,
		CreatedAt:     time.Now().UTC(),
	}
	// The list check above is only a fast path; the repository enforces
	// one order per request atomically and the loser of a concurrent
	// double submit surfaces here.
	if err := s.repo.CreateOrder(order); err != nil {
		if errors.Is(err, model.ErrConflict) {
			writeError(w, http.StatusConflict, "conflict", "order already generated for this request")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, orderToJSON(*order))
}

func (s *Server) agents(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionWithRole(w, r, model.RoleDistributor); !ok {
		return
	}
	agents, err := s.repo.ListAgents()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, agentsToJSON(agents))
}

func (s *Server) retailerOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleRetailer)
	if !ok {
		return
	}
	orders, err := s.repo.ListOrdersByRetailer(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ordersToJSON(orders))
}

func (s *Server) distributorOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleDistributor)
	if !ok {
		return
	}
	orders, err := s.repo.ListOrdersByDistributor(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ordersToJSON(orders))
}

func (s *Server) deliveryOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleDeliveryAgent)
	if !ok {
		return
	}
	orders, err := s.repo.ListOrdersByAgent(user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ordersToJSON(orders))
}

// --- payment ---

func (s *Server) initiatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleRetailer)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "malformed order id")
		return
	}
	var body struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "payment_failed", "malformed payment body")
		return
	}
	if body.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "payment_failed", "amount must be positive")
		return
	}

	order, err := s.repo.FindOrder(orderID)
	if err != nil {
		writeError(w, http.StatusNotFound, "order_not_found", "no such order")
		return
	}
	if order.Retailer.ID != user.ID {
		writeError(w, http.StatusForbidden, "forbidden", "not your order")
		return
	}
	if order.Status != model.OrderPending {
		writeError(w, http.StatusUnprocessableEntity, "invalid_transition", "order is already "+order.Status.String())
		return
	}

	secret := "cs_" + uuid.NewString()
	s.mu.Lock()
	s.intents[secret] = orderID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":           "pi_" + uuid.NewString(),
		"clientSecret": secret,
		"amount":       body.Amount,
		"currency":     body.Currency,
	})
}

// confirmIntent is the fake card processor. A card number ending in
// 0002 is declined, everything else succeeds and marks the order paid.
func (s *Server) confirmIntent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientSecret string `json:"clientSecret"`
		Card         struct {
			Number string `json:"number"`
		} `json:"card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"error": map[string]string{"message": "malformed confirmation"}})
		return
	}

	s.mu.Lock()
	orderID, ok := s.intents[body.ClientSecret]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"error": map[string]string{"message": "unknown client secret"}})
		return
	}
	if strings.HasSuffix(body.Card.Number, "0002") {
		writeJSON(w, http.StatusOK, map[string]interface{}{"error": map[string]string{"message": "your card was declined"}})
		return
	}

	order, err := s.repo.FindOrder(orderID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"error": map[string]string{"message": "order is gone"}})
		return
	}
	if order.Status.CanAdvanceTo(model.OrderPaid) {
		now := time.Now().UTC()
		order.Status = model.OrderPaid
		order.PaymentTimestamp = &now
		if err := s.repo.UpdateOrder(order); err != nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"error": map[string]string{"message": err.Error()}})
			return
		}
	}

	s.mu.Lock()
	delete(s.intents, body.ClientSecret)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "succeeded"})
}

// --- delivery ---

func (s *Server) changeOrderStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionWithRole(w, r, model.RoleDeliveryAgent)
	if !ok {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "malformed order id")
		return
	}
	status, err := model.ParseOrderStatus(r.URL.Query().Get("status"))
	if err != nil || (status != model.OrderDispatched && status != model.OrderDelivered) {
		writeError(w, http.StatusBadRequest, "validation", "status must be DISPATCHED or DELIVERED")
		return
	}

	order, err := s.repo.FindOrder(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "order_not_found", "no such order")
		return
	}
	if order.DeliveryAgent == nil || order.DeliveryAgent.Username != user.Username {
		writeError(w, http.StatusForbidden, "forbidden", "order is not assigned to you")
		return
	}
	if !order.Status.CanAdvanceTo(status) {
		writeError(w, http.StatusUnprocessableEntity, "invalid_transition",
			"order is "+order.Status.String()+", cannot move to "+status.String())
		return
	}
	if status == model.OrderDispatched && !order.CanDispatch() {
		writeError(w, http.StatusUnprocessableEntity, "invalid_transition", "order must be paid and assigned before dispatch")
		return
	}

	now := time.Now().UTC()
	order.Status = status
	if status == model.OrderDispatched {
		order.DispatchedAt = &now
	} else {
		order.DeliveredAt = &now
	}
	if err := s.repo.UpdateOrder(order); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orderToJSON(*order))
}
