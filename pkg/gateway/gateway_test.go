package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/pkg/domain/model"
	"procurement/pkg/gateway"
)

// fakeBackend is a scripted mux server: enough of the REST surface to
// pin down session handling and error normalization.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()

	r.HandleFunc("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "procurement_session", Value: "tok", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)

	r.HandleFunc("/distributor/request/view-requests", func(w http.ResponseWriter, req *http.Request) {
		if cookie, err := req.Cookie("procurement_session"); err != nil || cookie.Value != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "unauthorized", "message": "missing session"})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"requestId":   uuid.NewString(),
				"retailer":    map[string]string{"id": uuid.NewString(), "username": "retailer1"},
				"distributor": map[string]string{"id": uuid.NewString(), "username": "distributor1"},
				"product":     map[string]interface{}{"id": uuid.NewString(), "name": "Basmati Rice 5kg", "category": "Grocery", "price": 1250},
				"quantity":    5,
				"price":       6250,
				"status":      "PENDING",
				"createdAt":   time.Now().UTC().Format(time.RFC3339Nano),
			},
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/distributor/request/change-status/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "invalid_transition", "message": "request is ACCEPTED"})
	}).Methods(http.MethodPost)

	r.HandleFunc("/distributor/order/generate-order/{requestId}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "conflict", "message": "order already generated"})
	}).Methods(http.MethodPost)

	r.HandleFunc("/retailer/request/generate-request", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "validation", "message": "quantity must be positive"})
	}).Methods(http.MethodPost)

	r.HandleFunc("/retailer/request/delete-request/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "request_not_found", "message": "no such request"})
	}).Methods(http.MethodDelete)

	return httptest.NewServer(r)
}

func TestClient_SessionCookieIsCarried(t *testing.T) {
	server := fakeBackend(t)
	defer server.Close()

	client, err := gateway.New(server.URL)
	require.NoError(t, err)

	// Without a login the backend refuses the listing.
	_, err = client.DistributorRequests(context.Background())
	assert.ErrorIs(t, err, model.ErrRoleNotAllowed)

	require.NoError(t, client.Login(context.Background(), "distributor1", "distributor1"))

	requests, err := client.DistributorRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, model.RequestPending, requests[0].Status)
	assert.Equal(t, int64(6250), requests[0].PriceCents)
	assert.Equal(t, "Basmati Rice 5kg", requests[0].Product.Name)
}

func TestClient_ErrorNormalization(t *testing.T) {
	server := fakeBackend(t)
	defer server.Close()

	client, err := gateway.New(server.URL)
	require.NoError(t, err)
	require.NoError(t, client.Login(context.Background(), "x", "x"))

	_, err = client.ChangeRequestStatus(context.Background(), uuid.New(), model.RequestAccepted)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "request is ACCEPTED")

	_, err = client.GenerateOrder(context.Background(), uuid.New(), "agent007")
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = client.GenerateRequest(context.Background(), uuid.New(), uuid.New(), 0, 0)
	assert.ErrorIs(t, err, model.ErrValidation)

	err = client.DeleteRequest(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrRequestNotFound)
}

func TestClient_BaseURLWithPathPrefix(t *testing.T) {
	// The backend may sit behind a reverse proxy that mounts it under a
	// path; the configured base prefix must survive endpoint calls.
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "procurement_session", Value: "tok", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
	api.HandleFunc("/retailer/request/view-request", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(r)
	defer server.Close()

	client, err := gateway.New(server.URL + "/api")
	require.NoError(t, err)
	require.NoError(t, client.Login(context.Background(), "retailer1", "retailer1"))

	requests, err := client.RetailerRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	server := fakeBackend(t)
	client, err := gateway.New(server.URL)
	require.NoError(t, err)
	server.Close()

	_, err = client.RetailerRequests(context.Background())

	assert.ErrorIs(t, err, model.ErrNetwork)
}
