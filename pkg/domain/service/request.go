package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"procurement/pkg/domain/model"
)

// RequestService is one dashboard's view of Request entities. It is a
// cache-and-intent layer: every mutation goes to the backend first and
// only on success patches the single affected cache entry. Cross-view
// consistency comes from Refresh, never from observing another
// store's writes.
type RequestService interface {
	Requests() []model.Request
	Refresh(ctx context.Context) error
	Create(ctx context.Context, productID, distributorID uuid.UUID, quantity int, priceCents int64) (*model.Request, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (*model.Request, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func NewRequestService(role model.Role, gw RequestGateway, dispatcher EventDispatcher) RequestService {
	return &requestService{role: role, gw: gw, dispatcher: dispatcher}
}

type requestService struct {
	role       model.Role
	gw         RequestGateway
	dispatcher EventDispatcher

	mu    sync.Mutex
	cache []model.Request
}

func (s *requestService) Requests() []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]model.Request, len(s.cache))
	copy(snapshot, s.cache)
	return snapshot
}

func (s *requestService) Refresh(ctx context.Context) error {
	requests, err := s.gw.ViewRequests(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache = requests
	s.mu.Unlock()

	_ = s.dispatcher.Dispatch(model.CacheRefreshed{Role: s.role.String(), Entries: len(requests)})
	return nil
}

func (s *requestService) Create(ctx context.Context, productID, distributorID uuid.UUID, quantity int, priceCents int64) (*model.Request, error) {
	if s.role != model.RoleRetailer {
		return nil, model.ErrRoleNotAllowed
	}
	if quantity <= 0 {
		return nil, model.ErrValidation
	}

	request, err := s.gw.GenerateRequest(ctx, productID, distributorID, quantity, priceCents)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache = append(s.cache, request)
	s.mu.Unlock()

	_ = s.dispatcher.Dispatch(model.RequestCreated{
		RequestID:  request.ID,
		RetailerID: request.Retailer.ID,
		ProductID:  request.Product.ID,
		Quantity:   request.Quantity,
	})
	return &request, nil
}

func (s *requestService) SetStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (*model.Request, error) {
	if s.role != model.RoleDistributor {
		return nil, model.ErrRoleNotAllowed
	}
	if status != model.RequestAccepted && status != model.RequestRejected {
		return nil, model.ErrValidation
	}

	// Reject locally when the cached copy already shows a terminal
	// state; the backend revalidates against its own copy anyway.
	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == id && !s.cache[i].Status.CanTransitionTo(status) {
			s.mu.Unlock()
			return nil, model.ErrInvalidTransition
		}
	}
	s.mu.Unlock()

	request, err := s.gw.ChangeRequestStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.patch(request)

	_ = s.dispatcher.Dispatch(model.RequestStatusChanged{
		RequestID: id,
		OldStatus: model.RequestPending,
		NewStatus: status,
	})
	return &request, nil
}

func (s *requestService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.role != model.RoleRetailer {
		return model.ErrRoleNotAllowed
	}

	// An accepted request has already been converted to an order and
	// must survive as its back-reference.
	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == id && s.cache[i].Status == model.RequestAccepted {
			s.mu.Unlock()
			return model.ErrConflict
		}
	}
	s.mu.Unlock()

	if err := s.gw.DeleteRequest(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	_ = s.dispatcher.Dispatch(model.RequestDeleted{RequestID: id})
	return nil
}

// patch replaces the single cache entry matching the request's ID, or
// appends when the entity was not cached yet. No other entry is touched.
func (s *requestService) patch(request model.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cache {
		if s.cache[i].ID == request.ID {
			s.cache[i] = request
			return
		}
	}
	s.cache = append(s.cache, request)
}
