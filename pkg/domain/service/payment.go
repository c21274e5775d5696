package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"procurement/pkg/domain/model"
)

// PaymentService drives the third-party confirmation flow for the
// retailer dashboard. It is deliberately isolated from the rest of the
// state machine: a processor failure leaves the order PENDING and
// retryable, and a confirmation that lands after the dialog was closed
// is discarded instead of being applied to an order nobody is waiting
// on anymore.
type PaymentService interface {
	Initiate(ctx context.Context, orderID uuid.UUID, amountCents int64) (model.PaymentIntent, error)
	Confirm(ctx context.Context, intent model.PaymentIntent, card model.CardDetails) (*model.Order, error)
	Abandon()
}

func NewPaymentService(initiator PaymentInitiator, processor CardProcessor, orders OrderService, currency string, dispatcher EventDispatcher) PaymentService {
	return &paymentService{
		initiator:  initiator,
		processor:  processor,
		orders:     orders,
		currency:   currency,
		dispatcher: dispatcher,
	}
}

type paymentService struct {
	initiator  PaymentInitiator
	processor  CardProcessor
	orders     OrderService
	currency   string
	dispatcher EventDispatcher

	mu       sync.Mutex
	awaiting uuid.UUID // order currently shown in the payment dialog
}

func (s *paymentService) Initiate(ctx context.Context, orderID uuid.UUID, amountCents int64) (model.PaymentIntent, error) {
	if amountCents <= 0 {
		return model.PaymentIntent{}, errors.WithMessage(model.ErrPaymentInit, "amount must be positive")
	}

	intent, err := s.initiator.InitiatePayment(ctx, orderID, amountCents, s.currency)
	if err != nil {
		if errors.Is(err, model.ErrPaymentInit) {
			return model.PaymentIntent{}, err
		}
		return model.PaymentIntent{}, errors.WithMessage(model.ErrPaymentInit, err.Error())
	}

	s.mu.Lock()
	s.awaiting = orderID
	s.mu.Unlock()

	return intent, nil
}

func (s *paymentService) Confirm(ctx context.Context, intent model.PaymentIntent, card model.CardDetails) (*model.Order, error) {
	confirmErr := s.processor.Confirm(ctx, intent.ClientSecret, card)

	// Stale-callback guard: the result only applies while this order
	// is still the one being awaited.
	s.mu.Lock()
	still := s.awaiting == intent.OrderID
	s.mu.Unlock()
	if !still {
		return nil, model.ErrPaymentAbandoned
	}

	if confirmErr != nil {
		_ = s.dispatcher.Dispatch(model.PaymentFailed{OrderID: intent.OrderID, Reason: confirmErr.Error()})
		return nil, confirmErr
	}

	order, err := s.orders.markPaid(intent.OrderID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.awaiting = uuid.Nil
	s.mu.Unlock()

	_ = s.dispatcher.Dispatch(model.PaymentConfirmed{OrderID: order.ID, AmountCents: intent.AmountCents})
	return order, nil
}

// Abandon marks the current payment dialog as closed. Any in-flight
// confirmation result for it will be dropped on arrival.
func (s *paymentService) Abandon() {
	s.mu.Lock()
	s.awaiting = uuid.Nil
	s.mu.Unlock()
}
