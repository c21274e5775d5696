package model

import "github.com/google/uuid"

// PaymentIntent is the token handed back by the payment processor via
// the backend. OrderID ties the eventual confirmation result back to
// the order the retailer is paying for.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	OrderID      uuid.UUID
	AmountCents  int64
	Currency     string
}

type CardDetails struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVC      string
}
