package model

import "errors"

// Failure taxonomy shared by every store. Store operations wrap these
// sentinels so that UI code can branch with errors.Is without parsing
// messages.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("status transition not permitted from current state")
	ErrConflict          = errors.New("entity already referenced or transitioned")
	ErrPaymentInit       = errors.New("payment initiation failed")
	ErrPaymentDeclined   = errors.New("payment declined by processor")
	ErrPaymentAbandoned  = errors.New("payment result no longer awaited")
	ErrNetwork           = errors.New("network failure")
	ErrRoleNotAllowed    = errors.New("operation not permitted for this role")
)
