package services

import "errors"

// Sentinel errors surfaced by the scoring and ledger services. Controllers map
// these to HTTP status codes; anything else is treated as an internal failure.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRecordNotFound = errors.New("brushing record not found")
	ErrInvalidState   = errors.New("points ledger invariant violated")
	ErrTrainingFailed = errors.New("engagement model training failed")
)
