package errors

import "errors"

var (
	ErrNoEarningsInPeriod = errors.New("courier has no earnings in payout period")
	ErrPayoutExists       = errors.New("payout already generated for courier and period")
	ErrPayoutNotFound     = errors.New("courier payout not found")
	ErrInvalidStatus      = errors.New("payout status is not recognized")
	ErrInvalidPayoutInput = errors.New("payout input is invalid")
)
