package errors

import "errors"

var (
	ErrInvalidDeliveryInput = errors.New("delivery input is invalid")
	ErrCalculationNotFound  = errors.New("earnings calculation not found")
	ErrInvalidPeriod        = errors.New("period start must precede period end")
)
