package service

import "errors"

var (
	ErrTripNotFound        = errors.New("trip not found")
	ErrDriverNotFound      = errors.New("driver not found")
	ErrDispatcherNotFound  = errors.New("dispatcher not found")
	ErrNameRequired        = errors.New("name is required")
	ErrNotTripOwner        = errors.New("trip is not assigned to this driver")
	ErrTripTaken           = errors.New("trip already taken by another driver")
	ErrDriverNotRegistered = errors.New("driver is not registered in telegram")
	ErrNoPendingWaybill    = errors.New("no waybill is expected from this chat")
	ErrInvalidStatus       = errors.New("invalid trip status")
	ErrDelivery            = errors.New("telegram delivery failed")
)
