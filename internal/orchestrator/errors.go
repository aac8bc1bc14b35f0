package orchestrator

import (
	"errors"

	"PerpGateway/internal/registry"
)

// Registry sentinels re-exported so callers match against one package.
var (
	ErrNotOwner             = registry.ErrNotOwner
	ErrUserNotWhitelisted   = registry.ErrUserNotWhitelisted
	ErrAccountAlreadyExists = registry.ErrAccountAlreadyExists
	ErrNoAccount            = registry.ErrNoAccount
	ErrAssetNotSupported    = registry.ErrAssetNotSupported
)

var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInsufficientBalance  = errors.New("insufficient free balance")
	ErrNativeFeeMismatch    = errors.New("attached native value must equal the execution fee")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotOrderOwner        = errors.New("caller does not own the order")
	ErrOrderNotCancellable  = errors.New("order is not in a cancellable state")
	ErrOrderAlreadyExecuted = errors.New("order was executed before cancellation")
	ErrCancellationTooEarly = errors.New("minimum cancellation delay has not elapsed")
)
