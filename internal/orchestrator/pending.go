package orchestrator

import (
	"math/big"
	"time"

	"PerpGateway/internal/venue"

	"github.com/google/uuid"
)

// OrderStatus is the local lifecycle state of a tracked increase order
type OrderStatus uint8

const (
	StatusSubmitted OrderStatus = iota
	StatusCancelled
	StatusFinalized
)

func (s OrderStatus) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusCancelled:
		return "cancelled"
	case StatusFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// PendingOrder tracks one submitted increase order. Only increases
// escrow local funds, so only increases are tracked; decreases are
// fire-and-forget at the venue.
type PendingOrder struct {
	OrderKey     venue.OrderKey
	Owner        uuid.UUID
	Account      string
	IndexAsset   string
	IsLong       bool
	Margin       int64 // escrowed, settlement minor units
	ExecutionFee *big.Int
	SubmittedAt  time.Time
	Status       OrderStatus
}

// OrderTable holds tracked orders keyed by the venue order key.
// Keys are venue-assigned and never reused; entries are kept after
// terminal transitions for status queries. Not safe for concurrent
// use; the orchestrator mutex serializes access.
type OrderTable struct {
	orders map[venue.OrderKey]*PendingOrder
}

func NewOrderTable() *OrderTable {
	return &OrderTable{
		orders: make(map[venue.OrderKey]*PendingOrder),
	}
}

func (t *OrderTable) Add(order *PendingOrder) {
	t.orders[order.OrderKey] = order
}

// Get returns a copy so callers cannot mutate tracked state
func (t *OrderTable) Get(key venue.OrderKey) (PendingOrder, bool) {
	order, ok := t.orders[key]
	if !ok {
		return PendingOrder{}, false
	}
	copied := *order
	copied.ExecutionFee = new(big.Int).Set(order.ExecutionFee)
	return copied, true
}

func (t *OrderTable) SetStatus(key venue.OrderKey, status OrderStatus) {
	if order, ok := t.orders[key]; ok {
		order.Status = status
	}
}

// SubmittedCount returns the number of orders still awaiting execution
// or cancellation.
func (t *OrderTable) SubmittedCount() int {
	n := 0
	for _, order := range t.orders {
		if order.Status == StatusSubmitted {
			n++
		}
	}
	return n
}
