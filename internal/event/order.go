package event

import "github.com/google/uuid"

type IncreaseSubmitted struct {
	ID         uuid.UUID
	User       uuid.UUID
	OrderKey   string
	IndexAsset string
	IsLong     bool
	Margin     int64 // escrowed, settlement asset minor units
}

func (e *IncreaseSubmitted) EventID() uuid.UUID   { return e.ID }
func (e *IncreaseSubmitted) EventType() EventType { return EventTypeIncreaseSubmitted }
func (e *IncreaseSubmitted) UserID() *uuid.UUID   { return &e.User }

type DecreaseSubmitted struct {
	ID         uuid.UUID
	User       uuid.UUID
	IndexAsset string
	IsLong     bool
}

func (e *DecreaseSubmitted) EventID() uuid.UUID   { return e.ID }
func (e *DecreaseSubmitted) EventType() EventType { return EventTypeDecreaseSubmitted }
func (e *DecreaseSubmitted) UserID() *uuid.UUID   { return &e.User }

// OrderCancelled records a venue-confirmed cancellation with the
// margin refunded to free collateral.
type OrderCancelled struct {
	ID       uuid.UUID
	User     uuid.UUID
	OrderKey string
	Refunded int64
}

func (e *OrderCancelled) EventID() uuid.UUID   { return e.ID }
func (e *OrderCancelled) EventType() EventType { return EventTypeOrderCancelled }
func (e *OrderCancelled) UserID() *uuid.UUID   { return &e.User }

// OrderFinalized records an order the venue executed before the
// cancellation attempt; escrow was consumed, nothing refunded.
type OrderFinalized struct {
	ID       uuid.UUID
	User     uuid.UUID
	OrderKey string
	Consumed int64
}

func (e *OrderFinalized) EventID() uuid.UUID   { return e.ID }
func (e *OrderFinalized) EventType() EventType { return EventTypeOrderFinalized }
func (e *OrderFinalized) UserID() *uuid.UUID   { return &e.User }
