package event

import "github.com/google/uuid"

type MarginDeposited struct {
	ID     uuid.UUID
	User   uuid.UUID
	Amount int64 // settlement asset minor units
}

func (e *MarginDeposited) EventID() uuid.UUID   { return e.ID }
func (e *MarginDeposited) EventType() EventType { return EventTypeMarginDeposited }
func (e *MarginDeposited) UserID() *uuid.UUID   { return &e.User }

type MarginWithdrawn struct {
	ID     uuid.UUID
	User   uuid.UUID
	Amount int64
}

func (e *MarginWithdrawn) EventID() uuid.UUID   { return e.ID }
func (e *MarginWithdrawn) EventType() EventType { return EventTypeMarginWithdrawn }
func (e *MarginWithdrawn) UserID() *uuid.UUID   { return &e.User }
