package event

import "github.com/google/uuid"

type WhitelistChanged struct {
	ID     uuid.UUID
	Caller uuid.UUID
	User   uuid.UUID
	Added  bool
}

func (e *WhitelistChanged) EventID() uuid.UUID { return e.ID }

func (e *WhitelistChanged) EventType() EventType {
	if e.Added {
		return EventTypeWhitelistAdded
	}
	return EventTypeWhitelistRemoved
}

func (e *WhitelistChanged) UserID() *uuid.UUID { return &e.User }

type AssetChanged struct {
	ID     uuid.UUID
	Caller uuid.UUID
	Symbol string
	Added  bool
}

func (e *AssetChanged) EventID() uuid.UUID { return e.ID }

func (e *AssetChanged) EventType() EventType {
	if e.Added {
		return EventTypeAssetAdded
	}
	return EventTypeAssetRemoved
}

func (e *AssetChanged) UserID() *uuid.UUID { return nil }

type AccountCreated struct {
	ID      uuid.UUID
	User    uuid.UUID
	Account string
}

func (e *AccountCreated) EventID() uuid.UUID   { return e.ID }
func (e *AccountCreated) EventType() EventType { return EventTypeAccountCreated }
func (e *AccountCreated) UserID() *uuid.UUID   { return &e.User }
