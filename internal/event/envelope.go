package event

import (
	"time"

	"github.com/google/uuid"
)

// EventType discriminator for notification payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeWhitelistAdded
	EventTypeWhitelistRemoved
	EventTypeAssetAdded
	EventTypeAssetRemoved
	EventTypeAccountCreated
	EventTypeMarginDeposited
	EventTypeMarginWithdrawn
	EventTypeIncreaseSubmitted
	EventTypeDecreaseSubmitted
	EventTypeOrderCancelled
	EventTypeOrderFinalized
)

// Envelope wraps every notification in the outbound log
type Envelope struct {
	// Unique event identity, also the dedup key downstream
	EventID uuid.UUID

	// Gateway-assigned monotonic sequence
	Sequence uint64

	// Event type discriminator
	EventType EventType

	// User context (nil for admin events with no user)
	UserID *uuid.UUID

	// Wall-clock time the transition was applied
	Timestamp time.Time

	// JSON-encoded event-specific data
	Payload []byte
}

// Event is the interface all notification payloads implement
type Event interface {
	// EventID returns the unique event identity
	EventID() uuid.UUID

	// EventType returns the discriminator
	EventType() EventType

	// UserID returns the user context (nil for global admin events)
	UserID() *uuid.UUID
}

func (et EventType) String() string {
	switch et {
	case EventTypeWhitelistAdded:
		return "WhitelistAdded"
	case EventTypeWhitelistRemoved:
		return "WhitelistRemoved"
	case EventTypeAssetAdded:
		return "AssetAdded"
	case EventTypeAssetRemoved:
		return "AssetRemoved"
	case EventTypeAccountCreated:
		return "AccountCreated"
	case EventTypeMarginDeposited:
		return "MarginDeposited"
	case EventTypeMarginWithdrawn:
		return "MarginWithdrawn"
	case EventTypeIncreaseSubmitted:
		return "IncreaseSubmitted"
	case EventTypeDecreaseSubmitted:
		return "DecreaseSubmitted"
	case EventTypeOrderCancelled:
		return "OrderCancelled"
	case EventTypeOrderFinalized:
		return "OrderFinalized"
	default:
		return "Unknown"
	}
}

// Subject returns the NATS subject suffix for the event type
func (et EventType) Subject() string {
	switch et {
	case EventTypeWhitelistAdded:
		return "whitelist.added"
	case EventTypeWhitelistRemoved:
		return "whitelist.removed"
	case EventTypeAssetAdded:
		return "asset.added"
	case EventTypeAssetRemoved:
		return "asset.removed"
	case EventTypeAccountCreated:
		return "account.created"
	case EventTypeMarginDeposited:
		return "margin.deposited"
	case EventTypeMarginWithdrawn:
		return "margin.withdrawn"
	case EventTypeIncreaseSubmitted:
		return "increase.submitted"
	case EventTypeDecreaseSubmitted:
		return "decrease.submitted"
	case EventTypeOrderCancelled:
		return "order.cancelled"
	case EventTypeOrderFinalized:
		return "order.finalized"
	default:
		return "unknown"
	}
}
