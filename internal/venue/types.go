// Package venue defines the boundary to the external execution venue.
// The venue owns price discovery, leverage checks, keeper-driven
// execution and liquidation; the gateway only submits requests and
// reads back state. Venue-scale values (token amounts, USD prices,
// native fees) are *big.Int; the gateway never does arithmetic on them
// beyond equality and threshold checks.
package venue

import (
	"context"
	"math/big"
)

// OrderKey is the venue-assigned identifier for a pending request.
// Keys are opaque and never reused.
type OrderKey string

// IncreaseRequest asks the venue to open or grow a leveraged position
type IncreaseRequest struct {
	Account         string   // venue sub-account identity
	CollateralAsset string   // settlement asset symbol
	IndexAsset      string   // asset the exposure tracks
	AmountIn        *big.Int // collateral transferred in, token units
	MinOut          *big.Int // minimum swap output, zero when no swap
	SizeDelta       *big.Int // position size delta, USD units
	IsLong          bool
	AcceptablePrice *big.Int
	ExecutionFee    *big.Int // native units, forwarded to the keeper
}

// DecreaseRequest asks the venue to shrink or close a position.
// Proceeds are paid by the venue to Receiver; the gateway keeps no
// local bookkeeping for decreases.
type DecreaseRequest struct {
	Account         string
	CollateralAsset string
	IndexAsset      string
	CollateralDelta *big.Int // USD units
	SizeDelta       *big.Int // USD units
	IsLong          bool
	Receiver        string
	AcceptablePrice *big.Int
	MinOut          *big.Int
	ExecutionFee    *big.Int
}

// Position is one leg as reported by the venue reader. Zero values
// mean no open position for that leg.
type Position struct {
	Size              *big.Int // USD units
	Collateral        *big.Int // USD units
	AveragePrice      *big.Int
	EntryFundingRate  *big.Int
	HasRealisedProfit bool
	RealisedPnl       *big.Int
	LastIncreasedTime *big.Int
	HasProfit         bool
	Delta             *big.Int
}

// PositionQuery names the legs to read, index-aligned
type PositionQuery struct {
	Account          string
	CollateralAssets []string
	IndexAssets      []string
	IsLong           []bool
}

// Router submits position requests to the venue
type Router interface {
	// CreateAccount mints an isolated sub-account identity
	CreateAccount(ctx context.Context) (string, error)

	// SubmitIncrease queues an increase request and returns its order key
	SubmitIncrease(ctx context.Context, req IncreaseRequest) (OrderKey, error)

	// SubmitDecrease queues a decrease request
	SubmitDecrease(ctx context.Context, req DecreaseRequest) (OrderKey, error)

	// CancelIncrease asks the venue to cancel a pending increase.
	// Returns true if the venue cancelled and refunded the request,
	// false if the order was no longer pending (already executed).
	CancelIncrease(ctx context.Context, account string, key OrderKey) (bool, error)

	// MinExecutionFee returns the venue's current keeper fee floor,
	// native units
	MinExecutionFee(ctx context.Context) (*big.Int, error)

	// IncreaseIndex returns the venue's per-account increase request
	// counter
	IncreaseIndex(ctx context.Context, account string) (*big.Int, error)
}

// Reader reads venue position and price state
type Reader interface {
	// Positions returns one entry per query leg, zeros for absent legs
	Positions(ctx context.Context, q PositionQuery) ([]Position, error)

	// MaxPrice returns the venue's max (ask-side) price for an index asset
	MaxPrice(ctx context.Context, indexAsset string) (*big.Int, error)

	// MinPrice returns the venue's min (bid-side) price for an index asset
	MinPrice(ctx context.Context, indexAsset string) (*big.Int, error)
}
