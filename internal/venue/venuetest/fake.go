// Package venuetest provides an in-memory venue for tests. Keeper
// execution is manual: submitted increases stay pending until the test
// calls ExecuteIncrease, mirroring the venue's two-phase flow.
package venuetest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"PerpGateway/internal/venue"
)

type pendingIncrease struct {
	account      string
	indexAsset   string
	isLong       bool
	amountIn     *big.Int
	sizeDelta    *big.Int
	executionFee *big.Int
}

type positionLeg struct {
	account    string
	indexAsset string
	isLong     bool
}

// Fake implements venue.Router and venue.Reader in memory
type Fake struct {
	mu sync.Mutex

	minFee       *big.Int
	nextAccount  int
	nextOrder    int
	increaseIdx  map[string]int64
	pending      map[venue.OrderKey]*pendingIncrease
	executed     map[venue.OrderKey]bool
	cancelled    map[venue.OrderKey]bool
	positions    map[positionLeg]*venue.Position
	prices       map[string]*big.Int
	feeRefunds   map[string]*big.Int // account -> native refunded
	decreases    []venue.DecreaseRequest
	submitErr    error
	cancelErr    error
	createAcctFn func() (string, error)
}

var _ venue.Router = (*Fake)(nil)
var _ venue.Reader = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		minFee:      big.NewInt(100_000_000_000_000), // 0.0001 native
		increaseIdx: make(map[string]int64),
		pending:     make(map[venue.OrderKey]*pendingIncrease),
		executed:    make(map[venue.OrderKey]bool),
		cancelled:   make(map[venue.OrderKey]bool),
		positions:   make(map[positionLeg]*venue.Position),
		prices:      make(map[string]*big.Int),
		feeRefunds:  make(map[string]*big.Int),
	}
}

// FailNextSubmit makes the next SubmitIncrease or SubmitDecrease fail
func (f *Fake) FailNextSubmit(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitErr = err
}

// FailNextCancel makes the next CancelIncrease fail
func (f *Fake) FailNextCancel(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelErr = err
}

// SetMinExecutionFee overrides the keeper fee floor
func (f *Fake) SetMinExecutionFee(fee *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minFee = new(big.Int).Set(fee)
}

// SetPrice sets both max and min price for an index asset
func (f *Fake) SetPrice(indexAsset string, price *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[indexAsset] = new(big.Int).Set(price)
}

func (f *Fake) CreateAccount(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createAcctFn != nil {
		return f.createAcctFn()
	}
	f.nextAccount++
	return fmt.Sprintf("fake-account-%d", f.nextAccount), nil
}

func (f *Fake) SubmitIncrease(ctx context.Context, req venue.IncreaseRequest) (venue.OrderKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitErr != nil {
		err := f.submitErr
		f.submitErr = nil
		return "", err
	}
	if req.ExecutionFee.Cmp(f.minFee) < 0 {
		return "", fmt.Errorf("execution fee %s below minimum %s", req.ExecutionFee, f.minFee)
	}

	f.nextOrder++
	f.increaseIdx[req.Account]++
	key := venue.OrderKey(fmt.Sprintf("fake-order-%d", f.nextOrder))
	f.pending[key] = &pendingIncrease{
		account:      req.Account,
		indexAsset:   req.IndexAsset,
		isLong:       req.IsLong,
		amountIn:     new(big.Int).Set(req.AmountIn),
		sizeDelta:    new(big.Int).Set(req.SizeDelta),
		executionFee: new(big.Int).Set(req.ExecutionFee),
	}
	return key, nil
}

func (f *Fake) SubmitDecrease(ctx context.Context, req venue.DecreaseRequest) (venue.OrderKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitErr != nil {
		err := f.submitErr
		f.submitErr = nil
		return "", err
	}
	f.decreases = append(f.decreases, req)
	return "", nil
}

func (f *Fake) CancelIncrease(ctx context.Context, account string, key venue.OrderKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelErr != nil {
		err := f.cancelErr
		f.cancelErr = nil
		return false, err
	}

	order, ok := f.pending[key]
	if !ok {
		// executed or never existed; the venue reports no refund
		return false, nil
	}
	if order.account != account {
		return false, fmt.Errorf("account %s does not own order %s", account, key)
	}

	delete(f.pending, key)
	f.cancelled[key] = true

	refund, ok := f.feeRefunds[account]
	if !ok {
		refund = new(big.Int)
		f.feeRefunds[account] = refund
	}
	refund.Add(refund, order.executionFee)
	return true, nil
}

func (f *Fake) MinExecutionFee(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.minFee), nil
}

func (f *Fake) IncreaseIndex(ctx context.Context, account string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return big.NewInt(f.increaseIdx[account]), nil
}

// ExecuteIncrease plays the keeper: the pending order becomes an open
// position and can no longer be cancelled.
func (f *Fake) ExecuteIncrease(key venue.OrderKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.pending[key]
	if !ok {
		return fmt.Errorf("order %s is not pending", key)
	}
	delete(f.pending, key)
	f.executed[key] = true

	leg := positionLeg{account: order.account, indexAsset: order.indexAsset, isLong: order.isLong}
	pos, ok := f.positions[leg]
	if !ok {
		pos = &venue.Position{
			Size:              new(big.Int),
			Collateral:        new(big.Int),
			AveragePrice:      new(big.Int),
			EntryFundingRate:  new(big.Int),
			RealisedPnl:       new(big.Int),
			LastIncreasedTime: new(big.Int),
			Delta:             new(big.Int),
		}
		f.positions[leg] = pos
	}
	pos.Size.Add(pos.Size, order.sizeDelta)
	pos.Collateral.Add(pos.Collateral, order.amountIn)
	if price, ok := f.prices[order.indexAsset]; ok {
		pos.AveragePrice.Set(price)
	}
	return nil
}

// ExecuteDecrease plays the keeper for the oldest forwarded decrease:
// the position shrinks by the requested size, and a decrease that
// removes the whole size closes the leg so reads report zeros.
func (f *Fake) ExecuteDecrease() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.decreases) == 0 {
		return fmt.Errorf("no decrease pending")
	}
	req := f.decreases[0]
	f.decreases = f.decreases[1:]

	leg := positionLeg{account: req.Account, indexAsset: req.IndexAsset, isLong: req.IsLong}
	pos, ok := f.positions[leg]
	if !ok {
		return fmt.Errorf("no position for account %s on %s", req.Account, req.IndexAsset)
	}
	if req.SizeDelta.Cmp(pos.Size) > 0 {
		return fmt.Errorf("decrease size %s exceeds position size %s", req.SizeDelta, pos.Size)
	}

	pos.Size.Sub(pos.Size, req.SizeDelta)
	if pos.Size.Sign() == 0 {
		// full close pays out the remaining collateral
		delete(f.positions, leg)
		return nil
	}
	if req.CollateralDelta.Cmp(pos.Collateral) > 0 {
		return fmt.Errorf("collateral delta %s exceeds collateral %s", req.CollateralDelta, pos.Collateral)
	}
	pos.Collateral.Sub(pos.Collateral, req.CollateralDelta)
	return nil
}

func (f *Fake) Positions(ctx context.Context, q venue.PositionQuery) ([]venue.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]venue.Position, len(q.IndexAssets))
	for i := range q.IndexAssets {
		leg := positionLeg{account: q.Account, indexAsset: q.IndexAssets[i], isLong: q.IsLong[i]}
		if pos, ok := f.positions[leg]; ok {
			out[i] = clonePosition(pos)
		} else {
			out[i] = emptyPosition()
		}
	}
	return out, nil
}

func (f *Fake) MaxPrice(ctx context.Context, indexAsset string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if price, ok := f.prices[indexAsset]; ok {
		return new(big.Int).Set(price), nil
	}
	return nil, fmt.Errorf("no price for %s", indexAsset)
}

func (f *Fake) MinPrice(ctx context.Context, indexAsset string) (*big.Int, error) {
	return f.MaxPrice(ctx, indexAsset)
}

// PendingCount returns the number of unexecuted increase orders
func (f *Fake) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// FeeRefunded returns the total native fee refunded to an account
func (f *Fake) FeeRefunded(account string) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if refund, ok := f.feeRefunds[account]; ok {
		return new(big.Int).Set(refund)
	}
	return new(big.Int)
}

// Decreases returns all forwarded decrease requests
func (f *Fake) Decreases() []venue.DecreaseRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]venue.DecreaseRequest, len(f.decreases))
	copy(out, f.decreases)
	return out
}

func clonePosition(p *venue.Position) venue.Position {
	return venue.Position{
		Size:              new(big.Int).Set(p.Size),
		Collateral:        new(big.Int).Set(p.Collateral),
		AveragePrice:      new(big.Int).Set(p.AveragePrice),
		EntryFundingRate:  new(big.Int).Set(p.EntryFundingRate),
		HasRealisedProfit: p.HasRealisedProfit,
		RealisedPnl:       new(big.Int).Set(p.RealisedPnl),
		LastIncreasedTime: new(big.Int).Set(p.LastIncreasedTime),
		HasProfit:         p.HasProfit,
		Delta:             new(big.Int).Set(p.Delta),
	}
}

func emptyPosition() venue.Position {
	return venue.Position{
		Size:              new(big.Int),
		Collateral:        new(big.Int),
		AveragePrice:      new(big.Int),
		EntryFundingRate:  new(big.Int),
		RealisedPnl:       new(big.Int),
		LastIncreasedTime: new(big.Int),
		Delta:             new(big.Int),
	}
}
