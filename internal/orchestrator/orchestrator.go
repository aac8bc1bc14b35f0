// Package orchestrator implements the position lifecycle state machine:
// custodial margin in, escrowed submission to the venue, delay-gated
// cancellation reconciled against live venue state. Every mutating call
// runs under one mutex and either applies completely or leaves no
// observable change.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"PerpGateway/internal/event"
	"PerpGateway/internal/ledger"
	"PerpGateway/internal/observability"
	"PerpGateway/internal/persistence"
	"PerpGateway/internal/registry"
	"PerpGateway/internal/venue"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMinCancelDelay gates cancellation long enough for the keeper
// to act first in the common case.
const DefaultMinCancelDelay = 180 * time.Second

// Config wires the orchestrator's collaborators
type Config struct {
	Owner          uuid.UUID
	IndexAssets    []string // initial supported set; defaults to registry.DefaultIndexAssets
	MinCancelDelay time.Duration
	Clock          Clock
	Router         venue.Router
	Reader         venue.Reader
	PersistChan    chan<- persistence.Output // blocking sends, nil to disable
	NotifyChan     chan<- event.Envelope     // non-blocking sends, nil to disable
	Metrics        *observability.Metrics
	Logger         zerolog.Logger
}

// OpenParams describes an increase request. Margin is escrowed locally
// and transferred to the venue as collateral.
type OpenParams struct {
	IndexAsset      string
	IsLong          bool
	Margin          int64 // settlement minor units
	SizeDelta       *big.Int
	AcceptablePrice *big.Int
	MinOut          *big.Int
	ExecutionFee    *big.Int // native units
	AttachedValue   *big.Int // native value the caller attached
}

// CloseParams describes a decrease request, forwarded without local
// bookkeeping.
type CloseParams struct {
	IndexAsset      string
	IsLong          bool
	CollateralDelta *big.Int
	SizeDelta       *big.Int
	AcceptablePrice *big.Int
	MinOut          *big.Int
	Receiver        string // empty means the user's sub-account
	ExecutionFee    *big.Int
	AttachedValue   *big.Int
}

// Balance is a user's ledger view
type Balance struct {
	Collateral int64
	Escrow     int64
}

// Orchestrator owns all gateway state. Mutating calls serialize on one
// mutex; the venue call happens inside the critical section so state
// and venue never observe interleaved operations.
type Orchestrator struct {
	mu sync.Mutex

	log            zerolog.Logger
	clock          Clock
	minCancelDelay time.Duration

	access   *registry.AccessRegistry
	accounts *registry.SubAccountRegistry

	tracker   *ledger.BalanceTracker
	journals  *ledger.JournalGenerator
	validator *ledger.InvariantValidator

	router venue.Router
	reader venue.Reader
	orders *OrderTable

	sequence  uint64
	persistCh chan<- persistence.Output
	notifyCh  chan<- event.Envelope
	metrics   *observability.Metrics
}

func New(cfg Config) *Orchestrator {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.MinCancelDelay <= 0 {
		cfg.MinCancelDelay = DefaultMinCancelDelay
	}
	if cfg.IndexAssets == nil {
		cfg.IndexAssets = registry.DefaultIndexAssets
	}

	tracker := ledger.NewBalanceTracker()
	return &Orchestrator{
		log:            cfg.Logger,
		clock:          cfg.Clock,
		minCancelDelay: cfg.MinCancelDelay,
		access:         registry.NewAccessRegistry(cfg.Owner, cfg.IndexAssets),
		accounts:       registry.NewSubAccountRegistry(),
		tracker:        tracker,
		journals:       ledger.NewJournalGenerator(tracker),
		validator:      ledger.NewInvariantValidator(tracker),
		router:         cfg.Router,
		reader:         cfg.Reader,
		orders:         NewOrderTable(),
		persistCh:      cfg.PersistChan,
		notifyCh:       cfg.NotifyChan,
		metrics:        cfg.Metrics,
	}
}

// ------------------------------------------------------------------
// Admin surface
// ------------------------------------------------------------------

func (o *Orchestrator) Owner() uuid.UUID {
	return o.access.Owner()
}

func (o *Orchestrator) AddToWhitelist(caller, userID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	changed, err := o.access.AddToWhitelist(caller, userID)
	if err != nil {
		return err
	}
	if changed {
		o.emit(&event.WhitelistChanged{ID: uuid.New(), Caller: caller, User: userID, Added: true}, nil, nil)
	}
	return nil
}

func (o *Orchestrator) RemoveFromWhitelist(caller, userID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	changed, err := o.access.RemoveFromWhitelist(caller, userID)
	if err != nil {
		return err
	}
	if changed {
		o.emit(&event.WhitelistChanged{ID: uuid.New(), Caller: caller, User: userID, Added: false}, nil, nil)
	}
	return nil
}

func (o *Orchestrator) AddAsset(caller uuid.UUID, symbol string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	changed, err := o.access.AddAsset(caller, symbol)
	if err != nil {
		return err
	}
	if changed {
		o.emit(&event.AssetChanged{ID: uuid.New(), Caller: caller, Symbol: symbol, Added: true}, nil, nil)
	}
	return nil
}

func (o *Orchestrator) RemoveAsset(caller uuid.UUID, symbol string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	changed, err := o.access.RemoveAsset(caller, symbol)
	if err != nil {
		return err
	}
	if changed {
		o.emit(&event.AssetChanged{ID: uuid.New(), Caller: caller, Symbol: symbol, Added: false}, nil, nil)
	}
	return nil
}

func (o *Orchestrator) IsWhitelisted(userID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.access.IsWhitelisted(userID)
}

func (o *Orchestrator) IsAssetSupported(symbol string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.access.IsAssetSupported(symbol)
}

func (o *Orchestrator) SupportedAssets() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.access.SupportedAssets()
}

// ------------------------------------------------------------------
// Accounts and margin
// ------------------------------------------------------------------

// CreateAccount mints the user's isolated venue sub-account. One per
// user, ever.
func (o *Orchestrator) CreateAccount(ctx context.Context, caller uuid.UUID) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.access.IsWhitelisted(caller) {
		return "", ErrUserNotWhitelisted
	}
	if _, ok := o.accounts.Lookup(caller); ok {
		return "", ErrAccountAlreadyExists
	}

	start := o.clock.Now()
	account, err := o.router.CreateAccount(ctx)
	o.observeVenue("create_account", start, err)
	if err != nil {
		return "", fmt.Errorf("venue account creation failed: %w", err)
	}

	if err := o.accounts.Register(caller, account); err != nil {
		return "", err
	}

	o.emit(&event.AccountCreated{ID: uuid.New(), User: caller, Account: account}, nil, nil)
	o.log.Info().Str("user", caller.String()).Str("account", account).Msg("sub-account created")
	return account, nil
}

// TransferMargin credits the caller's free balance from the external
// deposit boundary.
func (o *Orchestrator) TransferMargin(ctx context.Context, caller uuid.UUID, amount int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.access.IsWhitelisted(caller) {
		return ErrUserNotWhitelisted
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ev := &event.MarginDeposited{ID: uuid.New(), User: caller, Amount: amount}
	batch, err := o.journals.GenerateDeposit(caller, amount, ev.ID.String(), o.clock.Now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := o.applyBatch(batch, caller); err != nil {
		return err
	}

	if o.metrics != nil {
		o.metrics.Deposits.Inc()
	}
	o.emit(ev, batch, nil)
	return nil
}

// WithdrawMargin debits the caller's free balance. Escrowed margin is
// not withdrawable.
func (o *Orchestrator) WithdrawMargin(ctx context.Context, caller uuid.UUID, amount int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.access.IsWhitelisted(caller) {
		return ErrUserNotWhitelisted
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if o.tracker.GetUserCollateral(caller) < amount {
		return ErrInsufficientBalance
	}

	ev := &event.MarginWithdrawn{ID: uuid.New(), User: caller, Amount: amount}
	batch, err := o.journals.GenerateWithdrawal(caller, amount, ev.ID.String(), o.clock.Now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	}
	if err := o.applyBatch(batch, caller); err != nil {
		return err
	}

	if o.metrics != nil {
		o.metrics.Withdrawals.Inc()
	}
	o.emit(ev, batch, nil)
	return nil
}

// GetUserAccount returns the user's venue sub-account identity
func (o *Orchestrator) GetUserAccount(userID uuid.UUID) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	account, ok := o.accounts.Lookup(userID)
	if !ok {
		return "", ErrNoAccount
	}
	return account, nil
}

// GetUserBalance returns free and escrowed balances
func (o *Orchestrator) GetUserBalance(userID uuid.UUID) Balance {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Balance{
		Collateral: o.tracker.GetUserCollateral(userID),
		Escrow:     o.tracker.GetUserEscrow(userID),
	}
}

// ------------------------------------------------------------------
// Position lifecycle
// ------------------------------------------------------------------

// OpenPosition submits an increase to the venue and escrows the margin
// locally. On any precondition failure or venue error nothing changes.
func (o *Orchestrator) OpenPosition(ctx context.Context, caller uuid.UUID, p OpenParams) (venue.OrderKey, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.access.IsWhitelisted(caller) {
		return "", ErrUserNotWhitelisted
	}
	account, ok := o.accounts.Lookup(caller)
	if !ok {
		return "", ErrNoAccount
	}
	if !o.access.IsAssetSupported(p.IndexAsset) {
		return "", ErrAssetNotSupported
	}
	if p.Margin <= 0 {
		return "", ErrInvalidAmount
	}
	if !validFee(p.ExecutionFee) {
		return "", fmt.Errorf("%w: execution fee must be positive", ErrInvalidAmount)
	}
	if !feeMatches(p.ExecutionFee, p.AttachedValue) {
		return "", ErrNativeFeeMismatch
	}
	if o.tracker.GetUserCollateral(caller) < p.Margin {
		return "", ErrInsufficientBalance
	}

	start := o.clock.Now()
	orderKey, err := o.router.SubmitIncrease(ctx, venue.IncreaseRequest{
		Account:         account,
		CollateralAsset: "USDC",
		IndexAsset:      p.IndexAsset,
		AmountIn:        big.NewInt(p.Margin),
		MinOut:          zeroIfNil(p.MinOut),
		SizeDelta:       zeroIfNil(p.SizeDelta),
		IsLong:          p.IsLong,
		AcceptablePrice: zeroIfNil(p.AcceptablePrice),
		ExecutionFee:    p.ExecutionFee,
	})
	o.observeVenue("submit_increase", start, err)
	if err != nil {
		return "", fmt.Errorf("venue submit failed: %w", err)
	}

	ev := &event.IncreaseSubmitted{
		ID:         uuid.New(),
		User:       caller,
		OrderKey:   string(orderKey),
		IndexAsset: p.IndexAsset,
		IsLong:     p.IsLong,
		Margin:     p.Margin,
	}
	now := o.clock.Now()
	batch, err := o.journals.GenerateMarginEscrow(caller, p.Margin, ev.ID.String(), now)
	if err != nil {
		// balance was checked above; reaching here is a bug
		return "", fmt.Errorf("escrow after venue submit failed: %w", err)
	}
	if err := o.applyBatch(batch, caller); err != nil {
		return "", err
	}

	order := &PendingOrder{
		OrderKey:     orderKey,
		Owner:        caller,
		Account:      account,
		IndexAsset:   p.IndexAsset,
		IsLong:       p.IsLong,
		Margin:       p.Margin,
		ExecutionFee: new(big.Int).Set(p.ExecutionFee),
		SubmittedAt:  now,
		Status:       StatusSubmitted,
	}
	o.orders.Add(order)

	if o.metrics != nil {
		o.metrics.OrdersSubmitted.WithLabelValues(p.IndexAsset, direction(p.IsLong)).Inc()
		o.metrics.PendingOrders.Set(float64(o.orders.SubmittedCount()))
	}
	o.emit(ev, batch, []persistence.OrderRow{o.orderRow(order, now)})

	o.log.Info().
		Str("user", caller.String()).
		Str("order_key", string(orderKey)).
		Str("index_asset", p.IndexAsset).
		Bool("long", p.IsLong).
		Int64("margin", p.Margin).
		Msg("increase submitted")
	return orderKey, nil
}

// ClosePosition forwards a decrease to the venue. Proceeds are paid by
// the venue to the receiver; the ledger is untouched.
func (o *Orchestrator) ClosePosition(ctx context.Context, caller uuid.UUID, p CloseParams) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.access.IsWhitelisted(caller) {
		return ErrUserNotWhitelisted
	}
	account, ok := o.accounts.Lookup(caller)
	if !ok {
		return ErrNoAccount
	}
	if !o.access.IsAssetSupported(p.IndexAsset) {
		return ErrAssetNotSupported
	}
	if !validFee(p.ExecutionFee) {
		return fmt.Errorf("%w: execution fee must be positive", ErrInvalidAmount)
	}
	if !feeMatches(p.ExecutionFee, p.AttachedValue) {
		return ErrNativeFeeMismatch
	}

	start := o.clock.Now()
	_, err := o.router.SubmitDecrease(ctx, venue.DecreaseRequest{
		Account:         account,
		CollateralAsset: "USDC",
		IndexAsset:      p.IndexAsset,
		CollateralDelta: zeroIfNil(p.CollateralDelta),
		SizeDelta:       zeroIfNil(p.SizeDelta),
		IsLong:          p.IsLong,
		Receiver:        p.Receiver,
		AcceptablePrice: zeroIfNil(p.AcceptablePrice),
		MinOut:          zeroIfNil(p.MinOut),
		ExecutionFee:    p.ExecutionFee,
	})
	o.observeVenue("submit_decrease", start, err)
	if err != nil {
		return fmt.Errorf("venue submit failed: %w", err)
	}

	if o.metrics != nil {
		o.metrics.DecreasesForwarded.Inc()
	}
	o.emit(&event.DecreaseSubmitted{ID: uuid.New(), User: caller, IndexAsset: p.IndexAsset, IsLong: p.IsLong}, nil, nil)
	return nil
}

// CancelOrder asks the venue to cancel a tracked increase after the
// minimum delay. The venue's answer decides the outcome: a confirmed
// cancellation refunds the escrow, an already-executed order consumes
// it and reports ErrOrderAlreadyExecuted. Either way the order reaches
// a terminal state exactly once.
func (o *Orchestrator) CancelOrder(ctx context.Context, caller uuid.UUID, key venue.OrderKey) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	order, ok := o.orders.Get(key)
	if !ok {
		o.rejectCancel("not_found")
		return ErrOrderNotFound
	}
	if order.Status != StatusSubmitted {
		o.rejectCancel("not_cancellable")
		return fmt.Errorf("%w: status %s", ErrOrderNotCancellable, order.Status)
	}
	if order.Owner != caller {
		o.rejectCancel("not_owner")
		return ErrNotOrderOwner
	}

	now := o.clock.Now()
	if elapsed := now.Sub(order.SubmittedAt); elapsed < o.minCancelDelay {
		o.rejectCancel("too_early")
		return fmt.Errorf("%w: %s elapsed, need %s", ErrCancellationTooEarly, elapsed, o.minCancelDelay)
	}

	start := o.clock.Now()
	cancelled, err := o.router.CancelIncrease(ctx, order.Account, key)
	o.observeVenue("cancel_increase", start, err)
	if err != nil {
		o.rejectCancel("venue_error")
		return fmt.Errorf("venue cancel failed: %w", err)
	}

	if !cancelled {
		// keeper executed the order first; margin belongs to the venue
		return o.finalizeExecuted(caller, order, now)
	}

	ev := &event.OrderCancelled{ID: uuid.New(), User: caller, OrderKey: string(key), Refunded: order.Margin}
	batch, err := o.journals.GenerateEscrowRefund(caller, order.Margin, ev.ID.String(), now)
	if err != nil {
		return fmt.Errorf("escrow refund failed: %w", err)
	}
	if err := o.applyBatch(batch, caller); err != nil {
		return err
	}
	o.orders.SetStatus(key, StatusCancelled)

	if o.metrics != nil {
		o.metrics.OrdersCancelled.Inc()
		o.metrics.PendingOrders.Set(float64(o.orders.SubmittedCount()))
	}
	updated, _ := o.orders.Get(key)
	o.emit(ev, batch, []persistence.OrderRow{o.orderRow(&updated, now)})

	o.log.Info().
		Str("user", caller.String()).
		Str("order_key", string(key)).
		Int64("refunded", order.Margin).
		Msg("order cancelled, escrow refunded")
	return nil
}

// finalizeExecuted settles the local books for an order the keeper
// executed before cancellation: escrow moves to the venue boundary and
// the caller learns there is nothing to refund.
func (o *Orchestrator) finalizeExecuted(caller uuid.UUID, order PendingOrder, now time.Time) error {
	ev := &event.OrderFinalized{ID: uuid.New(), User: caller, OrderKey: string(order.OrderKey), Consumed: order.Margin}
	batch, err := o.journals.GenerateEscrowConsume(caller, order.Margin, ev.ID.String(), now)
	if err != nil {
		return fmt.Errorf("escrow consume failed: %w", err)
	}
	if err := o.applyBatch(batch, caller); err != nil {
		return err
	}
	o.orders.SetStatus(order.OrderKey, StatusFinalized)

	if o.metrics != nil {
		o.metrics.OrdersFinalized.Inc()
		o.metrics.PendingOrders.Set(float64(o.orders.SubmittedCount()))
	}
	updated, _ := o.orders.Get(order.OrderKey)
	o.emit(ev, batch, []persistence.OrderRow{o.orderRow(&updated, now)})

	o.log.Info().
		Str("user", caller.String()).
		Str("order_key", string(order.OrderKey)).
		Int64("consumed", order.Margin).
		Msg("order executed before cancellation, escrow consumed")
	return ErrOrderAlreadyExecuted
}

// GetOrder returns a tracked order's state
func (o *Orchestrator) GetOrder(key venue.OrderKey) (PendingOrder, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	order, ok := o.orders.Get(key)
	if !ok {
		return PendingOrder{}, ErrOrderNotFound
	}
	return order, nil
}

// GetPositions reads the user's venue positions, one entry per
// requested leg, zeros where no position exists.
func (o *Orchestrator) GetPositions(ctx context.Context, userID uuid.UUID, indexAssets []string, isLong []bool) ([]venue.Position, error) {
	if len(indexAssets) != len(isLong) {
		return nil, fmt.Errorf("index assets and directions must align: %d vs %d", len(indexAssets), len(isLong))
	}

	o.mu.Lock()
	account, ok := o.accounts.Lookup(userID)
	o.mu.Unlock()
	if !ok {
		return nil, ErrNoAccount
	}

	collateral := make([]string, len(indexAssets))
	for i := range collateral {
		collateral[i] = "USDC"
	}

	start := o.clock.Now()
	positions, err := o.reader.Positions(ctx, venue.PositionQuery{
		Account:          account,
		CollateralAssets: collateral,
		IndexAssets:      indexAssets,
		IsLong:           isLong,
	})
	o.observeVenue("get_positions", start, err)
	if err != nil {
		return nil, fmt.Errorf("venue position read failed: %w", err)
	}
	return positions, nil
}

// MinExecutionFee reads the venue's keeper fee floor
func (o *Orchestrator) MinExecutionFee(ctx context.Context) (*big.Int, error) {
	start := o.clock.Now()
	fee, err := o.router.MinExecutionFee(ctx)
	o.observeVenue("min_execution_fee", start, err)
	if err != nil {
		return nil, fmt.Errorf("venue fee read failed: %w", err)
	}
	return fee, nil
}

// ------------------------------------------------------------------
// Internals
// ------------------------------------------------------------------

// applyBatch applies a validated batch and post-checks the invariants
// the operation must preserve. A violation reverts the batch so the
// caller observes no mutation.
func (o *Orchestrator) applyBatch(batch *ledger.Batch, userID uuid.UUID) error {
	o.tracker.ApplyBatch(batch)

	if err := o.validator.ValidateUserNonNegative(userID); err != nil {
		o.tracker.RevertBatch(batch)
		o.log.Error().Err(err).Msg("ledger invariant violated")
		return fmt.Errorf("ledger invariant violated: %w", err)
	}
	if err := o.validator.ValidateGlobalBalance(); err != nil {
		o.tracker.RevertBatch(batch)
		o.log.Error().Err(err).Msg("ledger invariant violated")
		return fmt.Errorf("ledger invariant violated: %w", err)
	}

	if o.metrics != nil {
		o.metrics.EscrowedTotal.Set(float64(o.tracker.TotalEscrowed()))
		for i := range batch.Journals {
			o.metrics.JournalsApplied.WithLabelValues(batch.Journals[i].JournalType.String()).Inc()
		}
	}
	return nil
}

// emit publishes one state transition: blocking to persistence so
// nothing is lost, non-blocking to the notify channel.
func (o *Orchestrator) emit(ev event.Event, batch *ledger.Batch, orders []persistence.OrderRow) {
	o.sequence++
	now := o.clock.Now()

	payload, err := json.Marshal(ev)
	if err != nil {
		o.log.Error().Err(err).Str("event_type", ev.EventType().String()).Msg("event payload marshal failed")
		payload = []byte("{}")
	}

	envelope := event.Envelope{
		EventID:   ev.EventID(),
		Sequence:  o.sequence,
		EventType: ev.EventType(),
		UserID:    ev.UserID(),
		Timestamp: now,
		Payload:   payload,
	}

	if o.persistCh != nil {
		var userID *string
		if uid := ev.UserID(); uid != nil {
			s := uid.String()
			userID = &s
		}
		out := persistence.Output{
			Event: persistence.EventRow{
				EventID:   envelope.EventID.String(),
				Sequence:  int64(envelope.Sequence),
				EventType: envelope.EventType.String(),
				UserID:    userID,
				Payload:   payload,
				Timestamp: now,
			},
			Orders: orders,
		}
		if batch != nil {
			out.Journals = journalRows(batch)
		}
		o.persistCh <- out
	}

	if o.notifyCh != nil {
		select {
		case o.notifyCh <- envelope:
		default:
			if o.metrics != nil {
				o.metrics.NotifyDropped.Inc()
			}
			o.log.Warn().Str("event_type", envelope.EventType.String()).Msg("notify channel full, dropping")
		}
	}
}

func (o *Orchestrator) orderRow(order *PendingOrder, now time.Time) persistence.OrderRow {
	return persistence.OrderRow{
		OrderKey:     string(order.OrderKey),
		OwnerID:      order.Owner.String(),
		Account:      order.Account,
		IndexAsset:   order.IndexAsset,
		IsLong:       order.IsLong,
		Margin:       order.Margin,
		ExecutionFee: order.ExecutionFee.String(),
		SubmittedAt:  order.SubmittedAt,
		Status:       order.Status.String(),
		UpdatedAt:    now,
	}
}

func journalRows(batch *ledger.Batch) []persistence.JournalRow {
	rows := make([]persistence.JournalRow, 0, len(batch.Journals))
	for i := range batch.Journals {
		j := &batch.Journals[i]
		rows = append(rows, persistence.JournalRow{
			JournalID:     j.JournalID.String(),
			BatchID:       j.BatchID.String(),
			OperationRef:  j.OperationRef,
			Sequence:      int64(j.Sequence),
			DebitAccount:  j.DebitAccount.AccountPath(),
			CreditAccount: j.CreditAccount.AccountPath(),
			AssetID:       int16(j.AssetID),
			Amount:        j.Amount,
			JournalType:   j.JournalType.String(),
			Timestamp:     j.Timestamp,
		})
	}
	return rows
}

func (o *Orchestrator) rejectCancel(reason string) {
	if o.metrics != nil {
		o.metrics.CancelRejections.WithLabelValues(reason).Inc()
	}
}

func (o *Orchestrator) observeVenue(method string, start time.Time, err error) {
	if o.metrics == nil {
		return
	}
	o.metrics.VenueCallDuration.WithLabelValues(method).Observe(o.clock.Now().Sub(start).Seconds())
	if err != nil {
		o.metrics.VenueCallErrors.WithLabelValues(method).Inc()
	}
}

// feeMatches reports exact equality of the declared execution fee and
// the attached native value. Fee positivity is checked separately.
func feeMatches(fee, attached *big.Int) bool {
	return fee != nil && attached != nil && fee.Cmp(attached) == 0
}

func validFee(fee *big.Int) bool {
	return fee != nil && fee.Sign() > 0
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func direction(isLong bool) string {
	if isLong {
		return "long"
	}
	return "short"
}
