package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JournalGenerator builds validated journal batches for gateway
// operations. Pre-checks run against the tracker before a batch is
// produced, so a returned batch is always safe to apply.
type JournalGenerator struct {
	tracker  *BalanceTracker
	sequence uint64
}

func NewJournalGenerator(tracker *BalanceTracker) *JournalGenerator {
	return &JournalGenerator{
		tracker: tracker,
	}
}

func (g *JournalGenerator) nextSequence() uint64 {
	g.sequence++
	return g.sequence
}

// GenerateDeposit credits a user's collateral from the external deposit
// boundary.
func (g *JournalGenerator) GenerateDeposit(userID uuid.UUID, amount int64, operationRef string, ts time.Time) (*Batch, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive: %d", amount)
	}

	batch := NewBatch(operationRef, g.nextSequence(), ts)
	batch.AddJournal(
		NewExternalAccountKey(SubTypeExternalDeposits, SettlementAssetID),
		NewUserAccountKey(userID, SubTypeCollateral, SettlementAssetID),
		SettlementAssetID,
		amount,
		JournalTypeDeposit,
	)

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}

// GenerateWithdrawal debits a user's collateral to the external
// withdrawal boundary. Fails if free collateral is insufficient.
func (g *JournalGenerator) GenerateWithdrawal(userID uuid.UUID, amount int64, operationRef string, ts time.Time) (*Batch, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive: %d", amount)
	}
	if free := g.tracker.GetUserCollateral(userID); free < amount {
		return nil, fmt.Errorf("insufficient collateral for withdrawal: have %d, need %d", free, amount)
	}

	batch := NewBatch(operationRef, g.nextSequence(), ts)
	batch.AddJournal(
		NewUserAccountKey(userID, SubTypeCollateral, SettlementAssetID),
		NewExternalAccountKey(SubTypeExternalWithdrawals, SettlementAssetID),
		SettlementAssetID,
		amount,
		JournalTypeWithdrawal,
	)

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}

// GenerateMarginEscrow locks free collateral as margin for a submitted
// order.
func (g *JournalGenerator) GenerateMarginEscrow(userID uuid.UUID, amount int64, operationRef string, ts time.Time) (*Batch, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("escrow amount must be positive: %d", amount)
	}
	if free := g.tracker.GetUserCollateral(userID); free < amount {
		return nil, fmt.Errorf("insufficient collateral for escrow: have %d, need %d", free, amount)
	}

	batch := NewBatch(operationRef, g.nextSequence(), ts)
	batch.AddJournal(
		NewUserAccountKey(userID, SubTypeCollateral, SettlementAssetID),
		NewUserAccountKey(userID, SubTypeEscrow, SettlementAssetID),
		SettlementAssetID,
		amount,
		JournalTypeMarginEscrow,
	)

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}

// GenerateEscrowRefund returns escrowed margin to free collateral after
// a venue-confirmed cancellation.
func (g *JournalGenerator) GenerateEscrowRefund(userID uuid.UUID, amount int64, operationRef string, ts time.Time) (*Batch, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("refund amount must be positive: %d", amount)
	}
	if held := g.tracker.GetUserEscrow(userID); held < amount {
		return nil, fmt.Errorf("insufficient escrow for refund: have %d, need %d", held, amount)
	}

	batch := NewBatch(operationRef, g.nextSequence(), ts)
	batch.AddJournal(
		NewUserAccountKey(userID, SubTypeEscrow, SettlementAssetID),
		NewUserAccountKey(userID, SubTypeCollateral, SettlementAssetID),
		SettlementAssetID,
		amount,
		JournalTypeEscrowRefund,
	)

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}

// GenerateEscrowConsume moves escrowed margin to the external venue
// account once the venue reports the order executed.
func (g *JournalGenerator) GenerateEscrowConsume(userID uuid.UUID, amount int64, operationRef string, ts time.Time) (*Batch, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("consume amount must be positive: %d", amount)
	}
	if held := g.tracker.GetUserEscrow(userID); held < amount {
		return nil, fmt.Errorf("insufficient escrow to consume: have %d, need %d", held, amount)
	}

	batch := NewBatch(operationRef, g.nextSequence(), ts)
	batch.AddJournal(
		NewUserAccountKey(userID, SubTypeEscrow, SettlementAssetID),
		NewExternalAccountKey(SubTypeExternalVenue, SettlementAssetID),
		SettlementAssetID,
		amount,
		JournalTypeEscrowConsume,
	)

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}
