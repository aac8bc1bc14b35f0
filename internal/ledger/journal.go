package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JournalType classifies the fund movement
type JournalType uint8

const (
	JournalTypeDeposit JournalType = iota
	JournalTypeWithdrawal
	JournalTypeMarginEscrow
	JournalTypeEscrowRefund
	JournalTypeEscrowConsume
)

func (t JournalType) String() string {
	switch t {
	case JournalTypeDeposit:
		return "deposit"
	case JournalTypeWithdrawal:
		return "withdrawal"
	case JournalTypeMarginEscrow:
		return "margin_escrow"
	case JournalTypeEscrowRefund:
		return "escrow_refund"
	case JournalTypeEscrowConsume:
		return "escrow_consume"
	default:
		return "unknown"
	}
}

// Journal is a single double-entry record. Amount is always positive;
// direction is carried by the debit/credit accounts.
type Journal struct {
	JournalID     uuid.UUID
	BatchID       uuid.UUID
	OperationRef  string // reference to the gateway operation that produced it
	Sequence      uint64
	DebitAccount  AccountKey
	CreditAccount AccountKey
	AssetID       AssetID
	Amount        int64
	JournalType   JournalType
	Timestamp     time.Time
}

// Batch groups journals that must apply atomically
type Batch struct {
	BatchID      uuid.UUID
	OperationRef string
	Sequence     uint64
	Journals     []Journal
	Timestamp    time.Time
}

// NewBatch creates an empty batch for an operation
func NewBatch(operationRef string, sequence uint64, ts time.Time) *Batch {
	return &Batch{
		BatchID:      uuid.New(),
		OperationRef: operationRef,
		Sequence:     sequence,
		Journals:     make([]Journal, 0, 2),
		Timestamp:    ts,
	}
}

// AddJournal appends a journal entry to the batch
func (b *Batch) AddJournal(debit, credit AccountKey, assetID AssetID, amount int64, journalType JournalType) {
	b.Journals = append(b.Journals, Journal{
		JournalID:     uuid.New(),
		BatchID:       b.BatchID,
		OperationRef:  b.OperationRef,
		Sequence:      b.Sequence,
		DebitAccount:  debit,
		CreditAccount: credit,
		AssetID:       assetID,
		Amount:        amount,
		JournalType:   journalType,
		Timestamp:     b.Timestamp,
	})
}

// Validate checks the batch is well-formed. Each journal moves Amount
// from its debit account to its credit account, so a well-formed batch
// is zero-sum per asset by construction; the global invariant is
// enforced by the balance tracker after apply.
func (b *Batch) Validate() error {
	if len(b.Journals) == 0 {
		return fmt.Errorf("batch %s has no journals", b.BatchID)
	}

	for i := range b.Journals {
		j := &b.Journals[i]
		if j.Amount <= 0 {
			return fmt.Errorf("journal %s has non-positive amount: %d", j.JournalID, j.Amount)
		}
		if j.DebitAccount == j.CreditAccount {
			return fmt.Errorf("journal %s debits and credits the same account %s", j.JournalID, j.DebitAccount.AccountPath())
		}
	}

	return nil
}
