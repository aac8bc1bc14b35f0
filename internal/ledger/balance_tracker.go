package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// BalanceTracker keeps in-memory account balances. It is not safe for
// concurrent use; callers serialize access (the orchestrator holds its
// call mutex while touching the ledger).
type BalanceTracker struct {
	balances map[AccountKey]int64
}

func NewBalanceTracker() *BalanceTracker {
	return &BalanceTracker{
		balances: make(map[AccountKey]int64),
	}
}

// GetBalance returns the current balance for an account (0 if absent)
func (t *BalanceTracker) GetBalance(key AccountKey) int64 {
	return t.balances[key]
}

// GetUserCollateral returns the free settlement balance for a user
func (t *BalanceTracker) GetUserCollateral(userID uuid.UUID) int64 {
	return t.balances[NewUserAccountKey(userID, SubTypeCollateral, SettlementAssetID)]
}

// GetUserEscrow returns the margin locked for unexecuted orders
func (t *BalanceTracker) GetUserEscrow(userID uuid.UUID) int64 {
	return t.balances[NewUserAccountKey(userID, SubTypeEscrow, SettlementAssetID)]
}

// ApplyBatch applies all journals in a validated batch. The batch must
// have passed Validate; ApplyBatch does not re-check it.
func (t *BalanceTracker) ApplyBatch(batch *Batch) {
	for i := range batch.Journals {
		j := &batch.Journals[i]
		t.balances[j.DebitAccount] -= j.Amount
		t.balances[j.CreditAccount] += j.Amount
	}
}

// RevertBatch undoes a previously applied batch, restoring every
// touched balance to its prior value.
func (t *BalanceTracker) RevertBatch(batch *Batch) {
	for i := range batch.Journals {
		j := &batch.Journals[i]
		t.balances[j.DebitAccount] += j.Amount
		t.balances[j.CreditAccount] -= j.Amount
	}
}

// ValidateNonNegative checks an account balance is >= 0
func (t *BalanceTracker) ValidateNonNegative(key AccountKey) error {
	balance := t.balances[key]
	if balance < 0 {
		return fmt.Errorf("account %s has negative balance: %d", key.AccountPath(), balance)
	}
	return nil
}

// ComputeGlobalBalance sums all balances per asset. A zero-sum ledger
// returns zero for every asset.
func (t *BalanceTracker) ComputeGlobalBalance() map[AssetID]int64 {
	totals := make(map[AssetID]int64)
	for key, balance := range t.balances {
		totals[key.AssetID] += balance
	}
	return totals
}

// TotalEscrowed sums escrow balances across all users
func (t *BalanceTracker) TotalEscrowed() int64 {
	var total int64
	for key, balance := range t.balances {
		if key.Scope == AccountScopeUser && key.SubType == SubTypeEscrow {
			total += balance
		}
	}
	return total
}

// Snapshot returns a copy of all non-zero balances keyed by account path
func (t *BalanceTracker) Snapshot() map[string]int64 {
	snapshot := make(map[string]int64, len(t.balances))
	for key, balance := range t.balances {
		if balance != 0 {
			snapshot[key.AccountPath()] = balance
		}
	}
	return snapshot
}
