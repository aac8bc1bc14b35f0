package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// InvariantValidator checks ledger invariants after batch application
type InvariantValidator struct {
	tracker *BalanceTracker
}

func NewInvariantValidator(tracker *BalanceTracker) *InvariantValidator {
	return &InvariantValidator{
		tracker: tracker,
	}
}

// ValidateBatchBalance verifies the batch is balanced
func (v *InvariantValidator) ValidateBatchBalance(batch *Batch) error {
	return batch.Validate()
}

// ValidateUserNonNegative checks a user's collateral and escrow are >= 0
func (v *InvariantValidator) ValidateUserNonNegative(userID uuid.UUID) error {
	if err := v.tracker.ValidateNonNegative(NewUserAccountKey(userID, SubTypeCollateral, SettlementAssetID)); err != nil {
		return err
	}
	return v.tracker.ValidateNonNegative(NewUserAccountKey(userID, SubTypeEscrow, SettlementAssetID))
}

// ValidateGlobalBalance verifies the ledger is zero-sum per asset
func (v *InvariantValidator) ValidateGlobalBalance() error {
	totals := v.tracker.ComputeGlobalBalance()

	for assetID, total := range totals {
		if total != 0 {
			assetName, _ := GetAssetName(assetID)
			return fmt.Errorf("global balance for %s is non-zero: %d", assetName, total)
		}
	}

	return nil
}
