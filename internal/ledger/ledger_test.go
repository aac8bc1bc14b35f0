package ledger_test

import (
	"strings"
	"testing"
	"time"

	"PerpGateway/internal/ledger"

	"github.com/google/uuid"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFunded(t *testing.T, userID uuid.UUID, amount int64) (*ledger.BalanceTracker, *ledger.JournalGenerator) {
	t.Helper()

	tracker := ledger.NewBalanceTracker()
	gen := ledger.NewJournalGenerator(tracker)

	batch, err := gen.GenerateDeposit(userID, amount, "setup-deposit", testTime)
	if err != nil {
		t.Fatalf("setup deposit failed: %v", err)
	}
	tracker.ApplyBatch(batch)

	return tracker, gen
}

// ============================================================
// Deposit / Withdrawal
// ============================================================

func TestDepositCreditsCollateral(t *testing.T) {
	userID := uuid.New()
	tracker, _ := newFunded(t, userID, 1000)

	if got := tracker.GetUserCollateral(userID); got != 1000 {
		t.Errorf("collateral = %d, want 1000", got)
	}
	if got := tracker.GetUserEscrow(userID); got != 0 {
		t.Errorf("escrow = %d, want 0", got)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	gen := ledger.NewJournalGenerator(ledger.NewBalanceTracker())

	for _, amount := range []int64{0, -5} {
		if _, err := gen.GenerateDeposit(uuid.New(), amount, "op", testTime); err == nil {
			t.Errorf("deposit of %d succeeded, want error", amount)
		}
	}
}

func TestWithdrawalDebitsCollateral(t *testing.T) {
	userID := uuid.New()
	tracker, gen := newFunded(t, userID, 1000)

	batch, err := gen.GenerateWithdrawal(userID, 400, "wd-1", testTime)
	if err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}
	tracker.ApplyBatch(batch)

	if got := tracker.GetUserCollateral(userID); got != 600 {
		t.Errorf("collateral = %d, want 600", got)
	}
}

func TestWithdrawalInsufficientCollateral(t *testing.T) {
	userID := uuid.New()
	_, gen := newFunded(t, userID, 100)

	if _, err := gen.GenerateWithdrawal(userID, 101, "wd-over", testTime); err == nil {
		t.Fatal("over-withdrawal succeeded, want error")
	}
}

func TestWithdrawalCannotTouchEscrow(t *testing.T) {
	userID := uuid.New()
	tracker, gen := newFunded(t, userID, 1000)

	batch, err := gen.GenerateMarginEscrow(userID, 700, "open-1", testTime)
	if err != nil {
		t.Fatalf("escrow failed: %v", err)
	}
	tracker.ApplyBatch(batch)

	// 300 free, 700 locked
	if _, err := gen.GenerateWithdrawal(userID, 500, "wd-locked", testTime); err == nil {
		t.Fatal("withdrawal against locked margin succeeded, want error")
	}
	if _, err := gen.GenerateWithdrawal(userID, 300, "wd-free", testTime); err != nil {
		t.Fatalf("withdrawal of free collateral failed: %v", err)
	}
}

// ============================================================
// Escrow lifecycle
// ============================================================

func TestEscrowMovesCollateralToEscrow(t *testing.T) {
	userID := uuid.New()
	tracker, gen := newFunded(t, userID, 1000)

	batch, err := gen.GenerateMarginEscrow(userID, 250, "open-1", testTime)
	if err != nil {
		t.Fatalf("escrow failed: %v", err)
	}
	tracker.ApplyBatch(batch)

	if got := tracker.GetUserCollateral(userID); got != 750 {
		t.Errorf("collateral = %d, want 750", got)
	}
	if got := tracker.GetUserEscrow(userID); got != 250 {
		t.Errorf("escrow = %d, want 250", got)
	}
}

func TestEscrowInsufficientCollateral(t *testing.T) {
	userID := uuid.New()
	_, gen := newFunded(t, userID, 100)

	if _, err := gen.GenerateMarginEscrow(userID, 200, "open-over", testTime); err == nil {
		t.Fatal("over-escrow succeeded, want error")
	}
}

func TestEscrowRefundRestoresCollateral(t *testing.T) {
	userID := uuid.New()
	tracker, gen := newFunded(t, userID, 1000)

	escrow, _ := gen.GenerateMarginEscrow(userID, 250, "open-1", testTime)
	tracker.ApplyBatch(escrow)

	refund, err := gen.GenerateEscrowRefund(userID, 250, "cancel-1", testTime)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	tracker.ApplyBatch(refund)

	if got := tracker.GetUserCollateral(userID); got != 1000 {
		t.Errorf("collateral = %d, want 1000", got)
	}
	if got := tracker.GetUserEscrow(userID); got != 0 {
		t.Errorf("escrow = %d, want 0", got)
	}
}

func TestEscrowRefundRequiresHeldMargin(t *testing.T) {
	userID := uuid.New()
	_, gen := newFunded(t, userID, 1000)

	if _, err := gen.GenerateEscrowRefund(userID, 1, "cancel-none", testTime); err == nil {
		t.Fatal("refund with no escrow succeeded, want error")
	}
}

func TestEscrowConsumeMovesMarginToVenue(t *testing.T) {
	userID := uuid.New()
	tracker, gen := newFunded(t, userID, 1000)

	escrow, _ := gen.GenerateMarginEscrow(userID, 250, "open-1", testTime)
	tracker.ApplyBatch(escrow)

	consume, err := gen.GenerateEscrowConsume(userID, 250, "finalize-1", testTime)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	tracker.ApplyBatch(consume)

	if got := tracker.GetUserEscrow(userID); got != 0 {
		t.Errorf("escrow = %d, want 0", got)
	}
	if got := tracker.GetUserCollateral(userID); got != 750 {
		t.Errorf("collateral = %d, want 750", got)
	}
	venueKey := ledger.NewExternalAccountKey(ledger.SubTypeExternalVenue, ledger.SettlementAssetID)
	if got := tracker.GetBalance(venueKey); got != 250 {
		t.Errorf("venue account = %d, want 250", got)
	}
}

// ============================================================
// Invariants
// ============================================================

func TestGlobalZeroSumAfterOperationSequence(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	tracker := ledger.NewBalanceTracker()
	gen := ledger.NewJournalGenerator(tracker)
	validator := ledger.NewInvariantValidator(tracker)

	apply := func(batch *ledger.Batch, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		tracker.ApplyBatch(batch)
		if err := validator.ValidateGlobalBalance(); err != nil {
			t.Fatalf("zero-sum broken: %v", err)
		}
	}

	apply(gen.GenerateDeposit(alice, 5000, "d1", testTime))
	apply(gen.GenerateDeposit(bob, 3000, "d2", testTime))
	apply(gen.GenerateMarginEscrow(alice, 2000, "o1", testTime))
	apply(gen.GenerateMarginEscrow(bob, 1000, "o2", testTime))
	apply(gen.GenerateEscrowRefund(alice, 2000, "c1", testTime))
	apply(gen.GenerateEscrowConsume(bob, 1000, "f1", testTime))
	apply(gen.GenerateWithdrawal(alice, 5000, "w1", testTime))

	if err := validator.ValidateUserNonNegative(alice); err != nil {
		t.Errorf("alice invariant: %v", err)
	}
	if err := validator.ValidateUserNonNegative(bob); err != nil {
		t.Errorf("bob invariant: %v", err)
	}
	if got := tracker.TotalEscrowed(); got != 0 {
		t.Errorf("total escrowed = %d, want 0", got)
	}
}

func TestRevertBatchRestoresBalances(t *testing.T) {
	userID := uuid.New()
	tracker, gen := newFunded(t, userID, 1000)

	batch, err := gen.GenerateMarginEscrow(userID, 400, "open-1", testTime)
	if err != nil {
		t.Fatalf("escrow failed: %v", err)
	}
	tracker.ApplyBatch(batch)
	if got := tracker.GetUserEscrow(userID); got != 400 {
		t.Fatalf("escrow = %d, want 400", got)
	}

	tracker.RevertBatch(batch)

	if got := tracker.GetUserCollateral(userID); got != 1000 {
		t.Errorf("collateral = %d after revert, want 1000", got)
	}
	if got := tracker.GetUserEscrow(userID); got != 0 {
		t.Errorf("escrow = %d after revert, want 0", got)
	}
	for assetID, sum := range tracker.ComputeGlobalBalance() {
		if sum != 0 {
			t.Errorf("asset %d global sum = %d after revert, want 0", assetID, sum)
		}
	}
}

func TestBatchValidateRejectsSelfTransfer(t *testing.T) {
	key := ledger.NewUserAccountKey(uuid.New(), ledger.SubTypeCollateral, ledger.SettlementAssetID)

	batch := ledger.NewBatch("bad-op", 1, testTime)
	batch.AddJournal(key, key, ledger.SettlementAssetID, 100, ledger.JournalTypeDeposit)

	if err := batch.Validate(); err == nil {
		t.Fatal("self-transfer batch validated, want error")
	}
}

func TestBatchValidateRejectsEmptyBatch(t *testing.T) {
	batch := ledger.NewBatch("empty-op", 1, testTime)
	if err := batch.Validate(); err == nil {
		t.Fatal("empty batch validated, want error")
	}
}

// ============================================================
// Account paths
// ============================================================

func TestAccountPaths(t *testing.T) {
	userID := uuid.New()

	userKey := ledger.NewUserAccountKey(userID, ledger.SubTypeEscrow, ledger.SettlementAssetID)
	path := userKey.AccountPath()
	if !strings.Contains(path, userID.String()) || !strings.HasSuffix(path, ":escrow:USDC") {
		t.Errorf("user path = %q", path)
	}

	extKey := ledger.NewExternalAccountKey(ledger.SubTypeExternalDeposits, ledger.SettlementAssetID)
	if got := extKey.AccountPath(); got != "external:deposits:USDC" {
		t.Errorf("external path = %q, want external:deposits:USDC", got)
	}
}
