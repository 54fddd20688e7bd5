package fundme

import (
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
)

func TestEvidenceGroupIDPacking(t *testing.T) {
	id := EvidenceGroupID(0x0102030405060708, 0x1112131415161718)
	want := "0000000000000000010203040506070800000000000000001112131415161718"
	if got := hex.EncodeToString(id[:]); got != want {
		t.Fatalf("group id = %s, want %s", got, want)
	}
	if EvidenceGroupID(1, 2) == EvidenceGroupID(2, 1) {
		t.Fatal("swapped ids must not collide")
	}
}

func TestSanitizeTransactionRejectsBadFractions(t *testing.T) {
	tx := &Transaction{
		ID: 1,
		Milestones: []*Milestone{
			{UnlockBps: 5_000},
			{UnlockBps: 4_000},
		},
	}
	if _, err := SanitizeTransaction(tx); !errors.Is(err, ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
	tx.Milestones[1].UnlockBps = 5_000
	sanitized, err := SanitizeTransaction(tx)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if sanitized.TotalFunded == nil || sanitized.Milestones[0].AmountClaimable == nil {
		t.Fatal("sanitize must normalise nil amounts")
	}
	// The input is untouched.
	if tx.TotalFunded != nil {
		t.Fatal("sanitize mutated its input")
	}
}

func TestTransactionCloneIsDeep(t *testing.T) {
	tx := &Transaction{
		ID:             7,
		TotalFunded:    big.NewInt(100),
		RemainingFunds: big.NewInt(60),
		Milestones: []*Milestone{
			{UnlockBps: 10_000, AmountClaimable: big.NewInt(12), Round: NewDisputeRound()},
		},
	}
	clone := tx.Clone()
	clone.TotalFunded.SetInt64(0)
	clone.Milestones[0].AmountClaimable.SetInt64(0)
	clone.Milestones[0].Round.ClaimantFee.SetInt64(99)
	if tx.TotalFunded.Cmp(big.NewInt(100)) != 0 {
		t.Fatal("clone shares TotalFunded")
	}
	if tx.Milestones[0].AmountClaimable.Cmp(big.NewInt(12)) != 0 {
		t.Fatal("clone shares milestone amounts")
	}
	if tx.Milestones[0].Round.ClaimantFee.Sign() != 0 {
		t.Fatal("clone shares the dispute round")
	}
}
