package fundme

import (
	"errors"
	"math/big"
	"testing"
)

func TestDisputeRoundDepositOrderSymmetry(t *testing.T) {
	for _, first := range []Party{PartyClaimant, PartyChallenger} {
		r := NewDisputeRound()
		complete, err := r.Deposit(first, addr(0x21), big.NewInt(10), 500)
		if err != nil {
			t.Fatalf("first deposit (%s): %v", first, err)
		}
		if complete {
			t.Fatalf("round complete after a single %s deposit", first)
		}
		if r.CounterDeadline != 500 {
			t.Fatalf("counter deadline = %d, want 500", r.CounterDeadline)
		}
		complete, err = r.Deposit(first.Other(), addr(0x22), big.NewInt(10), 900)
		if err != nil {
			t.Fatalf("second deposit (%s): %v", first.Other(), err)
		}
		if !complete {
			t.Fatalf("round not complete after both sides staked (first=%s)", first)
		}
		// The completing deposit must not rearm the deadline.
		if r.CounterDeadline != 500 {
			t.Fatalf("deadline rearmed to %d", r.CounterDeadline)
		}
	}
}

func TestDisputeRoundRejectsDoubleDeposit(t *testing.T) {
	r := NewDisputeRound()
	if _, err := r.Deposit(PartyClaimant, addr(0x21), big.NewInt(10), 500); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := r.Deposit(PartyClaimant, addr(0x21), big.NewInt(10), 600); !errors.Is(err, ErrFeeAlreadyDeposited) {
		t.Fatalf("expected ErrFeeAlreadyDeposited, got %v", err)
	}
}

func TestDisputeRoundChallengerRepresentative(t *testing.T) {
	r := NewDisputeRound()
	if _, err := r.Deposit(PartyChallenger, addr(0x31), big.NewInt(10), 500); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if r.Challenger != addr(0x31) {
		t.Fatalf("challenger = %x, want first depositor", r.Challenger)
	}
}

func TestAbandonedBy(t *testing.T) {
	r := NewDisputeRound()
	if r.AbandonedBy(1_000) != PartyNone {
		t.Fatal("empty round cannot be abandoned")
	}
	if _, err := r.Deposit(PartyClaimant, addr(0x21), big.NewInt(10), 500); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if r.AbandonedBy(500) != PartyNone {
		t.Fatal("deadline not lapsed yet")
	}
	if got := r.AbandonedBy(501); got != PartyChallenger {
		t.Fatalf("abandoned by %s, want challenger", got)
	}
	if _, err := r.Deposit(PartyChallenger, addr(0x22), big.NewInt(10), 900); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if r.AbandonedBy(10_000) != PartyNone {
		t.Fatal("complete round cannot be abandoned")
	}
}

func TestFeePayouts(t *testing.T) {
	r := NewDisputeRound()
	r.ClaimantFee = big.NewInt(10)
	r.ChallengerFee = big.NewInt(15)

	toClaimant, toChallenger := r.FeePayouts(PartyClaimant)
	if toClaimant.Cmp(big.NewInt(25)) != 0 || toChallenger.Sign() != 0 {
		t.Fatalf("claimant win payouts = %s/%s", toClaimant, toChallenger)
	}
	toClaimant, toChallenger = r.FeePayouts(PartyChallenger)
	if toClaimant.Sign() != 0 || toChallenger.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("challenger win payouts = %s/%s", toClaimant, toChallenger)
	}
	toClaimant, toChallenger = r.FeePayouts(PartyNone)
	if toClaimant.Cmp(big.NewInt(10)) != 0 || toChallenger.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("split payouts = %s/%s", toClaimant, toChallenger)
	}
	// Payouts never mutate the recorded stakes.
	if r.ClaimantFee.Cmp(big.NewInt(10)) != 0 || r.ChallengerFee.Cmp(big.NewInt(15)) != 0 {
		t.Fatal("payout computation mutated the round")
	}
}
