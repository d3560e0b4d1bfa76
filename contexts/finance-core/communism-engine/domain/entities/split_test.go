package entities

import (
	"math"
	"testing"
)

func TestSplitSharesConservesTotal(t *testing.T) {
	shares, err := SplitShares(1000, []Participant{
		{UserID: "user-a", Quantity: 1},
		{UserID: "user-b", Quantity: 1},
		{UserID: "user-c", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	var sum int64
	for _, share := range shares {
		sum += share.Amount
	}
	if sum != 1000 {
		t.Fatalf("expected shares to sum to 1000, got %d", sum)
	}
	if shares[0].UserID != "user-a" || shares[0].Amount != 334 {
		t.Fatalf("expected remainder unit on lowest user id, got %+v", shares[0])
	}
	if shares[1].Amount != 333 || shares[2].Amount != 333 {
		t.Fatalf("expected base shares of 333, got %+v", shares)
	}
}

func TestSplitSharesWeighted(t *testing.T) {
	shares, err := SplitShares(700, []Participant{
		{UserID: "user-a", Quantity: 2},
		{UserID: "user-b", Quantity: 1},
		{UserID: "user-c", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	byUser := map[string]int64{}
	var sum int64
	for _, share := range shares {
		byUser[share.UserID] = share.Amount
		sum += share.Amount
	}
	if sum != 700 {
		t.Fatalf("expected shares to sum to 700, got %d", sum)
	}
	// 700/6 per quantity unit: bases 233, 116, 350; remainder 1 goes to the
	// largest fraction (user-b at 4/6 beats user-a at 2/6).
	if byUser["user-a"] != 233 || byUser["user-b"] != 117 || byUser["user-c"] != 350 {
		t.Fatalf("unexpected share assignment: %v", byUser)
	}
}

func TestSplitSharesDeterministic(t *testing.T) {
	participants := []Participant{
		{UserID: "user-d", Quantity: 3},
		{UserID: "user-a", Quantity: 2},
		{UserID: "user-c", Quantity: 2},
		{UserID: "user-b", Quantity: 5},
	}
	first, err := SplitShares(997, participants)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	for run := 0; run < 25; run++ {
		again, err := SplitShares(997, participants)
		if err != nil {
			t.Fatalf("split failed on run %d: %v", run, err)
		}
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("split is not deterministic: run %d yielded %+v instead of %+v", run, again[i], first[i])
			}
		}
	}
}

func TestSplitSharesLargeAmounts(t *testing.T) {
	amount := int64(math.MaxInt64 - 3)
	shares, err := SplitShares(amount, []Participant{
		{UserID: "user-a", Quantity: 3},
		{UserID: "user-b", Quantity: 1},
		{UserID: "user-c", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	var sum int64
	for _, share := range shares {
		if share.Amount < 0 {
			t.Fatalf("share overflowed to a negative amount: %+v", share)
		}
		sum += share.Amount
	}
	if sum != amount {
		t.Fatalf("expected shares to sum to %d, got %d", amount, sum)
	}
}

func TestSplitSharesDropsZeroQuantity(t *testing.T) {
	shares, err := SplitShares(100, []Participant{
		{UserID: "user-a", Quantity: 1},
		{UserID: "user-b", Quantity: 0},
	})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(shares) != 1 || shares[0].UserID != "user-a" || shares[0].Amount != 100 {
		t.Fatalf("expected single full share for user-a, got %+v", shares)
	}

	if _, err := SplitShares(100, []Participant{{UserID: "user-b", Quantity: 0}}); err == nil {
		t.Fatalf("expected error without positive quantities")
	}
}
