package entities

import (
	"sort"

	domainerrors "tally/contexts/finance-core/communism-engine/domain/errors"
)

// Share is one participant's computed slice of a settled amount.
type Share struct {
	UserID   string
	Quantity int64
	Amount   int64
}

// SplitShares divides amount across weighted participants using the
// largest-remainder method. Base shares are floor(amount*quantity/total);
// the leftover minor units go one at a time to the largest fractional
// remainders, ties broken by ascending user id. The result always sums to
// amount exactly and is identical across runs for identical input.
func SplitShares(amount int64, participants []Participant) ([]Share, error) {
	eligible := make([]Participant, 0, len(participants))
	for _, participant := range participants {
		if participant.Quantity > 0 {
			eligible = append(eligible, participant)
		}
	}
	if len(eligible) == 0 {
		return nil, domainerrors.ErrNoParticipants
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].UserID < eligible[j].UserID
	})

	var total int64
	for _, participant := range eligible {
		total += participant.Quantity
	}

	// amount*quantity/total is computed as whole*quantity + part*quantity/total
	// with part < total and quantity <= total, so no intermediate product can
	// exceed the amount itself.
	whole := amount / total
	part := amount % total
	shares := make([]Share, len(eligible))
	fractions := make([]int64, len(eligible))
	var assigned int64
	for i, participant := range eligible {
		scaled := part * participant.Quantity
		shares[i] = Share{
			UserID:   participant.UserID,
			Quantity: participant.Quantity,
			Amount:   whole*participant.Quantity + scaled/total,
		}
		fractions[i] = scaled % total
		assigned += shares[i].Amount
	}

	remainder := amount - assigned
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if fractions[order[a]] != fractions[order[b]] {
			return fractions[order[a]] > fractions[order[b]]
		}
		return shares[order[a]].UserID < shares[order[b]].UserID
	})
	// remainder is always < len(shares): each unit stems from a truncated
	// fraction and there is at most one per participant.
	for i := int64(0); i < remainder; i++ {
		shares[order[i]].Amount++
	}

	var sum int64
	for _, share := range shares {
		sum += share.Amount
	}
	if sum != amount {
		return nil, domainerrors.ErrShareMismatch
	}
	return shares, nil
}
