package entities

import "time"

type BallotKind string

const (
	KindRefund BallotKind = "refund"
	KindPoll   BallotKind = "poll"
)

type BallotState string

const (
	StateOpen     BallotState = "open"
	StateAccepted BallotState = "accepted"
	StateRejected BallotState = "rejected"
	StateAborted  BallotState = "aborted"
)

type PollVariant string

const (
	VariantGetInternal    PollVariant = "get_internal"
	VariantLoseInternal   PollVariant = "lose_internal"
	VariantGetPermission  PollVariant = "get_permission"
	VariantLosePermission PollVariant = "lose_permission"
)

// ValidVariant reports whether v names a known membership poll variant.
func ValidVariant(v PollVariant) bool {
	switch v {
	case VariantGetInternal, VariantLoseInternal, VariantGetPermission, VariantLosePermission:
		return true
	}
	return false
}

// Ballot is one consensus process. Refund ballots carry Amount, Description
// and, once accepted, the id of the payout transaction. Poll ballots carry
// the variant and the user whose membership flags are at stake.
type Ballot struct {
	BallotID      string
	Kind          BallotKind
	State         BallotState
	CreatorID     string
	Amount        int64
	Description   string
	TransactionID *string
	Variant       PollVariant
	TargetUserID  string
	CreatedAt     time.Time
	ModifiedAt    time.Time
	ClosedAt      *time.Time
}

func (b Ballot) Open() bool { return b.State == StateOpen }

// Vote is one member's current position on a ballot. A member re-voting
// overwrites value and timestamp, never the identity of the vote row.
type Vote struct {
	VoteID     string
	BallotID   string
	UserID     string
	Approve    bool
	ModifiedAt time.Time
}

// Thresholds are the closing margins of one ballot kind.
type Thresholds struct {
	MinApproves    int64
	MinDisapproves int64
}

// Tally folds the votes into approves minus disapproves.
func Tally(votes []Vote) int64 {
	var tally int64
	for _, vote := range votes {
		if vote.Approve {
			tally++
		} else {
			tally--
		}
	}
	return tally
}

// EvaluateTally maps a tally onto the resulting ballot state. Acceptance
// wins when both margins would be reached at once, which cannot happen with
// positive thresholds.
func EvaluateTally(tally int64, thresholds Thresholds) BallotState {
	if tally >= thresholds.MinApproves {
		return StateAccepted
	}
	if -tally >= thresholds.MinDisapproves {
		return StateRejected
	}
	return StateOpen
}
