// Package review implements the moderation workflow shared by every screen
// that puts a pending financial record in front of a human: staged
// confirmations, the approve/reject transition, and the detail resolver.
package review

// State is the tri-state every domain status reduces to.
type State string

const (
	// StatePending awaits a decision.
	StatePending State = "pending"
	// StateResolvedPositive covers approved/completed statuses.
	StateResolvedPositive State = "resolved_positive"
	// StateResolvedNegative covers rejected/failed statuses.
	StateResolvedNegative State = "resolved_negative"
)

// Decision is the operator's requested outcome.
type Decision string

const (
	// DecisionApprove resolves the record positively.
	DecisionApprove Decision = "approve"
	// DecisionReject resolves the record negatively.
	DecisionReject Decision = "reject"
)

// Reviewable is a record the workflow can act on.
type Reviewable interface {
	ReviewID() string
	ReviewState() State
}

// Monetary marks records whose approval carries an editable amount,
// defaulting to the record's own.
type Monetary interface {
	ReviewAmount() (float64, string)
}
