package marketplace

import "fmt"

// BidStatus is the lifecycle of a bid.
//
//	Pending ──► In Progress ──► Completed
//	   │
//	   └──► Rejected
//
// Completed and Rejected are terminal.
type BidStatus string

const (
	StatusPending    BidStatus = "Pending"
	StatusInProgress BidStatus = "In Progress"
	StatusRejected   BidStatus = "Rejected"
	StatusCompleted  BidStatus = "Completed"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[BidStatus][]BidStatus{
	StatusPending:    {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusCompleted},
}

// ParseStatus converts a raw string to a BidStatus, returning an error for
// unknown values.
func ParseStatus(s string) (BidStatus, error) {
	st := BidStatus(s)
	switch st {
	case StatusPending, StatusInProgress, StatusRejected, StatusCompleted:
		return st, nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown bid status %q", s)}
}

// IsTransitionAllowed reports whether a bid may move from → to.
func IsTransitionAllowed(from, to BidStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DecidedByBuyer reports whether moving into s is the job owner's call.
// Completion is reported by the bidder.
func DecidedByBuyer(s BidStatus) bool {
	return s == StatusInProgress || s == StatusRejected
}
