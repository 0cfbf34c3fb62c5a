// Package access decides whether an authenticated caller may act on a
// resource. Public reads never reach it.
package access

import (
	"fmt"

	"jobsync/marketplace-service/internal/marketplace"
)

// AuthorizeOwner allows the request iff the caller's email equals the
// resource owner's, compared exactly. It returns marketplace.ErrForbidden
// otherwise.
func AuthorizeOwner(caller marketplace.Identity, ownerEmail string) error {
	if caller.Email == "" || caller.Email != ownerEmail {
		return marketplace.ErrForbidden
	}
	return nil
}

// AuthorizeStatusChange checks that the caller is the party entitled to move
// bid into next and that the move is a legal transition. The job's buyer
// accepts or rejects; the bidder reports completion.
func AuthorizeStatusChange(caller marketplace.Identity, bid *marketplace.Bid, next marketplace.BidStatus) error {
	owner := bid.Email
	if marketplace.DecidedByBuyer(next) {
		owner = bid.BuyerEmail
	}
	if err := AuthorizeOwner(caller, owner); err != nil {
		return err
	}
	if !marketplace.IsTransitionAllowed(bid.Status, next) {
		return &marketplace.ValidationError{
			Msg: fmt.Sprintf("transition %s → %s is not allowed", bid.Status, next),
		}
	}
	return nil
}
