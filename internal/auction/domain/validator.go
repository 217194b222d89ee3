package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidateBid checks a proposed bid against the auction state as of now.
// Rules run in order and the first failure wins. The reserve price is never
// checked here, it only disqualifies a winner at settlement.
func ValidateBid(a *Auction, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) error {
	if a.Status != StatusActive || !a.IsOpenAt(now) {
		return ErrAuctionNotActive
	}
	if bidderID == a.SellerID {
		return ErrSelfBidForbidden
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if minimum := a.MinimumBid(); amount.LessThan(minimum) {
		return &BidTooLowError{Minimum: minimum}
	}
	return nil
}
