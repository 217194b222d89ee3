package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrSelfBidForbidden  = errors.New("seller cannot bid on own auction")
	ErrBidTooLow         = errors.New("bid amount is too low")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidSchedule   = errors.New("auction end time must be after start time")
	ErrInvalidTransition = errors.New("invalid auction status transition")
	ErrAuctionNotEnded   = errors.New("auction has not ended yet")
	ErrNotSeller         = errors.New("only the seller can close the auction")
	// ErrBusy is returned when the auction lock could not be acquired in time.
	// Nothing was written, the caller may retry.
	ErrBusy = errors.New("auction is busy, retry later")
)

// BidTooLowError carries the minimum amount that would have been accepted
type BidTooLowError struct {
	Minimum decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: minimum is %s", ErrBidTooLow.Error(), e.Minimum.String())
}

func (e *BidTooLowError) Unwrap() error { return ErrBidTooLow }

// Reason codes exposed to transports
const (
	ReasonAuctionNotActive = "AUCTION_NOT_ACTIVE"
	ReasonSelfBidForbidden = "SELF_BID_FORBIDDEN"
	ReasonBidTooLow        = "BID_TOO_LOW"
	ReasonInvalidAmount    = "INVALID_AMOUNT"
	ReasonNotFound         = "NOT_FOUND"
	ReasonBusy             = "BUSY"
	ReasonNotEnded         = "AUCTION_NOT_ENDED"
	ReasonNotSeller        = "NOT_SELLER"
	ReasonInternal         = "INTERNAL"
)

// Reason maps err to a machine-readable reason code
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrAuctionNotActive):
		return ReasonAuctionNotActive
	case errors.Is(err, ErrSelfBidForbidden):
		return ReasonSelfBidForbidden
	case errors.Is(err, ErrBidTooLow):
		return ReasonBidTooLow
	case errors.Is(err, ErrInvalidAmount):
		return ReasonInvalidAmount
	case errors.Is(err, ErrAuctionNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrBusy):
		return ReasonBusy
	case errors.Is(err, ErrAuctionNotEnded):
		return ReasonNotEnded
	case errors.Is(err, ErrNotSeller):
		return ReasonNotSeller
	default:
		return ReasonInternal
	}
}

// IsValidationError reports whether err is a rejected bid rather than a failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrAuctionNotActive) ||
		errors.Is(err, ErrSelfBidForbidden) ||
		errors.Is(err, ErrBidTooLow) ||
		errors.Is(err, ErrInvalidAmount)
}
