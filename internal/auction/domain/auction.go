package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionStatus represents the lifecycle state of an auction
type AuctionStatus string

const (
	StatusScheduled AuctionStatus = "scheduled"
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusSettled   AuctionStatus = "settled"
)

// Auction is the aggregate root of the bidding engine. All mutations happen
// inside a store transaction holding the auction row lock.
type Auction struct {
	ID            uuid.UUID
	SellerID      uuid.UUID
	CategoryID    uuid.UUID
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	ReservePrice  decimal.NullDecimal
	BuyNowPrice   decimal.NullDecimal
	BidIncrement  decimal.Decimal
	// CurrentBidPrice and CurrentBidderID are both null until the first bid
	CurrentBidPrice decimal.NullDecimal
	CurrentBidderID *uuid.UUID
	Status          AuctionStatus
	WinnerID        *uuid.UUID
	StartTime       time.Time
	EndTime         time.Time
	// EndingSoonNotifiedAt marks that the ending-soon round was already emitted
	EndingSoonNotifiedAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewAuction builds a scheduled auction, the status is promoted to active
// when start time has already passed.
func NewAuction(sellerID uuid.UUID, title string, startingPrice, increment decimal.Decimal, start, end, now time.Time) (*Auction, error) {
	if !end.After(start) {
		return nil, ErrInvalidSchedule
	}
	if !startingPrice.IsPositive() || !increment.IsPositive() {
		return nil, ErrInvalidAmount
	}
	a := &Auction{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Title:         title,
		StartingPrice: startingPrice,
		BidIncrement:  increment,
		Status:        StatusScheduled,
		StartTime:     start,
		EndTime:       end,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !now.Before(start) && now.Before(end) {
		a.Status = StatusActive
	}
	return a, nil
}

// HasBids reports whether a bid was ever accepted on this auction
func (a *Auction) HasBids() bool {
	return a.CurrentBidPrice.Valid
}

// IsOpenAt reports whether the bidding window contains now
func (a *Auction) IsOpenAt(now time.Time) bool {
	return !now.Before(a.StartTime) && now.Before(a.EndTime)
}

// IsExpiredAt reports whether end time has been reached
func (a *Auction) IsExpiredAt(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// MinimumBid returns the smallest amount a new bid must reach.
func (a *Auction) MinimumBid() decimal.Decimal {
	if !a.CurrentBidPrice.Valid {
		return a.StartingPrice
	}
	return a.CurrentBidPrice.Decimal.Add(a.BidIncrement)
}

// ReserveMet reports whether amount satisfies the reserve price, an auction
// without reserve is always met.
func (a *Auction) ReserveMet(amount decimal.Decimal) bool {
	if !a.ReservePrice.Valid {
		return true
	}
	return amount.GreaterThanOrEqual(a.ReservePrice.Decimal)
}

// TriggersBuyNow reports whether an accepted bid of amount exercises buy-now
func (a *Auction) TriggersBuyNow(amount decimal.Decimal) bool {
	return a.BuyNowPrice.Valid && amount.GreaterThanOrEqual(a.BuyNowPrice.Decimal)
}

// Activate moves a scheduled auction into the active state once its window opened.
func (a *Auction) Activate(now time.Time) error {
	if a.Status != StatusScheduled {
		return ErrInvalidTransition
	}
	if !a.IsOpenAt(now) {
		return ErrAuctionNotActive
	}
	a.Status = StatusActive
	a.UpdatedAt = now
	return nil
}

// ApplyBid records bidderID as the current highest bidder. Callers must have
// validated the bid first.
func (a *Auction) ApplyBid(bidderID uuid.UUID, amount decimal.Decimal, now time.Time) {
	id := bidderID
	a.CurrentBidPrice = decimal.NewNullDecimal(amount)
	a.CurrentBidderID = &id
	a.UpdatedAt = now
}

// End closes the auction for bidding. Ending an ended auction is a no-op. A
// scheduled auction whose whole window elapsed unnoticed ends directly.
func (a *Auction) End(now time.Time) error {
	switch a.Status {
	case StatusEnded:
		return nil
	case StatusActive:
	case StatusScheduled:
		if !a.IsExpiredAt(now) {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidTransition
	}
	a.Status = StatusEnded
	a.UpdatedAt = now
	return nil
}

// Settle marks the auction terminal. winnerID is nil for no-winner outcomes.
func (a *Auction) Settle(winnerID *uuid.UUID, now time.Time) error {
	if a.Status != StatusEnded {
		return ErrInvalidTransition
	}
	a.Status = StatusSettled
	a.WinnerID = winnerID
	a.UpdatedAt = now
	return nil
}

// MarkEndingSoonNotified stamps the ending-soon marker
func (a *Auction) MarkEndingSoonNotified(now time.Time) {
	t := now
	a.EndingSoonNotifiedAt = &t
	a.UpdatedAt = now
}

// Clone returns a deep copy, pointer fields included.
func (a *Auction) Clone() *Auction {
	c := *a
	if a.CurrentBidderID != nil {
		id := *a.CurrentBidderID
		c.CurrentBidderID = &id
	}
	if a.WinnerID != nil {
		id := *a.WinnerID
		c.WinnerID = &id
	}
	if a.EndingSoonNotifiedAt != nil {
		t := *a.EndingSoonNotifiedAt
		c.EndingSoonNotifiedAt = &t
	}
	return &c
}
