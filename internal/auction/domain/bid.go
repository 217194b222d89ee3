package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid represents an individual bid in an auction. Bids are append-only, the
// only mutation is the winning flag flip when a higher bid supersedes it.
type Bid struct {
	ID           uuid.UUID
	AuctionID    uuid.UUID
	BidderID     uuid.UUID
	Amount       decimal.Decimal
	IsWinningBid bool
	CreatedAt    time.Time
	OutbidAt     *time.Time
}

// NewBid creates the winning bid for an accepted placement
func NewBid(auctionID, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) *Bid {
	return &Bid{
		ID:           uuid.New(),
		AuctionID:    auctionID,
		BidderID:     bidderID,
		Amount:       amount,
		IsWinningBid: true,
		CreatedAt:    now,
	}
}

// MarkOutbid flips the winning flag and stamps outbid time
func (b *Bid) MarkOutbid(now time.Time) {
	t := now
	b.IsWinningBid = false
	b.OutbidAt = &t
}

// Clone returns a deep copy
func (b *Bid) Clone() *Bid {
	c := *b
	if b.OutbidAt != nil {
		t := *b.OutbidAt
		c.OutbidAt = &t
	}
	return &c
}
