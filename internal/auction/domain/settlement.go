package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementOutcome tells how an auction was finalized
type SettlementOutcome string

const (
	OutcomeWon           SettlementOutcome = "won"
	OutcomeNoBids        SettlementOutcome = "no_bids"
	OutcomeReserveNotMet SettlementOutcome = "reserve_not_met"
)

// Settlement is the ledger entry written exactly once per auction when the
// winner determination completes. Winner fields are nil unless Outcome is won.
type Settlement struct {
	ID           uuid.UUID
	AuctionID    uuid.UUID
	SellerID     uuid.UUID
	Outcome      SettlementOutcome
	WinnerID     *uuid.UUID
	WinningBidID *uuid.UUID
	Amount       decimal.NullDecimal
	AuctionEnded time.Time
	SettledAt    time.Time
}

// HasWinner reports whether the settlement carries a winner
func (s *Settlement) HasWinner() bool {
	return s.Outcome == OutcomeWon && s.WinnerID != nil
}

func newSettlement(a *Auction, outcome SettlementOutcome, now time.Time) *Settlement {
	ended := a.EndTime
	if now.Before(ended) {
		// buy-now or early close
		ended = now
	}
	return &Settlement{
		ID:           uuid.New(),
		AuctionID:    a.ID,
		SellerID:     a.SellerID,
		Outcome:      outcome,
		AuctionEnded: ended,
		SettledAt:    now,
	}
}

// NewNoWinnerSettlement records a finalized auction that produced no sale
func NewNoWinnerSettlement(a *Auction, outcome SettlementOutcome, highest *Bid, now time.Time) *Settlement {
	s := newSettlement(a, outcome, now)
	if highest != nil {
		s.Amount = decimal.NewNullDecimal(highest.Amount)
	}
	return s
}

// NewWinnerSettlement records the sale to the winning bid's bidder
func NewWinnerSettlement(a *Auction, winning *Bid, now time.Time) *Settlement {
	s := newSettlement(a, OutcomeWon, now)
	winnerID := winning.BidderID
	bidID := winning.ID
	s.WinnerID = &winnerID
	s.WinningBidID = &bidID
	s.Amount = decimal.NewNullDecimal(winning.Amount)
	return s
}
