package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuctionStore is the transactional storage of auctions, bids and settlements.
type AuctionStore interface {
	// WithinTx runs fn inside a single transaction. A non-nil error from fn
	// rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx AuctionTx) error) error

	CreateAuction(ctx context.Context, a *Auction) error
	GetAuction(ctx context.Context, id uuid.UUID) (*Auction, error)
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
	GetSettlement(ctx context.Context, auctionID uuid.UUID) (*Settlement, error)

	// ListDueForClose returns active or scheduled auctions past their end time and ended
	// auctions still waiting for winner determination.
	ListDueForClose(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	// ListDueForStart returns scheduled auctions whose bidding window is open
	ListDueForStart(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	// ListEndingSoon returns active auctions with now < end <= now+window that
	// were not notified yet.
	ListEndingSoon(ctx context.Context, now time.Time, window time.Duration, limit int) ([]uuid.UUID, error)
}

// AuctionTx is the set of operations available inside a store transaction.
type AuctionTx interface {
	// LockAuction takes the exclusive row lock and returns the fresh row.
	// Returns ErrAuctionNotFound or ErrBusy.
	LockAuction(ctx context.Context, id uuid.UUID) (*Auction, error)
	UpdateAuction(ctx context.Context, a *Auction) error
	// GetWinningBid returns nil when the auction has no winning bid
	GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*Bid, error)
	InsertBid(ctx context.Context, b *Bid) error
	MarkOutbid(ctx context.Context, bidID uuid.UUID, at time.Time) error
	// ListBidderIDs returns distinct bidders ordered by their first bid
	ListBidderIDs(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error)
	InsertSettlement(ctx context.Context, s *Settlement) error
	// GetSettlement returns nil when the auction was not settled
	GetSettlement(ctx context.Context, auctionID uuid.UUID) (*Settlement, error)
}
