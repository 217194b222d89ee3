package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
)

// lockedAuction is the private working copy of one locked auction
type lockedAuction struct {
	auction    *domain.Auction
	bids       []*domain.Bid
	settlement *domain.Settlement
	dirty      bool
}

type memTx struct {
	store  *Store
	locked map[uuid.UUID]*lockedAuction
	order  []uuid.UUID
}

func (tx *memTx) LockAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	if la, ok := tx.locked[id]; ok {
		return la.auction.Clone(), nil
	}
	if err := tx.store.acquire(ctx, id); err != nil {
		return nil, err
	}
	tx.order = append(tx.order, id)

	s := tx.store
	s.mu.RLock()
	la := &lockedAuction{
		auction: s.auctions[id].Clone(),
		bids:    cloneBids(s.bids[id]),
	}
	if st, ok := s.settlements[id]; ok {
		c := *st
		la.settlement = &c
	}
	s.mu.RUnlock()

	tx.locked[id] = la
	return la.auction.Clone(), nil
}

func (tx *memTx) working(id uuid.UUID) (*lockedAuction, error) {
	la, ok := tx.locked[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNotLocked, id)
	}
	return la, nil
}

func (tx *memTx) UpdateAuction(_ context.Context, a *domain.Auction) error {
	la, err := tx.working(a.ID)
	if err != nil {
		return err
	}
	la.auction = a.Clone()
	la.dirty = true
	return nil
}

func (tx *memTx) GetWinningBid(_ context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	la, err := tx.working(auctionID)
	if err != nil {
		return nil, err
	}
	for _, b := range la.bids {
		if b.IsWinningBid {
			return b.Clone(), nil
		}
	}
	return nil, nil
}

func (tx *memTx) InsertBid(_ context.Context, b *domain.Bid) error {
	la, err := tx.working(b.AuctionID)
	if err != nil {
		return err
	}
	if !b.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	la.bids = append(la.bids, b.Clone())
	la.dirty = true
	return nil
}

func (tx *memTx) MarkOutbid(_ context.Context, bidID uuid.UUID, at time.Time) error {
	for _, la := range tx.locked {
		for _, b := range la.bids {
			if b.ID == bidID {
				b.MarkOutbid(at)
				la.dirty = true
				return nil
			}
		}
	}
	return fmt.Errorf("memory store: bid %s not found in locked auctions", bidID)
}

func (tx *memTx) ListBidderIDs(_ context.Context, auctionID uuid.UUID) ([]uuid.UUID, error) {
	la, err := tx.working(auctionID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(la.bids))
	ids := make([]uuid.UUID, 0, len(la.bids))
	for _, b := range la.bids {
		if _, ok := seen[b.BidderID]; ok {
			continue
		}
		seen[b.BidderID] = struct{}{}
		ids = append(ids, b.BidderID)
	}
	return ids, nil
}

func (tx *memTx) InsertSettlement(_ context.Context, st *domain.Settlement) error {
	la, err := tx.working(st.AuctionID)
	if err != nil {
		return err
	}
	if la.settlement != nil {
		return fmt.Errorf("memory store: auction %s already has a settlement", st.AuctionID)
	}
	c := *st
	la.settlement = &c
	la.dirty = true
	return nil
}

func (tx *memTx) GetSettlement(_ context.Context, auctionID uuid.UUID) (*domain.Settlement, error) {
	la, err := tx.working(auctionID)
	if err != nil {
		return nil, err
	}
	if la.settlement == nil {
		return nil, nil
	}
	c := *la.settlement
	return &c, nil
}

// commit checks the invariants the database enforces with constraints and
// publishes every dirty working copy.
func (tx *memTx) commit() error {
	for id, la := range tx.locked {
		if !la.dirty {
			continue
		}
		winning := 0
		for _, b := range la.bids {
			if b.IsWinningBid {
				winning++
			}
		}
		if winning > 1 {
			return fmt.Errorf("memory store: auction %s would have %d winning bids", id, winning)
		}
	}

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, la := range tx.locked {
		if !la.dirty {
			continue
		}
		s.auctions[id] = la.auction
		s.bids[id] = la.bids
		if la.settlement != nil {
			s.settlements[id] = la.settlement
		}
	}
	return nil
}

func (tx *memTx) release() {
	for _, id := range tx.order {
		tx.store.releaseLock(id)
	}
	tx.order = nil
}
