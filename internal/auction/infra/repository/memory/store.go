// Package memory is an in-process implementation of domain.AuctionStore.
// Every auction has its own lock, a transaction stages its writes and applies
// them atomically on commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
)

const defaultLockTimeout = 2 * time.Second

var errNotLocked = errors.New("memory store: auction is not locked by this transaction")

// Store implements domain.AuctionStore
type Store struct {
	mu          sync.RWMutex
	auctions    map[uuid.UUID]*domain.Auction
	bids        map[uuid.UUID][]*domain.Bid
	settlements map[uuid.UUID]*domain.Settlement
	locks       map[uuid.UUID]chan struct{}
	lockTimeout time.Duration
}

var _ domain.AuctionStore = (*Store)(nil)

// NewStore creates an empty store. lockTimeout bounds how long a transaction
// waits for an auction lock before failing with domain.ErrBusy.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Store{
		auctions:    make(map[uuid.UUID]*domain.Auction),
		bids:        make(map[uuid.UUID][]*domain.Bid),
		settlements: make(map[uuid.UUID]*domain.Settlement),
		locks:       make(map[uuid.UUID]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

func (s *Store) CreateAuction(_ context.Context, a *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[a.ID]; ok {
		return fmt.Errorf("memory store: auction %s already exists", a.ID)
	}
	s.auctions[a.ID] = a.Clone()
	s.locks[a.ID] = make(chan struct{}, 1)
	return nil
}

func (s *Store) GetAuction(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return a.Clone(), nil
}

func (s *Store) ListBids(_ context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.auctions[auctionID]; !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return cloneBids(s.bids[auctionID]), nil
}

func (s *Store) GetSettlement(_ context.Context, auctionID uuid.UUID) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settlements[auctionID]
	if !ok {
		return nil, nil
	}
	c := *st
	return &c, nil
}

func (s *Store) ListDueForClose(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return s.selectIDs(limit, func(a *domain.Auction) bool {
		switch a.Status {
		case domain.StatusEnded:
			return true
		case domain.StatusActive, domain.StatusScheduled:
			return a.IsExpiredAt(now)
		}
		return false
	}), nil
}

func (s *Store) ListDueForStart(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return s.selectIDs(limit, func(a *domain.Auction) bool {
		return a.Status == domain.StatusScheduled && a.IsOpenAt(now)
	}), nil
}

func (s *Store) ListEndingSoon(_ context.Context, now time.Time, window time.Duration, limit int) ([]uuid.UUID, error) {
	horizon := now.Add(window)
	return s.selectIDs(limit, func(a *domain.Auction) bool {
		return a.Status == domain.StatusActive &&
			a.EndingSoonNotifiedAt == nil &&
			a.EndTime.After(now) && !a.EndTime.After(horizon)
	}), nil
}

// selectIDs returns matching auction ids ordered by end time
func (s *Store) selectIDs(limit int, match func(*domain.Auction) bool) []uuid.UUID {
	s.mu.RLock()
	matched := make([]*domain.Auction, 0)
	for _, a := range s.auctions {
		if match(a) {
			matched = append(matched, a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].EndTime.Before(matched[j].EndTime) })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	ids := make([]uuid.UUID, 0, len(matched))
	for _, a := range matched {
		ids = append(ids, a.ID)
	}
	return ids
}

// WithinTx implements domain.AuctionStore
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.AuctionTx) error) error {
	tx := &memTx{store: s, locked: make(map[uuid.UUID]*lockedAuction)}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *Store) acquire(ctx context.Context, id uuid.UUID) error {
	s.mu.RLock()
	lock, ok := s.locks[id]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrAuctionNotFound
	}

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case lock <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrBusy
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrBusy, ctx.Err())
	}
}

func (s *Store) releaseLock(id uuid.UUID) {
	s.mu.RLock()
	lock := s.locks[id]
	s.mu.RUnlock()
	<-lock
}

func cloneBids(bids []*domain.Bid) []*domain.Bid {
	out := make([]*domain.Bid, 0, len(bids))
	for _, b := range bids {
		out = append(out, b.Clone())
	}
	return out
}
