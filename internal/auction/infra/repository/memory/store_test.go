package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store, start, end time.Time) *domain.Auction {
	t.Helper()
	a, err := domain.NewAuction(uuid.New(), "clock", decimal.NewFromInt(10), decimal.NewFromInt(1), start, end, t0)
	require.NoError(t, err)
	require.NoError(t, s.CreateAuction(context.Background(), a))
	return a
}

func TestStore_GetAuctionNotFound(t *testing.T) {
	s := NewStore(0)
	_, err := s.GetAuction(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)

	err = s.WithinTx(context.Background(), func(ctx context.Context, tx domain.AuctionTx) error {
		_, err := tx.LockAuction(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()
	a := seed(t, s, t0.Add(-time.Hour), t0.Add(time.Hour))
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		got, err := tx.LockAuction(ctx, a.ID)
		require.NoError(t, err)
		bid := domain.NewBid(got.ID, uuid.New(), decimal.NewFromInt(10), t0)
		require.NoError(t, tx.InsertBid(ctx, bid))
		got.ApplyBid(bid.BidderID, bid.Amount, t0)
		require.NoError(t, tx.UpdateAuction(ctx, got))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.CurrentBidPrice.Valid)
	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestStore_LockTimeoutReturnsBusy(t *testing.T) {
	s := NewStore(20 * time.Millisecond)
	ctx := context.Background()
	a := seed(t, s, t0.Add(-time.Hour), t0.Add(time.Hour))

	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		_, err := tx.LockAuction(ctx, a.ID)
		require.NoError(t, err)

		inner := s.WithinTx(ctx, func(ctx context.Context, other domain.AuctionTx) error {
			_, err := other.LockAuction(ctx, a.ID)
			return err
		})
		assert.ErrorIs(t, inner, domain.ErrBusy)
		return nil
	})
	require.NoError(t, err)

	// released after the outer transaction
	err = s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		_, err := tx.LockAuction(ctx, a.ID)
		return err
	})
	assert.NoError(t, err)
}

func TestStore_RejectsSecondWinningBid(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()
	a := seed(t, s, t0.Add(-time.Hour), t0.Add(time.Hour))

	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		if _, err := tx.LockAuction(ctx, a.ID); err != nil {
			return err
		}
		if err := tx.InsertBid(ctx, domain.NewBid(a.ID, uuid.New(), decimal.NewFromInt(10), t0)); err != nil {
			return err
		}
		return tx.InsertBid(ctx, domain.NewBid(a.ID, uuid.New(), decimal.NewFromInt(20), t0))
	})
	require.Error(t, err)

	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestStore_WritesNeedLock(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()
	a := seed(t, s, t0.Add(-time.Hour), t0.Add(time.Hour))

	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		return tx.UpdateAuction(ctx, a)
	})
	assert.ErrorIs(t, err, errNotLocked)
}

func TestStore_SettlementIsUnique(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()
	a := seed(t, s, t0.Add(-2*time.Hour), t0.Add(-time.Hour))

	settle := func() error {
		return s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
			got, err := tx.LockAuction(ctx, a.ID)
			if err != nil {
				return err
			}
			return tx.InsertSettlement(ctx, domain.NewNoWinnerSettlement(got, domain.OutcomeNoBids, nil, t0))
		})
	}
	require.NoError(t, settle())
	assert.Error(t, settle())

	st, err := s.GetSettlement(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, domain.OutcomeNoBids, st.Outcome)
}

func TestStore_ListQueries(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()
	expired := seed(t, s, t0.Add(-2*time.Hour), t0.Add(-time.Minute))
	soon := seed(t, s, t0.Add(-time.Hour), t0.Add(30*time.Minute))
	seed(t, s, t0.Add(-time.Hour), t0.Add(3*time.Hour))
	scheduled := seed(t, s, t0.Add(time.Hour), t0.Add(4*time.Hour))

	due, err := s.ListDueForClose(ctx, t0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{expired.ID}, due)

	ending, err := s.ListEndingSoon(ctx, t0, time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{soon.ID}, ending)

	starting, err := s.ListDueForStart(ctx, t0.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{scheduled.ID}, starting)

	all, err := s.ListDueForClose(ctx, t0.Add(5*time.Hour), 2)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{expired.ID, soon.ID}, all)
}
