package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/db"
	"github.com/cristianortiz/biddingengine/internal/shared/db/migrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const migrationsDir = "../../../../shared/db/migrations/sql"

type nopPublisher struct{}

func (nopPublisher) Publish(domain.Events) {}

// testPool connects to TEST_DATABASE_URL, the tests are skipped without it
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, migrations.RunMigrations(dsn, migrationsDir, zaptest.NewLogger(t)))

	pool, err := db.NewPostgresPool(context.Background(), dsn, 20)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createAuction(t *testing.T, s *Store, now time.Time, opts ...func(*domain.Auction)) *domain.Auction {
	t.Helper()
	a, err := domain.NewAuction(uuid.New(), "typewriter", decimal.NewFromInt(100), decimal.NewFromInt(50), now.Add(-time.Hour), now.Add(time.Hour), now)
	require.NoError(t, err)
	for _, o := range opts {
		o(a)
	}
	require.NoError(t, s.CreateAuction(context.Background(), a))
	return a
}

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(testPool(t), time.Second)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a := createAuction(t, s, now, func(a *domain.Auction) {
		a.ReservePrice = decimal.NewNullDecimal(decimal.RequireFromString("250.50"))
	})

	got, err := s.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.SellerID, got.SellerID)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, "250.5", got.ReservePrice.Decimal.String())
	assert.False(t, got.BuyNowPrice.Valid)
	assert.False(t, got.CurrentBidPrice.Valid)
	assert.Nil(t, got.CurrentBidderID)
	assert.True(t, a.EndTime.Equal(got.EndTime))

	_, err = s.GetAuction(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)
	_, err = s.ListBids(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAuctionNotFound)

	st, err := s.GetSettlement(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestStore_BiddingFlow(t *testing.T) {
	s := NewStore(testPool(t), time.Second)
	ctx := context.Background()
	now := time.Now().UTC()
	clock := domain.ClockFunc(func() time.Time { return now })
	svc := application.NewAuctionService(s, nopPublisher{}, clock, zaptest.NewLogger(t), application.Options{})
	t.Cleanup(svc.Wait)

	a := createAuction(t, s, now)
	b1, b2 := uuid.New(), uuid.New()

	_, err := svc.PlaceBid(ctx, application.PlaceBidDTO{AuctionID: a.ID, BidderID: b1, Amount: decimal.NewFromInt(150)})
	require.NoError(t, err)
	_, err = svc.PlaceBid(ctx, application.PlaceBidDTO{AuctionID: a.ID, BidderID: b2, Amount: decimal.NewFromInt(120)})
	var low *domain.BidTooLowError
	require.ErrorAs(t, err, &low)
	assert.Equal(t, "200", low.Minimum.String())
	_, err = svc.PlaceBid(ctx, application.PlaceBidDTO{AuctionID: a.ID, BidderID: b2, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.False(t, bids[0].IsWinningBid)
	assert.NotNil(t, bids[0].OutbidAt)
	assert.True(t, bids[1].IsWinningBid)

	res, err := svc.CloseAuction(ctx, a.ID, a.SellerID)
	require.NoError(t, err)
	require.NotNil(t, res.WinnerID)
	assert.Equal(t, b2, *res.WinnerID)

	again, err := svc.DetermineWinner(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadySettled)
	assert.Equal(t, res.Settlement.ID, again.Settlement.ID)

	st, err := s.GetSettlement(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeWon, st.Outcome)
	assert.Equal(t, "200", st.Amount.Decimal.String())
}

func TestStore_ConcurrentBidsKeepOneWinner(t *testing.T) {
	s := NewStore(testPool(t), 5*time.Second)
	ctx := context.Background()
	now := time.Now().UTC()
	svc := application.NewAuctionService(s, nopPublisher{}, domain.ClockFunc(func() time.Time { return now }), zaptest.NewLogger(t), application.Options{})
	t.Cleanup(svc.Wait)
	a := createAuction(t, s, now, func(a *domain.Auction) { a.BidIncrement = decimal.NewFromInt(1) })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, _ = svc.PlaceBid(ctx, application.PlaceBidDTO{AuctionID: a.ID, BidderID: uuid.New(), Amount: decimal.NewFromInt(amount)})
		}(int64(100 + i*10))
	}
	wg.Wait()

	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	require.NotEmpty(t, bids)
	winning := 0
	for i, b := range bids {
		if b.IsWinningBid {
			winning++
		}
		if i > 0 {
			assert.True(t, b.Amount.GreaterThan(bids[i-1].Amount))
		}
	}
	assert.Equal(t, 1, winning)
}

func TestStore_LockTimeoutIsBusy(t *testing.T) {
	pool := testPool(t)
	s := NewStore(pool, 100*time.Millisecond)
	ctx := context.Background()
	a := createAuction(t, s, time.Now().UTC())

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
			if _, err := tx.LockAuction(ctx, a.ID); err != nil {
				close(locked)
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		_, err := tx.LockAuction(ctx, a.ID)
		return err
	})
	close(release)
	require.NoError(t, <-done)
	assert.ErrorIs(t, err, domain.ErrBusy)
}

func TestStore_OneWinningBidConstraint(t *testing.T) {
	s := NewStore(testPool(t), time.Second)
	ctx := context.Background()
	now := time.Now().UTC()
	a := createAuction(t, s, now)

	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		if _, err := tx.LockAuction(ctx, a.ID); err != nil {
			return err
		}
		if err := tx.InsertBid(ctx, domain.NewBid(a.ID, uuid.New(), decimal.NewFromInt(100), now)); err != nil {
			return err
		}
		return tx.InsertBid(ctx, domain.NewBid(a.ID, uuid.New(), decimal.NewFromInt(150), now))
	})
	require.Error(t, err)

	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestStore_AuctionWithBidsCannotBeDeleted(t *testing.T) {
	pool := testPool(t)
	s := NewStore(pool, time.Second)
	ctx := context.Background()
	now := time.Now().UTC()
	a := createAuction(t, s, now)

	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		if _, err := tx.LockAuction(ctx, a.ID); err != nil {
			return err
		}
		return tx.InsertBid(ctx, domain.NewBid(a.ID, uuid.New(), decimal.NewFromInt(100), now))
	})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, a.ID)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23503", pgErr.Code)

	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, bids, 1)
}
