package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultLockTimeout = 2 * time.Second

const auctionColumns = `id, seller_id, category_id, title, description, starting_price, reserve_price,
        buy_now_price, bid_increment, current_bid_price, current_bidder_id, status, winner_id,
        start_time, end_time, ending_soon_notified_at, created_at, updated_at`

const bidColumns = `id, auction_id, bidder_id, amount, is_winning_bid, created_at, outbid_at`

const settlementColumns = `id, auction_id, seller_id, outcome, winner_id, winning_bid_id, amount, auction_ended, settled_at`

// Store implements domain.AuctionStore on PostgreSQL. The auction row lock is
// taken with SELECT ... FOR UPDATE and bounded by lock_timeout.
type Store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

var _ domain.AuctionStore = (*Store)(nil)

// NewStore creates a new instance of Store
func NewStore(pool *pgxpool.Pool, lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Store{pool: pool, lockTimeout: lockTimeout}
}

// WithinTx runs fn in a transaction, it commits when fn returns nil and rolls
// back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.AuctionTx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres store: begin: %w", mapError(err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("postgres store: commit: %w", mapError(cerr))
		}
	}()

	// scoped to this transaction
	timeout := fmt.Sprintf("%dms", s.lockTimeout.Milliseconds())
	if _, err = tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
		return fmt.Errorf("postgres store: set lock timeout: %w", mapError(err))
	}
	return fn(ctx, &pgTx{tx: tx})
}

func (s *Store) CreateAuction(ctx context.Context, a *domain.Auction) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO auctions (`+auctionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		a.ID,
		a.SellerID,
		nullableID(a.CategoryID),
		a.Title,
		a.Description,
		a.StartingPrice,
		a.ReservePrice,
		a.BuyNowPrice,
		a.BidIncrement,
		a.CurrentBidPrice,
		a.CurrentBidderID,
		a.Status,
		a.WinnerID,
		a.StartTime,
		a.EndTime,
		a.EndingSoonNotifiedAt,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres store: create auction %s: %w", a.ID, mapError(err))
	}
	return nil
}

func (s *Store) GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	return scanAuction(row)
}

func (s *Store) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM auctions WHERE id = $1)`, auctionID).Scan(&exists); err != nil {
		return nil, mapError(err)
	}
	if !exists {
		return nil, domain.ErrAuctionNotFound
	}
	rows, err := s.pool.Query(ctx, `SELECT `+bidColumns+` FROM bids WHERE auction_id = $1 ORDER BY seq`, auctionID)
	if err != nil {
		return nil, mapError(err)
	}
	return collectBids(rows)
}

func (s *Store) GetSettlement(ctx context.Context, auctionID uuid.UUID) (*domain.Settlement, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE auction_id = $1`, auctionID)
	return scanSettlement(row)
}

func (s *Store) ListDueForClose(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return s.listIDs(ctx, `
        SELECT id FROM auctions
        WHERE status = 'ended'
           OR (status IN ('active', 'scheduled') AND end_time <= $1)
        ORDER BY end_time
        LIMIT $2`, now, limit)
}

func (s *Store) ListDueForStart(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return s.listIDs(ctx, `
        SELECT id FROM auctions
        WHERE status = 'scheduled' AND start_time <= $1 AND end_time > $1
        ORDER BY end_time
        LIMIT $2`, now, limit)
}

func (s *Store) ListEndingSoon(ctx context.Context, now time.Time, window time.Duration, limit int) ([]uuid.UUID, error) {
	return s.listIDs(ctx, `
        SELECT id FROM auctions
        WHERE status = 'active'
          AND ending_soon_notified_at IS NULL
          AND end_time > $1 AND end_time <= $3
        ORDER BY end_time
        LIMIT $2`, now, limit, now.Add(window))
}

func (s *Store) listIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	a := &domain.Auction{}
	var categoryID *uuid.UUID
	err := row.Scan(
		&a.ID,
		&a.SellerID,
		&categoryID,
		&a.Title,
		&a.Description,
		&a.StartingPrice,
		&a.ReservePrice,
		&a.BuyNowPrice,
		&a.BidIncrement,
		&a.CurrentBidPrice,
		&a.CurrentBidderID,
		&a.Status,
		&a.WinnerID,
		&a.StartTime,
		&a.EndTime,
		&a.EndingSoonNotifiedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, mapError(err)
	}
	if categoryID != nil {
		a.CategoryID = *categoryID
	}
	normalizeTimes(&a.StartTime, &a.EndTime, &a.CreatedAt, &a.UpdatedAt)
	if a.EndingSoonNotifiedAt != nil {
		normalizeTimes(a.EndingSoonNotifiedAt)
	}
	return a, nil
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	b := &domain.Bid{}
	err := row.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.IsWinningBid, &b.CreatedAt, &b.OutbidAt)
	if err != nil {
		return nil, err
	}
	normalizeTimes(&b.CreatedAt)
	if b.OutbidAt != nil {
		normalizeTimes(b.OutbidAt)
	}
	return b, nil
}

func collectBids(rows pgx.Rows) ([]*domain.Bid, error) {
	defer rows.Close()
	bids := make([]*domain.Bid, 0)
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, mapError(err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bids, nil
}

// scanSettlement returns nil when there is no row
func scanSettlement(row pgx.Row) (*domain.Settlement, error) {
	st := &domain.Settlement{}
	err := row.Scan(
		&st.ID,
		&st.AuctionID,
		&st.SellerID,
		&st.Outcome,
		&st.WinnerID,
		&st.WinningBidID,
		&st.Amount,
		&st.AuctionEnded,
		&st.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}
	normalizeTimes(&st.AuctionEnded, &st.SettledAt)
	return st, nil
}

func normalizeTimes(ts ...*time.Time) {
	for _, t := range ts {
		*t = t.UTC()
	}
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// mapError turns lock contention into domain.ErrBusy
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40P01": // lock_not_available, deadlock_detected
			return fmt.Errorf("%w: %s", domain.ErrBusy, pgErr.Message)
		}
	}
	return err
}
