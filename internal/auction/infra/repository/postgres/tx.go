package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// pgTx implements domain.AuctionTx over a pgx transaction
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1 FOR UPDATE`, id)
	return scanAuction(row)
}

func (t *pgTx) UpdateAuction(ctx context.Context, a *domain.Auction) error {
	tag, err := t.tx.Exec(ctx, `
        UPDATE auctions
        SET current_bid_price = $2,
            current_bidder_id = $3,
            status = $4,
            winner_id = $5,
            ending_soon_notified_at = $6,
            updated_at = $7
        WHERE id = $1`,
		a.ID,
		a.CurrentBidPrice,
		a.CurrentBidderID,
		a.Status,
		a.WinnerID,
		a.EndingSoonNotifiedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update auction %s: %w", a.ID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

func (t *pgTx) GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE auction_id = $1 AND is_winning_bid`, auctionID)
	b, err := scanBid(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}
	return b, nil
}

// InsertBid only inserts the row, flipping the previous winner is done by MarkOutbid
func (t *pgTx) InsertBid(ctx context.Context, b *domain.Bid) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO bids (id, auction_id, bidder_id, amount, is_winning_bid, created_at, outbid_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID,
		b.AuctionID,
		b.BidderID,
		b.Amount,
		b.IsWinningBid,
		b.CreatedAt,
		b.OutbidAt,
	)
	if err != nil {
		return fmt.Errorf("insert bid %s: %w", b.ID, mapError(err))
	}
	return nil
}

func (t *pgTx) MarkOutbid(ctx context.Context, bidID uuid.UUID, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE bids SET is_winning_bid = FALSE, outbid_at = $2 WHERE id = $1`, bidID, at)
	if err != nil {
		return fmt.Errorf("mark bid %s outbid: %w", bidID, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark bid %s outbid: bid not found", bidID)
	}
	return nil
}

func (t *pgTx) ListBidderIDs(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := t.tx.Query(ctx, `
        SELECT bidder_id FROM bids
        WHERE auction_id = $1
        GROUP BY bidder_id
        ORDER BY MIN(seq)`, auctionID)
	if err != nil {
		return nil, mapError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

func (t *pgTx) InsertSettlement(ctx context.Context, st *domain.Settlement) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO settlements (`+settlementColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		st.ID,
		st.AuctionID,
		st.SellerID,
		st.Outcome,
		st.WinnerID,
		st.WinningBidID,
		st.Amount,
		st.AuctionEnded,
		st.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement for auction %s: %w", st.AuctionID, mapError(err))
	}
	return nil
}

func (t *pgTx) GetSettlement(ctx context.Context, auctionID uuid.UUID) (*domain.Settlement, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE auction_id = $1`, auctionID)
	return scanSettlement(row)
}
