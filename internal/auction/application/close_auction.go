package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CloseAuctionUseCase lets the seller end an active auction before its end time
type CloseAuctionUseCase struct {
	store  domain.AuctionStore
	clock  domain.Clock
	winner *DetermineWinnerUseCase
	log    *zap.Logger
}

func NewCloseAuctionUseCase(store domain.AuctionStore, clock domain.Clock, winner *DetermineWinnerUseCase, log *zap.Logger) *CloseAuctionUseCase {
	return &CloseAuctionUseCase{store: store, clock: clock, winner: winner, log: log}
}

// Execute ends the auction and settles it. Closing an ended or settled
// auction returns its settlement.
func (uc *CloseAuctionUseCase) Execute(ctx context.Context, auctionID, sellerID uuid.UUID) (*WinnerResult, error) {
	now := uc.clock.Now()
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		a, err := tx.LockAuction(ctx, auctionID)
		if err != nil {
			return err
		}
		if a.SellerID != sellerID {
			return domain.ErrNotSeller
		}
		switch a.Status {
		case domain.StatusEnded, domain.StatusSettled:
			return nil
		case domain.StatusScheduled:
			return domain.ErrAuctionNotActive
		}
		if err := a.End(now); err != nil {
			return err
		}
		return tx.UpdateAuction(ctx, a)
	})
	if err != nil {
		return nil, fmt.Errorf("close auction use case: auction %s: %w", auctionID, err)
	}

	uc.log.Info("Auction closed by seller",
		zap.String("auctionID", auctionID.String()),
		zap.String("sellerID", sellerID.String()),
	)
	return uc.winner.Execute(ctx, auctionID)
}
