package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WinnerResult is the outcome of a winner determination. AlreadySettled is
// true when the call found a settled auction and emitted nothing.
type WinnerResult struct {
	WinnerID       *uuid.UUID
	Settlement     *domain.Settlement
	AlreadySettled bool
	Events         domain.Events
}

// DetermineWinnerUseCase finalizes an ended auction exactly once
type DetermineWinnerUseCase struct {
	store     domain.AuctionStore
	publisher domain.EventPublisher
	clock     domain.Clock
	log       *zap.Logger
}

func NewDetermineWinnerUseCase(store domain.AuctionStore, publisher domain.EventPublisher, clock domain.Clock, log *zap.Logger) *DetermineWinnerUseCase {
	return &DetermineWinnerUseCase{
		store:     store,
		publisher: publisher,
		clock:     clock,
		log:       log,
	}
}

// Execute settles the auction. An active auction past its end time is ended in
// the same transaction, an auction still open fails with ErrAuctionNotEnded.
func (uc *DetermineWinnerUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*WinnerResult, error) {
	now := uc.clock.Now()
	var res WinnerResult

	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		a, err := tx.LockAuction(ctx, auctionID)
		if err != nil {
			return err
		}

		switch a.Status {
		case domain.StatusSettled:
			st, err := tx.GetSettlement(ctx, a.ID)
			if err != nil {
				return fmt.Errorf("get settlement: %w", err)
			}
			res.AlreadySettled = true
			res.Settlement = st
			res.WinnerID = a.WinnerID
			return nil
		case domain.StatusActive, domain.StatusScheduled:
			if !a.IsExpiredAt(now) {
				return domain.ErrAuctionNotEnded
			}
			if err := a.End(now); err != nil {
				return err
			}
		}

		winning, err := tx.GetWinningBid(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("get winning bid: %w", err)
		}

		var st *domain.Settlement
		switch {
		case winning == nil:
			st = domain.NewNoWinnerSettlement(a, domain.OutcomeNoBids, nil, now)
			res.Events.Add(a.ID, a.SellerID, domain.EventAuctionEndedNoBids, now, map[string]any{
				"title": a.Title,
			})
		case !a.ReserveMet(winning.Amount):
			// the highest bidder is not promoted and no lower bid is considered
			st = domain.NewNoWinnerSettlement(a, domain.OutcomeReserveNotMet, winning, now)
			res.Events.Add(a.ID, a.SellerID, domain.EventReserveNotMet, now, map[string]any{
				"title":         a.Title,
				"highest_bid":   winning.Amount.String(),
				"reserve_price": a.ReservePrice.Decimal.String(),
			})
		default:
			st = domain.NewWinnerSettlement(a, winning, now)
			if err := uc.winnerEvents(ctx, tx, a, winning, &res.Events, now); err != nil {
				return err
			}
		}

		if err := a.Settle(st.WinnerID, now); err != nil {
			return err
		}
		if err := tx.InsertSettlement(ctx, st); err != nil {
			return fmt.Errorf("insert settlement: %w", err)
		}
		if err := tx.UpdateAuction(ctx, a); err != nil {
			return fmt.Errorf("update auction: %w", err)
		}
		res.Settlement = st
		res.WinnerID = st.WinnerID
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAuctionNotEnded) && !errors.Is(err, domain.ErrAuctionNotFound) {
			uc.log.Error("DetermineWinnerUseCase: transaction failed",
				zap.String("auctionID", auctionID.String()),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("determine winner use case: auction %s: %w", auctionID, err)
	}

	if res.AlreadySettled {
		uc.log.Debug("Auction already settled", zap.String("auctionID", auctionID.String()))
		return &res, nil
	}

	uc.publisher.Publish(res.Events)
	uc.log.Info("Auction settled",
		zap.String("auctionID", auctionID.String()),
		zap.String("outcome", string(res.Settlement.Outcome)),
		zap.Stringer("amount", res.Settlement.Amount.Decimal),
	)
	return &res, nil
}

// winnerEvents queues, in order, the winner, the seller and one loser event
// per distinct other bidder.
func (uc *DetermineWinnerUseCase) winnerEvents(ctx context.Context, tx domain.AuctionTx, a *domain.Auction, winning *domain.Bid, events *domain.Events, now time.Time) error {
	amount := winning.Amount.String()
	events.Add(a.ID, winning.BidderID, domain.EventAuctionWon, now, map[string]any{
		"title":  a.Title,
		"amount": amount,
	})
	events.Add(a.ID, a.SellerID, domain.EventSellerAuctionEnded, now, map[string]any{
		"title":     a.Title,
		"amount":    amount,
		"winner_id": winning.BidderID.String(),
	})

	bidders, err := tx.ListBidderIDs(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("list bidders: %w", err)
	}
	for _, bidderID := range bidders {
		if bidderID == winning.BidderID {
			continue
		}
		events.Add(a.ID, bidderID, domain.EventAuctionLost, now, map[string]any{
			"title":         a.Title,
			"winning_price": amount,
		})
	}
	return nil
}
