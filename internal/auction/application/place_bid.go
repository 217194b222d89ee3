package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceBidDTO is the input of the PlaceBid use case. BidderID is trusted as
// supplied by the authentication layer.
type PlaceBidDTO struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
}

// PlaceBidResult is returned for an accepted bid. Settlement is set when the
// bid exercised buy-now and the winner determination already completed.
type PlaceBidResult struct {
	Auction    *domain.Auction
	Bid        *domain.Bid
	BuyNow     bool
	Settlement *domain.Settlement
	Events     domain.Events
}

// PlaceBidUseCase accepts a bid under the auction row lock
type PlaceBidUseCase struct {
	store     domain.AuctionStore
	publisher domain.EventPublisher
	clock     domain.Clock
	winner    *DetermineWinnerUseCase
	log       *zap.Logger
	// onExpired is called when a bid finds an active auction past its end
	onExpired func(auctionID uuid.UUID)
}

// NewPlaceBidUseCase creates a new instance of PlaceBidUseCase, dependencies are injected
func NewPlaceBidUseCase(store domain.AuctionStore,
	publisher domain.EventPublisher,
	clock domain.Clock,
	winner *DetermineWinnerUseCase,
	log *zap.Logger) *PlaceBidUseCase {

	return &PlaceBidUseCase{
		store:     store,
		publisher: publisher,
		clock:     clock,
		winner:    winner,
		log:       log,
		onExpired: func(uuid.UUID) {},
	}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error) {
	fields := []zap.Field{
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.String("amount", cmd.Amount.String()),
	}
	uc.log.Debug("Executing PlaceBidUseCase", fields...)

	now := uc.clock.Now()
	var (
		res     PlaceBidResult
		outbid  domain.Events
		expired bool
	)
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		a, err := tx.LockAuction(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}

		if a.Status == domain.StatusScheduled && a.IsOpenAt(now) {
			if err := a.Activate(now); err != nil {
				return err
			}
		}
		if err := domain.ValidateBid(a, cmd.BidderID, cmd.Amount, now); err != nil {
			expired = a.Status == domain.StatusActive && a.IsExpiredAt(now)
			return err
		}

		prev, err := tx.GetWinningBid(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("get winning bid: %w", err)
		}
		if prev != nil {
			if err := tx.MarkOutbid(ctx, prev.ID, now); err != nil {
				return fmt.Errorf("mark outbid: %w", err)
			}
			if prev.BidderID != cmd.BidderID {
				outbid.Add(a.ID, prev.BidderID, domain.EventOutbid, now, map[string]any{
					"previous_amount": prev.Amount.String(),
					"new_amount":      cmd.Amount.String(),
					"minimum_bid":     cmd.Amount.Add(a.BidIncrement).String(),
				})
			}
		}

		bid := domain.NewBid(a.ID, cmd.BidderID, cmd.Amount, now)
		if err := tx.InsertBid(ctx, bid); err != nil {
			return fmt.Errorf("insert bid: %w", err)
		}
		a.ApplyBid(cmd.BidderID, cmd.Amount, now)
		if a.TriggersBuyNow(cmd.Amount) {
			if err := a.End(now); err != nil {
				return err
			}
			res.BuyNow = true
		}
		if err := tx.UpdateAuction(ctx, a); err != nil {
			return fmt.Errorf("update auction: %w", err)
		}

		res.Auction = a
		res.Bid = bid
		return nil
	})
	if err != nil {
		return nil, uc.rejected(err, expired, cmd, fields)
	}

	// the bid is durable from here on, nothing below can undo it
	res.Events = append(outbid, domain.NewEvent(cmd.AuctionID, cmd.BidderID, domain.EventBidPlaced, now, map[string]any{
		"bid_id": res.Bid.ID.String(),
		"amount": cmd.Amount.String(),
	}))
	uc.publisher.Publish(res.Events)

	uc.log.Info("Bid placed",
		append(fields, zap.String("bidID", res.Bid.ID.String()), zap.Bool("buyNow", res.BuyNow))...)

	if res.BuyNow {
		wr, err := uc.winner.Execute(ctx, cmd.AuctionID)
		if err != nil {
			// the sweep retries ended auctions
			uc.log.Error("PlaceBidUseCase: buy-now settlement failed", append(fields, zap.Error(err))...)
		} else {
			res.Settlement = wr.Settlement
			res.Auction.Status = domain.StatusSettled
			res.Auction.WinnerID = wr.WinnerID
		}
	}
	return &res, nil
}

func (uc *PlaceBidUseCase) rejected(err error, expired bool, cmd PlaceBidDTO, fields []zap.Field) error {
	switch {
	case domain.IsValidationError(err):
		uc.log.Info("Bid rejected", append(fields, zap.String("reason", domain.Reason(err)))...)
		if expired {
			uc.onExpired(cmd.AuctionID)
		}
	case errors.Is(err, domain.ErrAuctionNotFound), errors.Is(err, domain.ErrBusy):
		uc.log.Warn("Bid not processed", append(fields, zap.Error(err))...)
	default:
		uc.log.Error("PlaceBidUseCase: transaction failed", append(fields, zap.Error(err))...)
	}
	return fmt.Errorf("place bid use case: auction %s: %w", cmd.AuctionID, err)
}
