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

const (
	DefaultEndingSoonWindow = time.Hour
	DefaultSweepBatchSize   = 100
)

// SweepReport summarizes one sweep run
type SweepReport struct {
	Activated int
	Settled   int
	Skipped   int
	Notified  int
	Failed    int
}

// SweepUseCase runs the time driven transitions. Every auction is handled in
// its own transaction, so overlapping runs only skip work already done.
type SweepUseCase struct {
	store            domain.AuctionStore
	publisher        domain.EventPublisher
	clock            domain.Clock
	winner           *DetermineWinnerUseCase
	log              *zap.Logger
	endingSoonWindow time.Duration
	batchSize        int
}

func NewSweepUseCase(store domain.AuctionStore,
	publisher domain.EventPublisher,
	clock domain.Clock,
	winner *DetermineWinnerUseCase,
	log *zap.Logger,
	endingSoonWindow time.Duration,
	batchSize int) *SweepUseCase {

	if endingSoonWindow <= 0 {
		endingSoonWindow = DefaultEndingSoonWindow
	}
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &SweepUseCase{
		store:            store,
		publisher:        publisher,
		clock:            clock,
		winner:           winner,
		log:              log,
		endingSoonWindow: endingSoonWindow,
		batchSize:        batchSize,
	}
}

// SweepEnded activates scheduled auctions whose window opened, then ends and
// settles every auction past its end time.
func (uc *SweepUseCase) SweepEnded(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	now := uc.clock.Now()

	starting, err := uc.store.ListDueForStart(ctx, now, uc.batchSize)
	if err != nil {
		return report, fmt.Errorf("sweep ended: list due for start: %w", err)
	}
	for _, id := range starting {
		activated, err := uc.activate(ctx, id, now)
		switch {
		case err != nil:
			report.Failed++
			uc.log.Warn("Sweep: activation failed", zap.String("auctionID", id.String()), zap.Error(err))
		case activated:
			report.Activated++
		default:
			report.Skipped++
		}
	}

	due, err := uc.store.ListDueForClose(ctx, now, uc.batchSize)
	if err != nil {
		return report, fmt.Errorf("sweep ended: list due for close: %w", err)
	}
	for _, id := range due {
		settled, err := uc.Close(ctx, id)
		switch {
		case err != nil:
			report.Failed++
			uc.log.Warn("Sweep: close failed", zap.String("auctionID", id.String()), zap.Error(err))
		case settled:
			report.Settled++
		default:
			report.Skipped++
		}
	}

	if report.Activated+report.Settled+report.Failed > 0 {
		uc.log.Info("SweepEnded finished",
			zap.Int("activated", report.Activated),
			zap.Int("settled", report.Settled),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (uc *SweepUseCase) activate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	activated := false
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		a, err := tx.LockAuction(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != domain.StatusScheduled || !a.IsOpenAt(now) {
			return nil
		}
		if err := a.Activate(now); err != nil {
			return err
		}
		activated = true
		return tx.UpdateAuction(ctx, a)
	})
	return activated, err
}

// Close moves an expired auction to ended in its own transaction and then
// runs the winner determination. It reports false when the auction was
// already settled or is not due. An auction left ended by a failed
// determination is picked up again by the next sweep.
func (uc *SweepUseCase) Close(ctx context.Context, id uuid.UUID) (bool, error) {
	now := uc.clock.Now()
	due := false
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
		a, err := tx.LockAuction(ctx, id)
		if err != nil {
			return err
		}
		switch a.Status {
		case domain.StatusEnded:
			due = true
			return nil
		case domain.StatusActive, domain.StatusScheduled:
			if !a.IsExpiredAt(now) {
				return nil
			}
		default:
			return nil
		}
		if err := a.End(now); err != nil {
			return err
		}
		due = true
		return tx.UpdateAuction(ctx, a)
	})
	if err != nil || !due {
		return false, err
	}

	res, err := uc.winner.Execute(ctx, id)
	if err != nil {
		return false, err
	}
	return !res.AlreadySettled, nil
}

// SweepEndingSoon emits the ending-soon round for auctions closing inside the
// lookahead window. The marker is written in the same transaction that
// queues the events, so an auction is notified at most once.
func (uc *SweepUseCase) SweepEndingSoon(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	now := uc.clock.Now()

	ids, err := uc.store.ListEndingSoon(ctx, now, uc.endingSoonWindow, uc.batchSize)
	if err != nil {
		return report, fmt.Errorf("sweep ending soon: list: %w", err)
	}

	for _, id := range ids {
		var events domain.Events
		err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.AuctionTx) error {
			a, err := tx.LockAuction(ctx, id)
			if err != nil {
				return err
			}
			if a.Status != domain.StatusActive || a.EndingSoonNotifiedAt != nil ||
				!a.EndTime.After(now) || a.EndTime.After(now.Add(uc.endingSoonWindow)) {
				return nil
			}

			bidders, err := tx.ListBidderIDs(ctx, a.ID)
			if err != nil {
				return fmt.Errorf("list bidders: %w", err)
			}
			meta := map[string]any{
				"title":    a.Title,
				"end_time": a.EndTime,
			}
			if a.CurrentBidPrice.Valid {
				meta["current_bid"] = a.CurrentBidPrice.Decimal.String()
			}
			events.Add(a.ID, a.SellerID, domain.EventEndingSoon, now, meta)
			for _, bidderID := range bidders {
				events.Add(a.ID, bidderID, domain.EventEndingSoon, now, meta)
			}

			a.MarkEndingSoonNotified(now)
			return tx.UpdateAuction(ctx, a)
		})
		switch {
		case err != nil:
			report.Failed++
			if !errors.Is(err, domain.ErrBusy) {
				uc.log.Warn("Sweep: ending soon failed", zap.String("auctionID", id.String()), zap.Error(err))
			}
		case len(events) == 0:
			report.Skipped++
		default:
			report.Notified++
			uc.publisher.Publish(events)
		}
	}
	return report, nil
}
