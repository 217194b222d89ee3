package application

import (
	"context"
	"sync"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const expiredCloseTimeout = 30 * time.Second

//go:generate mockgen -source=service.go -destination=mock_service.go -package=application

// AuctionService defines application interface layer of auction module
// exposes uses cases to external layer, aka infra
type AuctionService interface {
	// PlaceBid accepts a bid or returns a validation, Busy or NotFound error
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error)
	// DetermineWinner settles an ended auction, calling it again returns the
	// stored settlement without emitting events
	DetermineWinner(ctx context.Context, auctionID uuid.UUID) (*WinnerResult, error)
	CloseAuction(ctx context.Context, auctionID, sellerID uuid.UUID) (*WinnerResult, error)
	SweepEnded(ctx context.Context) (SweepReport, error)
	SweepEndingSoon(ctx context.Context) (SweepReport, error)
	GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error)
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]BidDTO, error)
}

var _ AuctionService = (*Service)(nil)

// Options tunes the service, zero values fall back to defaults
type Options struct {
	EndingSoonWindow time.Duration
	SweepBatchSize   int
}

// Service is the concrete implementation of AuctionService
type Service struct {
	placeBidUC        *PlaceBidUseCase
	determineWinnerUC *DetermineWinnerUseCase
	closeAuctionUC    *CloseAuctionUseCase
	sweepUC           *SweepUseCase
	getStateUC        *GetAuctionStateUseCase
	log               *zap.Logger
	background        sync.WaitGroup
	closing           sync.Map // auctionID -> struct{}, lazy closes in flight
}

// NewAuctionService wires every use case over the same store, publisher and clock
func NewAuctionService(store domain.AuctionStore, publisher domain.EventPublisher, clock domain.Clock, log *zap.Logger, opts Options) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if publisher == nil {
		publisher = domain.DiscardPublisher{}
	}
	winner := NewDetermineWinnerUseCase(store, publisher, clock, log)
	s := &Service{
		placeBidUC:        NewPlaceBidUseCase(store, publisher, clock, winner, log),
		determineWinnerUC: winner,
		closeAuctionUC:    NewCloseAuctionUseCase(store, clock, winner, log),
		sweepUC:           NewSweepUseCase(store, publisher, clock, winner, log, opts.EndingSoonWindow, opts.SweepBatchSize),
		getStateUC:        NewGetAuctionStateUseCase(store),
		log:               log,
	}
	s.placeBidUC.onExpired = s.closeInBackground
	return s
}

// PlaceBid implements AuctionService.
func (s *Service) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error) {
	return s.placeBidUC.Execute(ctx, cmd)
}

func (s *Service) DetermineWinner(ctx context.Context, auctionID uuid.UUID) (*WinnerResult, error) {
	return s.determineWinnerUC.Execute(ctx, auctionID)
}

func (s *Service) CloseAuction(ctx context.Context, auctionID, sellerID uuid.UUID) (*WinnerResult, error) {
	return s.closeAuctionUC.Execute(ctx, auctionID, sellerID)
}

func (s *Service) SweepEnded(ctx context.Context) (SweepReport, error) {
	return s.sweepUC.SweepEnded(ctx)
}

func (s *Service) SweepEndingSoon(ctx context.Context) (SweepReport, error) {
	return s.sweepUC.SweepEndingSoon(ctx)
}

func (s *Service) GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return s.getStateUC.Execute(ctx, auctionID)
}

func (s *Service) ListBids(ctx context.Context, auctionID uuid.UUID) ([]BidDTO, error) {
	return s.getStateUC.ListBids(ctx, auctionID)
}

// Wait blocks until background closes triggered by late bids are done
func (s *Service) Wait() {
	s.background.Wait()
}

// closeInBackground settles an auction a bid found expired, without waiting
// for the next sweep. Concurrent triggers for one auction collapse into one.
func (s *Service) closeInBackground(auctionID uuid.UUID) {
	if _, running := s.closing.LoadOrStore(auctionID, struct{}{}); running {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer s.closing.Delete(auctionID)

		ctx, cancel := context.WithTimeout(context.Background(), expiredCloseTimeout)
		defer cancel()
		if _, err := s.sweepUC.Close(ctx, auctionID); err != nil {
			s.log.Warn("Lazy close of expired auction failed, the sweep will retry",
				zap.String("auctionID", auctionID.String()),
				zap.Error(err),
			)
		}
	}()
}
