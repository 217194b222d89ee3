package application

import (
	"context"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionStateDTO is the output DTO exposing auction state to HTTP and WS clients
type AuctionStateDTO struct {
	AuctionID       uuid.UUID      `json:"auction_id"`
	SellerID        uuid.UUID      `json:"seller_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Status          string         `json:"status"`
	StartingPrice   string         `json:"starting_price"`
	BidIncrement    string         `json:"bid_increment"`
	ReserveMet      *bool          `json:"reserve_met,omitempty"`
	BuyNowPrice     *string        `json:"buy_now_price,omitempty"`
	CurrentBidPrice *string        `json:"current_bid_price,omitempty"`
	CurrentBidderID *uuid.UUID     `json:"current_bidder_id,omitempty"`
	MinimumBid      string         `json:"minimum_bid"`
	WinnerID        *uuid.UUID     `json:"winner_id,omitempty"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	Settlement      *SettlementDTO `json:"settlement,omitempty"`
}

// SettlementDTO is the public view of a settlement record
type SettlementDTO struct {
	ID        uuid.UUID  `json:"id"`
	Outcome   string     `json:"outcome"`
	WinnerID  *uuid.UUID `json:"winner_id,omitempty"`
	Amount    *string    `json:"amount,omitempty"`
	SettledAt time.Time  `json:"settled_at"`
}

// BidDTO is the public view of a bid
type BidDTO struct {
	ID           uuid.UUID  `json:"id"`
	BidderID     uuid.UUID  `json:"bidder_id"`
	Amount       string     `json:"amount"`
	IsWinningBid bool       `json:"is_winning_bid"`
	CreatedAt    time.Time  `json:"created_at"`
	OutbidAt     *time.Time `json:"outbid_at,omitempty"`
}

// GetAuctionStateUseCase retrieves the current state of an auction
type GetAuctionStateUseCase struct {
	store domain.AuctionStore
}

func NewGetAuctionStateUseCase(store domain.AuctionStore) *GetAuctionStateUseCase {
	return &GetAuctionStateUseCase{store: store}
}

func (uc *GetAuctionStateUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	a, err := uc.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	dto := NewAuctionStateDTO(a)

	if a.Status == domain.StatusSettled {
		st, err := uc.store.GetSettlement(ctx, auctionID)
		if err != nil {
			return nil, err
		}
		dto.Settlement = NewSettlementDTO(st)
	}
	return dto, nil
}

// ListBids returns the full bid history in placement order
func (uc *GetAuctionStateUseCase) ListBids(ctx context.Context, auctionID uuid.UUID) ([]BidDTO, error) {
	bids, err := uc.store.ListBids(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	out := make([]BidDTO, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidDTO(b))
	}
	return out, nil
}

func NewAuctionStateDTO(a *domain.Auction) *AuctionStateDTO {
	dto := &AuctionStateDTO{
		AuctionID:       a.ID,
		SellerID:        a.SellerID,
		Title:           a.Title,
		Description:     a.Description,
		Status:          string(a.Status),
		StartingPrice:   a.StartingPrice.String(),
		BidIncrement:    a.BidIncrement.String(),
		CurrentBidderID: a.CurrentBidderID,
		MinimumBid:      a.MinimumBid().String(),
		WinnerID:        a.WinnerID,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
	}
	if a.BuyNowPrice.Valid {
		s := a.BuyNowPrice.Decimal.String()
		dto.BuyNowPrice = &s
	}
	if a.CurrentBidPrice.Valid {
		s := a.CurrentBidPrice.Decimal.String()
		dto.CurrentBidPrice = &s
	}
	// the reserve amount stays private, only whether it is met is exposed
	if a.ReservePrice.Valid {
		met := a.CurrentBidPrice.Valid && a.ReserveMet(a.CurrentBidPrice.Decimal)
		dto.ReserveMet = &met
	}
	return dto
}

func NewSettlementDTO(st *domain.Settlement) *SettlementDTO {
	if st == nil {
		return nil
	}
	dto := &SettlementDTO{
		ID:        st.ID,
		Outcome:   string(st.Outcome),
		WinnerID:  st.WinnerID,
		SettledAt: st.SettledAt,
	}
	if st.Amount.Valid {
		s := st.Amount.Decimal.String()
		dto.Amount = &s
	}
	return dto
}

func NewBidDTO(b *domain.Bid) BidDTO {
	return BidDTO{
		ID:           b.ID,
		BidderID:     b.BidderID,
		Amount:       b.Amount.String(),
		IsWinningBid: b.IsWinningBid,
		CreatedAt:    b.CreatedAt,
		OutbidAt:     b.OutbidAt,
	}
}
