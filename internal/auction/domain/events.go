package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event emitted by the auction service
type EventType string

const (
	EventBidPlaced          EventType = "bid_placed"
	EventOutbid             EventType = "outbid"
	EventAuctionEndedNoBids EventType = "auction_ended_no_bids"
	EventReserveNotMet      EventType = "reserve_not_met"
	EventAuctionWon         EventType = "auction_won"
	EventAuctionLost        EventType = "auction_lost"
	EventSellerAuctionEnded EventType = "seller_auction_ended"
	EventEndingSoon         EventType = "ending_soon"
)

// Event is a notification addressed to a single user about one auction.
type Event struct {
	ID            uuid.UUID      `json:"id"`
	AuctionID     uuid.UUID      `json:"auction_id"`
	SubjectUserID uuid.UUID      `json:"subject_user_id"`
	Type          EventType      `json:"type"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// NewEvent builds an event with a fresh id
func NewEvent(auctionID, subject uuid.UUID, typ EventType, now time.Time, metadata map[string]any) Event {
	return Event{
		ID:            uuid.New(),
		AuctionID:     auctionID,
		SubjectUserID: subject,
		Type:          typ,
		Metadata:      metadata,
		OccurredAt:    now,
	}
}

// Events is an ordered list of events produced by one operation
type Events []Event

// Add appends an event and returns the list, handy for building in order
func (e *Events) Add(auctionID, subject uuid.UUID, typ EventType, now time.Time, metadata map[string]any) {
	*e = append(*e, NewEvent(auctionID, subject, typ, now, metadata))
}

// Types returns the event types in emission order
func (e Events) Types() []EventType {
	out := make([]EventType, 0, len(e))
	for _, ev := range e {
		out = append(out, ev.Type)
	}
	return out
}
