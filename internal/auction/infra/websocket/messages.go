package websocket

import (
	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
)

// MessageType defines ws type message
type MessageType string

const (
	MessageTypeClientBid           MessageType = "client_bid"            // client msg to place a bid
	MessageTypeServerInitialState  MessageType = "server_initial_state"  // auction state sent on connect
	MessageTypeServerBidAccepted   MessageType = "server_bid_accepted"   // reply to the bidder
	MessageTypeServerAuctionUpdate MessageType = "server_auction_update" // new price, sent to the room
	MessageTypeServerNotification  MessageType = "server_notification"   // domain event addressed to the user
	MessageTypeServerError         MessageType = "server_error"
)

// BaseMessage is base struct for all the WS messages, includes a Type field for identify the message type
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is sent by a bidder, the auction and bidder come from the connection
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		Amount string `json:"amount" validate:"required,numeric"`
	} `json:"payload"`
}

type ServerInitialStateMessage struct {
	BaseMessage
	Payload *application.AuctionStateDTO `json:"payload"`
}

type ServerBidAcceptedMessage struct {
	BaseMessage
	Payload struct {
		Bid     application.BidDTO           `json:"bid"`
		Auction *application.AuctionStateDTO `json:"auction"`
		BuyNow  bool                         `json:"buy_now"`
	} `json:"payload"`
}

type ServerAuctionUpdateMessage struct {
	BaseMessage
	Payload struct {
		AuctionID       uuid.UUID `json:"auction_id"`
		CurrentBidPrice string    `json:"current_bid_price"`
		CurrentBidderID uuid.UUID `json:"current_bidder_id"`
	} `json:"payload"`
}

type ServerNotificationMessage struct {
	BaseMessage
	Payload domain.Event `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload application.ErrorDTO `json:"payload"`
}
