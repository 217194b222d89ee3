package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/websocket"
	"github.com/google/uuid"
)

// HubNotifier pushes domain events to the connected clients. Every event goes
// to the connections of its subject user, a placed bid is also broadcast to
// the whole auction room as a price update.
type HubNotifier struct {
	hub *websocket.Hub
}

func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Notify(_ context.Context, userID uuid.UUID, eventType domain.EventType, payload domain.Event) error {
	data, err := json.Marshal(ServerNotificationMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerNotification},
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("hub notifier: marshal event %s: %w", payload.ID, err)
	}
	n.hub.SendToUser(payload.AuctionID, userID, data)

	if eventType != domain.EventBidPlaced {
		return nil
	}
	update := ServerAuctionUpdateMessage{BaseMessage: BaseMessage{Type: MessageTypeServerAuctionUpdate}}
	update.Payload.AuctionID = payload.AuctionID
	update.Payload.CurrentBidderID = payload.SubjectUserID
	if amount, ok := payload.Metadata["amount"].(string); ok {
		update.Payload.CurrentBidPrice = amount
	}
	data, err = json.Marshal(update)
	if err != nil {
		return fmt.Errorf("hub notifier: marshal update %s: %w", payload.ID, err)
	}
	n.hub.BroadcastToAuction(payload.AuctionID, data)
	return nil
}
