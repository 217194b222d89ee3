package websocket

import (
	"context"
	"encoding/json"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/shared/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const reasonBadMessage = "BAD_MESSAGE"

// AuctionWSHandler serves the auction rooms. Inbound frames reach it through
// the shared hub, outbound events through HubNotifier.
type AuctionWSHandler struct {
	auctionService application.AuctionService
	hub            *websocket.Hub
	validate       *validator.Validate
	log            *zap.Logger
	// ctx is the server lifetime, connections end when it is cancelled
	ctx context.Context
}

// NewAuctionWSHandler creates a new instance of AuctionWSHandler
func NewAuctionWSHandler(ctx context.Context, auctionService application.AuctionService, hub *websocket.Hub, log *zap.Logger) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
		validate:       validator.New(),
		log:            log,
		ctx:            ctx,
	}
}

// RegisterRoutes mounts GET /ws/auctions/:id, user_id is read from the query
func (h *AuctionWSHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/auctions/:id", h.upgrade, fiberws.New(h.serve))
}

// upgrade validates the path and query before switching protocols
func (h *AuctionWSHandler) upgrade(c *fiber.Ctx) error {
	if !fiberws.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid auction id")
	}
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
	}
	state, err := h.auctionService.GetAuctionState(c.UserContext(), auctionID)
	if err != nil {
		return err
	}
	c.Locals("auctionID", auctionID)
	c.Locals("userID", userID)
	c.Locals("state", state)
	return c.Next()
}

func (h *AuctionWSHandler) serve(conn *fiberws.Conn) {
	auctionID := conn.Locals("auctionID").(uuid.UUID)
	userID := conn.Locals("userID").(uuid.UUID)
	state := conn.Locals("state").(*application.AuctionStateDTO)

	client := h.hub.NewClient(conn, auctionID, userID)
	data, err := json.Marshal(ServerInitialStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
		Payload:     state,
	})
	if err != nil {
		h.log.Error("failed to marshal ws message", zap.Error(err))
		return
	}
	// the hub does not know the client yet, so the queue is ours and empty.
	// Queued first, the state frame precedes any broadcast.
	client.Send <- data
	if !h.hub.RegisterClient(client) {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		client.WritePump(h.ctx)
		close(writerDone)
	}()
	client.ReadPump(h.ctx)
	<-writerDone
}

// ListenForMessages consumes the hub inbound channel until ctx is done
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	h.log.Info("AuctionWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			h.log.Info("AuctionWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

// processMessage dispatches the message by its type
func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendError(client, reasonBadMessage, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBid(ctx, client, data)
	default:
		h.sendError(client, reasonBadMessage, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleClientBid(ctx context.Context, client *websocket.Client, data []byte) {
	var msg ClientBidMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, reasonBadMessage, "invalid bid message format")
		return
	}
	if err := h.validate.Struct(msg.Payload); err != nil {
		h.sendError(client, domain.ReasonInvalidAmount, "amount must be a decimal number")
		return
	}
	amount, err := decimal.NewFromString(msg.Payload.Amount)
	if err != nil {
		h.sendError(client, domain.ReasonInvalidAmount, "amount must be a decimal number")
		return
	}

	res, err := h.auctionService.PlaceBid(ctx, application.PlaceBidDTO{
		AuctionID: client.AuctionID,
		BidderID:  client.UserID,
		Amount:    amount,
	})
	if err != nil {
		h.enqueue(client, ServerErrorMessage{
			BaseMessage: BaseMessage{Type: MessageTypeServerError},
			Payload:     application.NewErrorDTO(err),
		})
		return
	}

	reply := ServerBidAcceptedMessage{BaseMessage: BaseMessage{Type: MessageTypeServerBidAccepted}}
	reply.Payload.Bid = application.NewBidDTO(res.Bid)
	reply.Payload.Auction = application.NewAuctionStateDTO(res.Auction)
	reply.Payload.Auction.Settlement = application.NewSettlementDTO(res.Settlement)
	reply.Payload.BuyNow = res.BuyNow
	h.enqueue(client, reply)
}

// sendError reports a malformed frame to the client
func (h *AuctionWSHandler) sendError(client *websocket.Client, reason, message string) {
	h.enqueue(client, ServerErrorMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerError},
		Payload:     application.ErrorDTO{Error: message, Reason: reason},
	})
}

// enqueue hands the reply to the hub, which owns the client queue
func (h *AuctionWSHandler) enqueue(client *websocket.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal ws message", zap.Error(err))
		return
	}
	h.hub.SendToClient(client, data)
}
