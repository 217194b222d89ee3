// Package rest exposes the auction service over HTTP with fiber.
package rest

import (
	"errors"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceBidRequest is the body of POST /auctions/:id/bids
type PlaceBidRequest struct {
	BidderID string `json:"bidder_id" validate:"required,uuid"`
	Amount   string `json:"amount"    validate:"required,numeric"`
}

// CloseAuctionRequest is the body of POST /auctions/:id/close
type CloseAuctionRequest struct {
	SellerID string `json:"seller_id" validate:"required,uuid"`
}

// PlaceBidResponse is returned for an accepted bid
type PlaceBidResponse struct {
	Bid     application.BidDTO           `json:"bid"`
	Auction *application.AuctionStateDTO `json:"auction"`
	BuyNow  bool                         `json:"buy_now"`
}

// WinnerResponse is returned by close and settle
type WinnerResponse struct {
	WinnerID       *uuid.UUID                 `json:"winner_id,omitempty"`
	AlreadySettled bool                       `json:"already_settled"`
	Settlement     *application.SettlementDTO `json:"settlement"`
}

type AuctionHandler struct {
	service  application.AuctionService
	validate *validator.Validate
	log      *zap.Logger
}

func NewAuctionHandler(service application.AuctionService, log *zap.Logger) *AuctionHandler {
	return &AuctionHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *AuctionHandler) RegisterRoutes(router fiber.Router) {
	g := router.Group("/auctions")
	g.Get("/:id", h.GetAuction)
	g.Get("/:id/bids", h.ListBids)
	g.Post("/:id/bids", h.PlaceBid)
	g.Post("/:id/close", h.CloseAuction)
	g.Post("/:id/settle", h.Settle)
}

// GetAuction handles GET /auctions/:id
func (h *AuctionHandler) GetAuction(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	state, err := h.service.GetAuctionState(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// ListBids handles GET /auctions/:id/bids
func (h *AuctionHandler) ListBids(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	bids, err := h.service.ListBids(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(bids)
}

// PlaceBid handles POST /auctions/:id/bids
func (h *AuctionHandler) PlaceBid(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	var req PlaceBidRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return badRequest("amount must be a decimal number")
	}

	res, err := h.service.PlaceBid(c.UserContext(), application.PlaceBidDTO{
		AuctionID: id,
		BidderID:  uuid.MustParse(req.BidderID),
		Amount:    amount,
	})
	if err != nil {
		return err
	}

	auction := application.NewAuctionStateDTO(res.Auction)
	auction.Settlement = application.NewSettlementDTO(res.Settlement)
	return c.Status(fiber.StatusCreated).JSON(PlaceBidResponse{
		Bid:     application.NewBidDTO(res.Bid),
		Auction: auction,
		BuyNow:  res.BuyNow,
	})
}

// CloseAuction handles POST /auctions/:id/close
func (h *AuctionHandler) CloseAuction(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	var req CloseAuctionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	res, err := h.service.CloseAuction(c.UserContext(), id, uuid.MustParse(req.SellerID))
	if err != nil {
		return err
	}
	return c.JSON(newWinnerResponse(res))
}

// Settle handles POST /auctions/:id/settle, it runs the winner determination
// for an auction past its end time
func (h *AuctionHandler) Settle(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	res, err := h.service.DetermineWinner(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(newWinnerResponse(res))
}

func (h *AuctionHandler) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		h.log.Debug("Request body rejected", zap.String("path", c.Path()), zap.Error(err))
		return badRequest("invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return badRequest("invalid field " + verrs[0].Field())
		}
		return badRequest("invalid request payload")
	}
	return nil
}

func auctionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid auction id")
	}
	return id, nil
}

func newWinnerResponse(res *application.WinnerResult) WinnerResponse {
	return WinnerResponse{
		WinnerID:       res.WinnerID,
		AlreadySettled: res.AlreadySettled,
		Settlement:     application.NewSettlementDTO(res.Settlement),
	}
}
