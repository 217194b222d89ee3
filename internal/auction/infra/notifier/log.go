package notifier

import (
	"context"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogNotifier writes every notification to the application log
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, userID uuid.UUID, eventType domain.EventType, payload domain.Event) error {
	n.log.Info("Notification",
		zap.String("eventID", payload.ID.String()),
		zap.String("auctionID", payload.AuctionID.String()),
		zap.String("userID", userID.String()),
		zap.String("type", string(eventType)),
		zap.Any("metadata", payload.Metadata),
	)
	return nil
}
