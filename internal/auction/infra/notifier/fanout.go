package notifier

import (
	"context"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// FanOut delivers a notification to every sink. A failing sink does not stop
// the others, their errors are combined.
type FanOut []domain.Notifier

func (f FanOut) Notify(ctx context.Context, userID uuid.UUID, eventType domain.EventType, payload domain.Event) error {
	var err error
	for _, n := range f {
		err = multierr.Append(err, n.Notify(ctx, userID, eventType, payload))
	}
	return err
}
