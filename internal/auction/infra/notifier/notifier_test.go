package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/go-redis/redismock/v9"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type notifyFunc func(ctx context.Context, userID uuid.UUID, eventType domain.EventType, payload domain.Event) error

func (f notifyFunc) Notify(ctx context.Context, userID uuid.UUID, eventType domain.EventType, payload domain.Event) error {
	return f(ctx, userID, eventType, payload)
}

func TestDispatcher_DeliversInOrderPerAuction(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := domain.NewMockNotifier(ctrl)

	auctionID, seller, bidder := uuid.New(), uuid.New(), uuid.New()
	var events domain.Events
	events.Add(auctionID, bidder, domain.EventAuctionWon, t0, nil)
	events.Add(auctionID, seller, domain.EventSellerAuctionEnded, t0, nil)

	gomock.InOrder(
		n.EXPECT().Notify(gomock.Any(), bidder, domain.EventAuctionWon, events[0]).Return(nil),
		n.EXPECT().Notify(gomock.Any(), seller, domain.EventSellerAuctionEnded, events[1]).Return(nil),
	)

	d := NewDispatcher(n, zaptest.NewLogger(t), 4, 16, time.Second)
	d.Start(context.Background())
	d.Publish(events)
	d.Stop()
}

func TestDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var (
		mu        sync.Mutex
		delivered []domain.EventType
	)
	n := notifyFunc(func(_ context.Context, _ uuid.UUID, typ domain.EventType, _ domain.Event) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, typ)
		if typ == domain.EventOutbid {
			return errors.New("smtp down")
		}
		if typ == domain.EventEndingSoon {
			panic("broken sink")
		}
		return nil
	})

	auctionID := uuid.New()
	var events domain.Events
	events.Add(auctionID, uuid.New(), domain.EventOutbid, t0, nil)
	events.Add(auctionID, uuid.New(), domain.EventEndingSoon, t0, nil)
	events.Add(auctionID, uuid.New(), domain.EventBidPlaced, t0, nil)

	d := NewDispatcher(n, zap.New(core), 1, 16, time.Second)
	d.Start(context.Background())
	d.Publish(events)
	d.Stop()

	assert.Equal(t, events.Types(), delivered)
	assert.Equal(t, 2, logs.FilterMessage("Notification delivery failed").Len())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := notifyFunc(func(context.Context, uuid.UUID, domain.EventType, domain.Event) error { return nil })

	// not started, so nothing drains the queue
	d := NewDispatcher(n, zap.New(core), 1, 1, time.Second)
	auctionID := uuid.New()
	var events domain.Events
	events.Add(auctionID, uuid.New(), domain.EventBidPlaced, t0, nil)
	events.Add(auctionID, uuid.New(), domain.EventBidPlaced, t0, nil)
	d.Publish(events)

	assert.Equal(t, 1, logs.FilterMessage("Notification queue full, event dropped").Len())
}

func TestDispatcher_PublishAfterStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := domain.NewMockNotifier(ctrl)

	d := NewDispatcher(n, zaptest.NewLogger(t), 2, 4, time.Second)
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	// no Notify expected
	d.Publish(domain.Events{domain.NewEvent(uuid.New(), uuid.New(), domain.EventBidPlaced, t0, nil)})
}

func TestFanOut_CombinesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := domain.NewMockNotifier(ctrl)
	second := domain.NewMockNotifier(ctrl)
	third := domain.NewMockNotifier(ctrl)

	ev := domain.NewEvent(uuid.New(), uuid.New(), domain.EventAuctionLost, t0, nil)
	errA, errB := errors.New("a"), errors.New("b")
	first.EXPECT().Notify(gomock.Any(), ev.SubjectUserID, ev.Type, ev).Return(errA)
	second.EXPECT().Notify(gomock.Any(), ev.SubjectUserID, ev.Type, ev).Return(nil)
	third.EXPECT().Notify(gomock.Any(), ev.SubjectUserID, ev.Type, ev).Return(errB)

	err := FanOut{first, second, third}.Notify(context.Background(), ev.SubjectUserID, ev.Type, ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestRedisNotifier_PublishesToUserAndAuction(t *testing.T) {
	client, mock := redismock.NewClientMock()
	ev := domain.NewEvent(uuid.New(), uuid.New(), domain.EventOutbid, t0, map[string]any{"new_amount": "200"})
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	mock.ExpectPublish(UserChannel(ev.SubjectUserID), string(data)).SetVal(1)
	mock.ExpectPublish(AuctionChannel(ev.AuctionID), string(data)).SetVal(3)

	err = NewRedisNotifier(client).Notify(context.Background(), ev.SubjectUserID, ev.Type, ev)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisNotifier_PublishError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	ev := domain.NewEvent(uuid.New(), uuid.New(), domain.EventAuctionWon, t0, nil)
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	mock.ExpectPublish(UserChannel(ev.SubjectUserID), string(data)).SetErr(errors.New("connection refused"))
	mock.ExpectPublish(AuctionChannel(ev.AuctionID), string(data)).SetVal(0)

	err = NewRedisNotifier(client).Notify(context.Background(), ev.SubjectUserID, ev.Type, ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ev := domain.NewEvent(uuid.New(), uuid.New(), domain.EventEndingSoon, t0, nil)

	require.NoError(t, NewLogNotifier(zap.New(core)).Notify(context.Background(), ev.SubjectUserID, ev.Type, ev))
	entries := logs.FilterMessage("Notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(domain.EventEndingSoon), entries[0].ContextMap()["type"])
}
