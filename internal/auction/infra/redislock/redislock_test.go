package redislock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquire(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := New(client, "instance-a", 50*time.Second)

	mock.ExpectSetNX("sweep_lock:ended", "instance-a", 50*time.Second).SetVal(true)
	mock.ExpectSetNX("sweep_lock:ended", "instance-a", 50*time.Second).SetVal(false)

	ok, err := l.TryAcquire(context.Background(), "ended")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryAcquire(context.Background(), "ended")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryAcquire_Error(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := New(client, "instance-a", time.Second)

	mock.ExpectSetNX("sweep_lock:ending_soon", "instance-a", time.Second).SetErr(errors.New("timeout"))

	ok, err := l.TryAcquire(context.Background(), "ending_soon")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "timeout")
}
