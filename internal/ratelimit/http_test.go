package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/mocks"
	"github.com/feral-file/drips-indexer/internal/ratelimit"
)

func TestNewHTTPClient_DisabledReturnsInner(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockHTTPClient(ctrl)

	client := ratelimit.NewHTTPClient(inner, ratelimit.Config{})

	assert.Same(t, inner, client)
}

func TestHTTPClient_GetBytes(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockHTTPClient(ctrl)
	client := ratelimit.NewHTTPClient(inner, ratelimit.Config{RequestsPerSecond: 1000, Burst: 10})

	ctx := context.Background()
	inner.EXPECT().GetBytes(ctx, "https://ipfs.io/ipfs/bafy").Return([]byte(`{}`), nil)

	data, err := client.GetBytes(ctx, "https://ipfs.io/ipfs/bafy")

	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), data)
}

func TestHTTPClient_LimitsPerHost(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockHTTPClient(ctrl)
	// one request every 100s, a second request to the same host cannot fit in a short deadline
	client := ratelimit.NewHTTPClient(inner, ratelimit.Config{RequestsPerSecond: 0.01, Burst: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	inner.EXPECT().GetBytes(ctx, "https://ipfs.io/ipfs/a").Return([]byte(`a`), nil)
	inner.EXPECT().Head(ctx, "https://dweb.link/ipfs/a").Return(200, nil)

	_, err := client.GetBytes(ctx, "https://ipfs.io/ipfs/a")
	require.NoError(t, err)

	// same host, throttled
	_, err = client.GetBytes(ctx, "https://ipfs.io/ipfs/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit for ipfs.io")

	// another host has its own bucket
	status, err := client.Head(ctx, "https://dweb.link/ipfs/a")
	require.NoError(t, err)
	assert.Equal(t, 200, status)
}

func TestHTTPClient_CancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockHTTPClient(ctrl)
	client := ratelimit.NewHTTPClient(inner, ratelimit.Config{RequestsPerSecond: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Head(ctx, "https://ipfs.io/ipfs/a")

	assert.ErrorIs(t, err, context.Canceled)
}
