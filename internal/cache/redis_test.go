package cache

import (
	"context"
	"testing"

	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Embedded(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, "", logging.Nop{})
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.Embedded())
	require.NoError(t, r.Client.Set(ctx, "k", "v", 0).Err())
	assert.Equal(t, "v", r.Client.Get(ctx, "k").Val())
}

func TestOpen_External(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := Open(context.Background(), mr.Addr(), logging.Nop{})
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Embedded())
	assert.NoError(t, r.Client.Ping(context.Background()).Err())
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), addr, logging.Nop{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
