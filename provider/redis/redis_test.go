package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	p, err := New(Config{Client: client, CloseClient: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, mr
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	// Miss before write.
	_, ok, err := p.Get(ctx, "forum:item:t1")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := p.Set(ctx, "forum:item:t1", []byte("payload"), 1, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)

	b, ok, err := p.Get(ctx, "forum:item:t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), b)

	require.NoError(t, p.Del(ctx, "forum:item:t1"))
	_, ok, err = p.Get(ctx, "forum:item:t1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	require.NoError(t, p.Del(ctx, "forum:item:t1"))
}

func TestSetRespectsTTL(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestProvider(t)

	_, err := p.Set(ctx, "forum:item:t1", []byte("v"), 1, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, ok, err := p.Get(ctx, "forum:item:t1")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire")
}

func TestDelPrefix(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	assert.True(t, p.SupportsDelPrefix())

	seed := map[string]string{
		"thread:list:plant-care:1:20:abc": "p1",
		"thread:list:plant-care:2:20:abc": "p2",
		"thread:list:plant-care:1:20:def": "p1f",
		"thread:list:woodwork:1:20:abc":   "other",
		"thread:item:t1":                  "item",
	}
	for k, v := range seed {
		_, err := p.Set(ctx, k, []byte(v), 1, 0)
		require.NoError(t, err)
	}

	n, err := p.DelPrefix(ctx, "thread:list:plant-care:")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, gone := range []string{
		"thread:list:plant-care:1:20:abc",
		"thread:list:plant-care:2:20:abc",
		"thread:list:plant-care:1:20:def",
	} {
		_, ok, err := p.Get(ctx, gone)
		require.NoError(t, err)
		assert.False(t, ok, gone)
	}
	for _, kept := range []string{"thread:list:woodwork:1:20:abc", "thread:item:t1"} {
		_, ok, err := p.Get(ctx, kept)
		require.NoError(t, err)
		assert.True(t, ok, kept)
	}

	// Nothing left to match.
	n, err = p.DelPrefix(ctx, "thread:list:plant-care:")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDelPrefixEscapesGlobMetacharacters(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	// A scope containing glob syntax must match literally, not as a pattern.
	_, err := p.Set(ctx, "ns:list:a*b:1", []byte("x"), 1, 0)
	require.NoError(t, err)
	_, err = p.Set(ctx, "ns:list:aXb:1", []byte("y"), 1, 0)
	require.NoError(t, err)

	n, err := p.DelPrefix(ctx, "ns:list:a*b:")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := p.Get(ctx, "ns:list:aXb:1")
	require.NoError(t, err)
	assert.True(t, ok, "pattern-looking prefix must not match other keys")
}
