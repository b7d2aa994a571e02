package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/moodjournal-backend/pkg/config"
)

func newFakeClient() (*Client, *fakeCommands) {
	fake := &fakeCommands{
		values:  map[string]string{},
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
	return &Client{cmds: fake, keys: DefaultKeyspace}, fake
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client, fake := newFakeClient()

	for i := int64(1); i <= 2; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "llm:user_1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, count)
	}

	allowed, count, err := client.FixedWindowAllow(ctx, "llm:user_1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)

	assert.Equal(t, time.Minute, fake.expires["mj:rate_limit:llm:user_1"])
	assert.Equal(t, 1, fake.expireSets, "expire is only applied while the key has no ttl")
}

func TestFixedWindowAllowErrors(t *testing.T) {
	client, fake := newFakeClient()
	fake.txErr = errors.New("connection refused")

	_, _, err := client.FixedWindowAllow(context.Background(), "scope", 1, time.Second)
	assert.ErrorContains(t, err, "connection refused")

	_, _, err = client.FixedWindowAllow(context.Background(), "scope", 1, 0)
	assert.Error(t, err)
}

func TestClaimAndRelease(t *testing.T) {
	ctx := context.Background()
	client, fake := newFakeClient()

	claimed, err := client.Claim(ctx, "stripe", "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, fake.values, "mj:idempotency:stripe:evt_1")

	claimed, err = client.Claim(ctx, "stripe", "evt_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = client.Claim(ctx, "clerk", "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed, "scopes are independent")

	require.NoError(t, client.Release(ctx, "stripe", "evt_1"))
	claimed, err = client.Claim(ctx, "stripe", "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	assert.Error(t, client.Ping(context.Background()))
	_, err := client.Claim(context.Background(), "s", "id", time.Second)
	assert.Error(t, err)
	_, _, err = client.FixedWindowAllow(context.Background(), "s", 1, time.Second)
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestKeyspace(t *testing.T) {
	assert.Equal(t, "mj:idempotency:scope:id", DefaultKeyspace.Idempotency("scope", "id"))
	assert.Equal(t, "mj:rate_limit:scope", DefaultKeyspace.RateLimit("scope"))
	assert.Equal(t, "mj:idempotency:id", DefaultKeyspace.Idempotency("", " id "))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", DB: 1, PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

type fakeCommands struct {
	values     map[string]string
	counts     map[string]int64
	expires    map[string]time.Duration
	expireSets int
	txErr      error
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = "1"
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeCommands) TxPipelined(_ context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	if f.txErr != nil {
		return nil, f.txErr
	}
	return nil, fn(&fakePipe{f: f})
}

// fakePipe implements the two pipeline commands the window uses; anything
// else panics through the nil embedded interface.
type fakePipe struct {
	redis.Pipeliner
	f *fakeCommands
}

func (p *fakePipe) Incr(_ context.Context, key string) *redis.IntCmd {
	p.f.counts[key]++
	return redis.NewIntResult(p.f.counts[key], nil)
}

func (p *fakePipe) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := p.f.expires[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	p.f.expires[key] = ttl
	p.f.expireSets++
	return redis.NewBoolResult(true, nil)
}
