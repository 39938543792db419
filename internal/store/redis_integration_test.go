package store_test

import (
	"context"
	"testing"

	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisStoreSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	addr      string
	client    *redis.Client
	store     *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err, "failed to start redis container")
	s.container = container

	conn, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	opts, err := redis.ParseURL(conn)
	s.Require().NoError(err)
	s.addr = opts.Addr
	s.client = redis.NewClient(opts)

	s.store, err = store.NewRedisStore(config.RedisConfig{Address: s.addr, PoolSize: 4}, "agent-1")
	s.Require().NoError(err)
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		s.NoError(testcontainers.TerminateContainer(s.container))
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisStoreSuite) TestBehaviour() {
	testStoreBehaviour(s.T(), s.store)
}

func (s *RedisStoreSuite) TestKeysAreNamespaced() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, store.KeyAccessToken, "abc"))

	raw, err := s.client.Get(ctx, "agent-1:token").Result()
	s.Require().NoError(err)
	s.Equal("abc", raw)

	_, err = s.client.Get(ctx, "token").Result()
	s.ErrorIs(err, redis.Nil)
}

// Clearing one agent's session leaves another namespace and foreign keys alone.
func (s *RedisStoreSuite) TestClearOnlyTouchesOwnNamespace() {
	ctx := context.Background()

	other, err := store.NewRedisStore(config.RedisConfig{Address: s.addr, PoolSize: 2}, "agent-2")
	s.Require().NoError(err)
	defer other.Close()

	s.Require().NoError(other.Set(ctx, store.KeyRefreshToken, "theirs"))
	s.Require().NoError(s.client.Set(ctx, "agent-1:unrelated", "x", 0).Err())

	for _, k := range store.Keys {
		s.Require().NoError(s.store.Set(ctx, k, "mine"))
	}
	s.Require().NoError(s.store.Clear(ctx))

	for _, k := range store.Keys {
		_, err := s.store.Get(ctx, k)
		s.ErrorIs(err, store.ErrNotFound, "key %s", k)
	}

	got, err := other.Get(ctx, store.KeyRefreshToken)
	s.Require().NoError(err)
	s.Equal("theirs", got)

	unrelated, err := s.client.Get(ctx, "agent-1:unrelated").Result()
	s.Require().NoError(err)
	s.Equal("x", unrelated)
}

func (s *RedisStoreSuite) TestNewFromConfig() {
	st, err := store.New(config.StoreConfig{
		Type:      "redis",
		Namespace: "agent-3",
		Redis:     &config.RedisConfig{Address: s.addr},
	})
	s.Require().NoError(err)
	defer st.Close()

	s.IsType(&store.RedisStore{}, st)
}
