//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/internal/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	now   time.Time
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.now = time.Now().UTC().Truncate(time.Second)
	s.store = NewRedisStore(s.redis.Client, WithClock(func() time.Time { return s.now }))
}

func (s *RedisStoreSuite) TestRoundTripAndActiveIndex() {
	ctx := context.Background()
	tx := pendingTx("pay-1", s.now.Add(30*time.Minute))
	s.Require().NoError(s.store.Save(ctx, tx))

	got, err := s.store.Get(ctx, "pay-1")
	s.Require().NoError(err)
	s.Equal(tx.Amount, got.Amount)
	s.True(got.PaymentExpiry.Equal(*tx.PaymentExpiry))

	active, err := s.store.FindActive(ctx, "evt-1", "att-1", s.now)
	s.Require().NoError(err)
	s.Equal("pay-1", active.PaymentID)

	ttl, err := s.redis.Client.TTL(ctx, activeKeyPrefix+activeKey("evt-1", "att-1")).Result()
	s.Require().NoError(err)
	s.LessOrEqual(ttl, 30*time.Minute)
	s.Greater(ttl, 29*time.Minute)
}

func (s *RedisStoreSuite) TestTerminalClearsOnlyOwnIndex() {
	ctx := context.Background()
	old := pendingTx("pay-1", s.now.Add(time.Hour))
	s.Require().NoError(s.store.Save(ctx, old))
	s.Require().NoError(s.store.Save(ctx, pendingTx("pay-2", s.now.Add(time.Hour))))

	old.Status = domain.PaymentFailed
	s.Require().NoError(s.store.Save(ctx, old))

	active, err := s.store.FindActive(ctx, "evt-1", "att-1", s.now)
	s.Require().NoError(err)
	s.Equal("pay-2", active.PaymentID)

	newer, err := s.store.Get(ctx, "pay-2")
	s.Require().NoError(err)
	newer.Status = domain.PaymentCompleted
	s.Require().NoError(s.store.Save(ctx, newer))

	_, err = s.store.FindActive(ctx, "evt-1", "att-1", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestMissing() {
	_, err := s.store.Get(context.Background(), "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindActive(context.Background(), "evt-1", "nobody", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
