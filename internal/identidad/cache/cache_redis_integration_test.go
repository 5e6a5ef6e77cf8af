//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registro/internal/identidad/models"
	id "registro/pkg/domain"
	"registro/pkg/platform/sentinel"
	"registro/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.cache = NewRedis(s.redis.Client, time.Minute, nil)
}

func (s *RedisCacheSuite) TestRoundTripWithTTL() {
	ctx := context.Background()
	birth := time.Date(1990, 3, 4, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.cache.Set(ctx, &models.Identidad{Cedula: "1234567", Nombres: "Maria", FechaNacimiento: &birth}))

	got, err := s.cache.Get(ctx, id.Cedula("1234567"))
	s.Require().NoError(err)
	s.Equal("Maria", got.Nombres)
	s.True(birth.Equal(*got.FechaNacimiento))

	ttl, err := s.redis.Client.TTL(ctx, "registro:cedula:1234567").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisCacheSuite) TestMiss() {
	_, err := s.cache.Get(context.Background(), id.Cedula("42"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
