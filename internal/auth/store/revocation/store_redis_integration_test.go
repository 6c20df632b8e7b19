//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "atrium/pkg/domain"
	"atrium/pkg/testutil/containers"
)

type RedisListSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	list  *Redis
}

func TestRedisListSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisListSuite))
}

func (s *RedisListSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.list = NewRedis(s.redis.Client)
}

func (s *RedisListSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisListSuite) TestRevokeAndCheck() {
	ctx := context.Background()
	principalID := id.NewPrincipalID()

	revoked, err := s.list.IsRevoked(ctx, principalID)
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.list.Revoke(ctx, principalID, time.Hour))

	revoked, err = s.list.IsRevoked(ctx, principalID)
	s.Require().NoError(err)
	s.True(revoked)

	other, err := s.list.IsRevoked(ctx, id.NewPrincipalID())
	s.Require().NoError(err)
	s.False(other)
}

func (s *RedisListSuite) TestEntriesExpireWithRedisTTL() {
	ctx := context.Background()
	principalID := id.NewPrincipalID()

	s.Require().NoError(s.list.Revoke(ctx, principalID, 100*time.Millisecond))

	s.Require().Eventually(func() bool {
		revoked, err := s.list.IsRevoked(ctx, principalID)
		return err == nil && !revoked
	}, 2*time.Second, 50*time.Millisecond)
}
