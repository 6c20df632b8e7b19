package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "atrium/pkg/domain"
)

var isRevokedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "atrium_revocation_check_duration_seconds",
	Help:    "Latency of principal revocation checks",
	Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
})

const revokedKeyPrefix = "prl:principal:"

// Redis is the shared revocation list for multi-instance deployments. Key
// existence is the marker; Redis expiry handles cleanup.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (l *Redis) Revoke(ctx context.Context, principalID id.PrincipalID, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	return l.client.Set(ctx, revokedKeyPrefix+principalID.String(), "1", ttl).Err()
}

func (l *Redis) IsRevoked(ctx context.Context, principalID id.PrincipalID) (bool, error) {
	start := time.Now()
	defer func() { isRevokedDuration.Observe(time.Since(start).Seconds()) }()

	_, err := l.client.Get(ctx, revokedKeyPrefix+principalID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
