package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/coffeeshop/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyClientWrites = "coffeeshop:ratelimit:writes:%s"

// NewRedisClient returns nil when REDIS_ADDR is unset, which disables rate
// limiting.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		log.Named("ratelimit").Info("redis not configured, rate limiting disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Named("ratelimit").Warn("redis ping failed", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

type Params struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Client *redis.Client `optional:"true"`
}

// Limiter throttles mutating requests per client.
type Limiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewLimiter(p Params) (*Limiter, error) {
	if p.Client == nil {
		return NewScriptLimiter(p.Cfg.RateLimit, p.Log, nil)
	}
	return NewScriptLimiter(p.Cfg.RateLimit, p.Log, p.Client)
}

// NewScriptLimiter builds a limiter that runs the bucket script on client.
// A nil client yields a disabled limiter.
func NewScriptLimiter(cfg config.RateLimitConfig, log *zap.Logger, client redis.Scripter) (*Limiter, error) {
	l := &Limiter{
		rate:  cfg.RPS,
		burst: cfg.Burst,
		log:   log.Named("ratelimit"),
	}
	if client == nil {
		return l, nil
	}
	if l.rate <= 0 || l.burst <= 0 {
		return nil, fmt.Errorf("%w: RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive", config.ErrInvalidValue)
	}
	l.bucket = NewTokenBucket(client)
	return l, nil
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowWrite takes one token from the client's bucket. A disabled limiter
// allows everything.
func (l *Limiter) AllowWrite(ctx context.Context, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyClientWrites, clientKey), l.rate, l.burst)
}
