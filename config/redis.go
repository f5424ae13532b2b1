package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects using REDIS_URL, or REDIS_ADDR / REDIS_PASSWORD /
// REDIS_DB / REDIS_TLS. It returns nil when nothing is configured or the
// server does not answer a ping; caching and rate limiting are then off.
func NewRedisClient(log *zap.Logger) *redis.Client {
	var opts *redis.Options
	if u := envStr("REDIS_URL", ""); u != "" {
		parsed, err := redis.ParseURL(u)
		if err != nil {
			log.Warn("invalid REDIS_URL, redis disabled", zap.Error(err))
			return nil
		}
		opts = parsed
	} else {
		addr := envStr("REDIS_ADDR", "")
		if addr == "" {
			log.Info("redis not configured, cache and rate limiting disabled")
			return nil
		}
		opts = &redis.Options{
			Addr:     addr,
			Password: envStr("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),
		}
		if envBool("REDIS_TLS", false) {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, cache and rate limiting disabled", zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
