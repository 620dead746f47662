package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/classroom-journal/internal/logging"
	"github.com/AnshRaj112/classroom-journal/pkg/clientip"
)

const (
	// RateLimitWindow is the fixed counting window per IP.
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the number of requests allowed per window.
	RateLimitMaxRequests = 120
	RateLimitKeyPrefix   = "journal:ratelimit:"
	BlockedIPKeyPrefix   = "journal:blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked after exceeding the limit.
	BlockedIPDuration = 15 * time.Minute
)

// RedisRateLimiter counts requests per IP in a shared Redis so the limit
// holds across replicas. Redis failures let the request through.
type RedisRateLimiter struct {
	client      redis.Cmdable
	maxRequests int
	window      time.Duration
	blockFor    time.Duration
	trustProxy  bool
}

func NewRedisRateLimiter(client redis.Cmdable, trustProxy bool) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:      client,
		maxRequests: RateLimitMaxRequests,
		window:      RateLimitWindow,
		blockFor:    BlockedIPDuration,
		trustProxy:  trustProxy,
	}
}

func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logging.FromContext(ctx)
		ip := clientip.FromRequest(r, l.trustProxy)

		blockedKey := BlockedIPKeyPrefix + ip
		blocked, err := l.client.Exists(ctx, blockedKey).Result()
		if err == nil && blocked > 0 {
			writeError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		key := RateLimitKeyPrefix + ip
		pipe := l.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		if _, err := pipe.Exec(ctx); err != nil {
			log.WithError(err).Warn("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		count := int(incr.Val())
		if count > l.maxRequests {
			if err := l.client.Set(ctx, blockedKey, "1", l.blockFor).Err(); err != nil {
				log.WithError(err).Warn("failed to block ip")
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.blockFor.Seconds())))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.maxRequests-count))
		next.ServeHTTP(w, r)
	})
}
