package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/httpx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per client IP in fixed windows kept in Redis,
// so every instance shares the same budget.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	log    logging.Logger
}

func NewRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration, log logging.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		log:    log.With("module", "ratelimit"),
	}
}

func (rl *RateLimiter) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := "ratelimit:" + rl.prefix + ":" + ClientIP(r)

		count, err := rl.count(ctx, key)
		if err != nil {
			// Redis trouble should not lock everybody out.
			rl.log.Warn(ctx, "rate limit increment failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := max(rl.limit-int(count), 0)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > rl.limit {
			rl.log.Warn(ctx, "rate limit exceeded", "key", key, "count", count)
			httpx.Error(w, apperr.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// count opens the window with SET NX EX and bumps it in the same MULTI, so a
// counter never exists without its expiry.
func (rl *RateLimiter) count(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, rl.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// ClientIP is the request peer address without the port. Run chi's RealIP first
// when behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
