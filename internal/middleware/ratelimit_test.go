package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func hit(h http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	mr, client := newRedis(t)
	h := NewRateLimiter(client, "login", 3, time.Minute, logging.Nop{}).Handle(&reached{})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.2"))

	assert.True(t, mr.Exists("ratelimit:login:10.0.0.1"))
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:login:10.0.0.1"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1"))
}

func TestRateLimiter_WindowStartsWithFirstHit(t *testing.T) {
	mr, client := newRedis(t)
	h := NewRateLimiter(client, "login", 2, time.Minute, logging.Nop{}).Handle(&reached{})
	key := "ratelimit:login:10.0.0.1"

	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1"))
	assert.Equal(t, time.Minute, mr.TTL(key))

	// Later hits in the window do not push the expiry out.
	mr.FastForward(40 * time.Second)
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))
	assert.Equal(t, 20*time.Second, mr.TTL(key))

	mr.FastForward(21 * time.Second)
	assert.False(t, mr.Exists(key))
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1"))
	v, err := mr.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestRateLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	mr, client := newRedis(t)
	h := NewRateLimiter(client, "login", 1, time.Minute, logging.Nop{}).Handle(&reached{})
	mr.Close()

	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	_, client := newRedis(t)
	h := NewRateLimiter(client, "login", 0, time.Minute, logging.Nop{}).Handle(&reached{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1"))
	}
}
