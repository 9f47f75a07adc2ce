package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/admin"
	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/blacklist"
	"github.com/Zhouyi071021/campus-circle/internal/chat"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	myMiddleware "github.com/Zhouyi071021/campus-circle/internal/middleware"
	"github.com/Zhouyi071021/campus-circle/internal/store/memstore"
	"github.com/Zhouyi071021/campus-circle/internal/upload"
	"github.com/Zhouyi071021/campus-circle/internal/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type nopPutter struct{}

func (nopPutter) Put(context.Context, upload.Object) (string, error) { return "http://cdn.local/x", nil }

func newTestServer(t *testing.T, loginLimit int) *httptest.Server {
	t.Helper()
	log := logging.Nop{}
	st := memstore.New()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tokens := auth.NewTokenService("test-secret", time.Hour)
	chatService := chat.NewService(nil, st, st, log)
	hub := chat.NewHub(rdb, log)
	go hub.Run(ctx)
	require.NoError(t, hub.SubscribeToRedis(ctx))
	chatService.SetPublisher(hub)

	router := newRouter(handlers{
		auth:         myMiddleware.NewAuthMiddleware(tokens),
		loginLimiter: myMiddleware.NewRateLimiter(rdb, "login", loginLimit, time.Minute, log),
		users:        user.NewHandler(user.NewService(nil, st, st, auth.NewHasher(bcrypt.MinCost), tokens, log)),
		blacklist:    blacklist.NewHandler(blacklist.NewService(nil, st, st, log)),
		chat:         chat.NewHandler(chatService, hub, log),
		admin:        admin.NewHandler(admin.NewService(nil, st, st, log)),
		upload:       upload.NewHandler(nopPutter{}, 1<<20, log),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func (c apiClient) do(method, path, token, body string) (int, map[string]any) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.srv.URL+path, strings.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (c apiClient) register(name string) (token string, id int) {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/api/users/register", "",
		fmt.Sprintf(`{"username":%q,"password":"Passw0rd!","confirmPassword":"Passw0rd!"}`, name))
	require.Equal(c.t, http.StatusCreated, code, body)
	data := body["data"].(map[string]any)
	return data["token"].(string), int(data["user"].(map[string]any)["id"].(float64))
}

func TestRoutes_MessagingFlow(t *testing.T) {
	c := apiClient{t: t, srv: newTestServer(t, 10)}
	alice, aliceID := c.register("alice")
	bob, bobID := c.register("bob")

	code, body := c.do(http.MethodPost, "/api/settings/blacklist/"+fmt.Sprint(aliceID), bob, "")
	require.Equal(t, http.StatusOK, code, body)

	code, body = c.do(http.MethodPost, "/api/messages/send", alice, fmt.Sprintf(`{"receiverId":%d,"content":"hi"}`, bobID))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "recipient has blocked you", body["error"])

	code, body = c.do(http.MethodGet, "/api/messages/conversations", alice, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["data"])

	code, _ = c.do(http.MethodPost, "/api/messages/send", bob, fmt.Sprintf(`{"receiverId":%d,"content":"you can't answer"}`, aliceID))
	require.Equal(t, http.StatusCreated, code)

	code, body = c.do(http.MethodGet, "/api/messages/unread-counts", alice, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["data"].(map[string]any)["totalUnread"])

	code, body = c.do(http.MethodGet, "/api/messages/conversations", alice, "")
	require.Equal(t, http.StatusOK, code)
	convs := body["data"].([]any)
	require.Len(t, convs, 1)
	convID := int(convs[0].(map[string]any)["id"].(float64))

	code, body = c.do(http.MethodGet, fmt.Sprintf("/api/messages/conversations/%d/messages", convID), alice, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["data"].(map[string]any)["total"])

	_, body = c.do(http.MethodGet, "/api/messages/unread-counts", alice, "")
	assert.EqualValues(t, 0, body["data"].(map[string]any)["totalUnread"])

	carol, _ := c.register("carol")
	code, _ = c.do(http.MethodGet, fmt.Sprintf("/api/messages/conversations/%d/messages", convID), carol, "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRoutes_Gates(t *testing.T) {
	c := apiClient{t: t, srv: newTestServer(t, 2)}
	alice, aliceID := c.register("alice")

	code, body := c.do(http.MethodGet, "/api/messages/conversations", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "no token provided", body["error"])

	code, body = c.do(http.MethodGet, "/api/messages/conversations", "garbage", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "invalid or expired token", body["error"])

	code, _ = c.do(http.MethodGet, "/api/admin/dashboard/stats", alice, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, body = c.do(http.MethodGet, fmt.Sprintf("/api/users/%d", aliceID), "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", body["data"].(map[string]any)["username"])

	login := `{"username":"alice","password":"Passw0rd!"}`
	for range 2 {
		code, _ = c.do(http.MethodPost, "/api/users/login", "", login)
		assert.Equal(t, http.StatusOK, code)
	}
	code, body = c.do(http.MethodPost, "/api/users/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "too many requests, try again later", body["error"])
}

func TestRoutes_WebsocketPush(t *testing.T) {
	srv := newTestServer(t, 10)
	c := apiClient{t: t, srv: srv}
	alice, _ := c.register("alice")
	bob, bobID := c.register("bob")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + bob
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)

	frames := make(chan []byte, 32)
	go func() {
		defer close(frames)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- data
		}
	}()

	// The socket registers with the hub just after the handshake, so the
	// first sends may land before it is listening.
	var ev chat.Event
	for attempt := 0; attempt < 20 && ev.Message == nil; attempt++ {
		code, _ := c.do(http.MethodPost, "/api/messages/send", alice, fmt.Sprintf(`{"receiverId":%d,"content":"ping"}`, bobID))
		require.Equal(t, http.StatusCreated, code)

		select {
		case data, ok := <-frames:
			require.True(t, ok, "socket closed")
			require.NoError(t, json.Unmarshal(data, &ev))
		case <-time.After(250 * time.Millisecond):
		}
	}

	require.NotNil(t, ev.Message, "no event pushed")
	assert.Equal(t, chat.EventMessage, ev.Type)
	assert.Equal(t, "ping", ev.Message.Content)
	assert.GreaterOrEqual(t, ev.TotalUnread, 1)
}
