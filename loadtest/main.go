// Command loadtest drives pairs of users against a running server: both sides
// of each pair open the conversation at the same moment, then one side sends a
// burst of messages while the other counts websocket pushes.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type stats struct {
	sent       atomic.Int64
	delivered  atomic.Int64
	failed     atomic.Int64
	duplicated atomic.Int64
}

type runner struct {
	baseURL  string
	wsURL    string
	password string
	messages int
	client   *http.Client
	log      logging.Logger
	stats    stats
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type account struct {
	Token string `json:"token"`
	User  struct {
		ID int `json:"id"`
	} `json:"user"`
}

func main() {
	base := flag.String("url", "http://localhost:8080", "server base URL")
	pairs := flag.Int("pairs", 50, "number of user pairs")
	messages := flag.Int("messages", 20, "messages sent per pair")
	flag.Parse()

	r := &runner{
		baseURL:  strings.TrimRight(*base, "/"),
		wsURL:    "ws" + strings.TrimPrefix(strings.TrimRight(*base, "/"), "http") + "/ws",
		password: "password123",
		messages: *messages,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      logging.NewJSON(os.Stderr, "info"),
	}
	ctx := context.Background()

	r.log.Info(ctx, "load test starting", "users", *pairs*2, "messages_per_pair", *messages)
	start := time.Now()

	var wg sync.WaitGroup
	for i := range *pairs {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			r.runPair(ctx, pairID)
		}(i)
	}
	wg.Wait()

	r.log.Info(ctx, "load test complete",
		"elapsed", time.Since(start).String(),
		"sent", r.stats.sent.Load(),
		"delivered", r.stats.delivered.Load(),
		"failed", r.stats.failed.Load(),
		"duplicate_conversations", r.stats.duplicated.Load(),
	)
}

func (r *runner) runPair(ctx context.Context, pairID int) {
	nonce := time.Now().UnixNano() % 1_000_000
	a, err := r.account(fmt.Sprintf("lt_%d_%d_a", nonce, pairID))
	if err != nil {
		r.log.Warn(ctx, "auth failed", "pair", pairID, "error", err)
		return
	}
	b, err := r.account(fmt.Sprintf("lt_%d_%d_b", nonce, pairID))
	if err != nil {
		r.log.Warn(ctx, "auth failed", "pair", pairID, "error", err)
		return
	}

	conn, _, err := websocket.DefaultDialer.Dial(r.wsURL+"?token="+b.Token, nil)
	if err != nil {
		r.log.Warn(ctx, "websocket connect failed", "pair", pairID, "error", err)
		return
	}
	defer conn.Close()

	received := make(chan struct{}, r.messages+1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}()

	// First contact from both sides at once.
	var first sync.WaitGroup
	first.Add(2)
	go func() { defer first.Done(); r.send(a, b.User.ID, "hello from a") }()
	go func() { defer first.Done(); r.send(b, a.User.ID, "hello from b") }()
	first.Wait()

	for i := 1; i < r.messages; i++ {
		r.send(a, b.User.ID, fmt.Sprintf("load test message %d", i))
		time.Sleep(10 * time.Millisecond)
	}

	deadline := time.After(5 * time.Second)
wait:
	for got := 0; got < r.messages; got++ {
		select {
		case <-received:
			r.stats.delivered.Add(1)
		case <-deadline:
			break wait
		}
	}

	var convs []json.RawMessage
	if err := r.call(http.MethodGet, "/api/messages/conversations", a.Token, nil, &convs); err != nil {
		r.log.Warn(ctx, "list conversations failed", "pair", pairID, "error", err)
		return
	}
	if len(convs) != 1 {
		r.stats.duplicated.Add(1)
		r.log.Warn(ctx, "pair has more than one conversation", "pair", pairID, "count", len(convs))
	}
}

// account registers username, falling back to login when it already exists.
func (r *runner) account(username string) (*account, error) {
	var acc account
	err := r.call(http.MethodPost, "/api/users/register", "", map[string]string{
		"username": username, "password": r.password, "confirmPassword": r.password,
	}, &acc)
	if err == nil {
		return &acc, nil
	}
	err = r.call(http.MethodPost, "/api/users/login", "", map[string]string{
		"username": username, "password": r.password,
	}, &acc)
	return &acc, err
}

func (r *runner) send(from *account, to int, content string) {
	err := r.call(http.MethodPost, "/api/messages/send", from.Token, map[string]any{
		"receiverId": to, "content": content,
	}, nil)
	if err != nil {
		r.stats.failed.Add(1)
		return
	}
	r.stats.sent.Add(1)
}

func (r *runner) call(method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, r.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: %d", method, path, resp.StatusCode)
	}
	if !env.Success {
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
