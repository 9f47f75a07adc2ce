// Package memstore is an in-memory store.Manager used by service tests and
// local runs without PostgreSQL. Transactions are serialized but never rolled
// back.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/Zhouyi071021/campus-circle/internal/store/auditlog"
	"github.com/Zhouyi071021/campus-circle/internal/store/blocks"
	"github.com/Zhouyi071021/campus-circle/internal/store/conversations"
	"github.com/Zhouyi071021/campus-circle/internal/store/posts"
	"github.com/Zhouyi071021/campus-circle/internal/store/users"
)

type pair [2]int

type participant struct {
	lastReadAt *time.Time
}

type post struct {
	id        int
	status    string
	updatedAt time.Time
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	now  func() time.Time

	users   map[int]*models.User
	follows map[pair]time.Time
	logins  []models.LoginRecord
	blocks  map[pair]time.Time

	convs    map[int]*models.Conversation
	parts    map[pair]*participant // {conversation, user}
	messages []models.Message
	locks    []pair

	posts []post
	logs  []models.AdminLog

	nextID int
}

func New() *Store {
	return &Store{
		now:     time.Now,
		users:   map[int]*models.User{},
		follows: map[pair]time.Time{},
		blocks:  map[pair]time.Time{},
		convs:   map[int]*models.Conversation{},
		parts:   map[pair]*participant{},
	}
}

// WithClock sets the clock used for rows whose timestamps the database would
// normally fill in.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// WithTx implements dbx.TxRunner. Transactions run one at a time.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, nil)
}

func (s *Store) Users(dbx.DBTX) users.Repository                 { return &userRepo{s} }
func (s *Store) Blocks(dbx.DBTX) blocks.Repository               { return &blockRepo{s} }
func (s *Store) Conversations(dbx.DBTX) conversations.Repository { return &convRepo{s} }
func (s *Store) Posts(dbx.DBTX) posts.Repository                 { return &postRepo{s} }
func (s *Store) AuditLog(dbx.DBTX) auditlog.Repository           { return &auditRepo{s} }

// AddPost seeds a post row for the cleanup job.
func (s *Store) AddPost(status string, updatedAt time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.posts = append(s.posts, post{id: id, status: status, updatedAt: updatedAt})
	return id
}

// PostIDs lists the surviving posts.
func (s *Store) PostIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.posts))
	for _, p := range s.posts {
		ids = append(ids, p.id)
	}
	return ids
}

// LockedPairs returns every pair passed to LockPair, in call order.
func (s *Store) LockedPairs() [][2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][2]int, len(s.locks))
	for i, p := range s.locks {
		out[i] = p
	}
	return out
}

// Counts reports the number of conversations, participant rows and messages.
func (s *Store) Counts() (convs, parts, msgs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs), len(s.parts), len(s.messages)
}
