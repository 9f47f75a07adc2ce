package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/Zhouyi071021/campus-circle/internal/store/conversations"
)

type convRepo struct{ s *Store }

func (r *convRepo) LockPair(_ context.Context, a, b int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	low, high := conversations.OrderedPair(a, b)
	r.s.locks = append(r.s.locks, pair{low, high})
	return nil
}

func (r *convRepo) convIDs() []int {
	ids := make([]int, 0, len(r.s.convs))
	for id := range r.s.convs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (r *convRepo) FindPrivate(_ context.Context, a, b int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range r.convIDs() {
		if r.s.convs[id].Type != models.ConversationPrivate {
			continue
		}
		_, okA := r.s.parts[pair{id, a}]
		_, okB := r.s.parts[pair{id, b}]
		if okA && okB {
			return id, nil
		}
	}
	return 0, apperr.ErrNotFound
}

func (r *convRepo) Create(_ context.Context, a, b int, at time.Time) (*models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := &models.Conversation{ID: r.s.id(), Type: models.ConversationPrivate, CreatedAt: at, UpdatedAt: at}
	r.s.convs[c.ID] = c
	r.s.parts[pair{c.ID, a}] = &participant{}
	r.s.parts[pair{c.ID, b}] = &participant{}
	cp := *c
	return &cp, nil
}

func (r *convRepo) IsParticipant(_ context.Context, conversationID, userID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.parts[pair{conversationID, userID}]
	return ok, nil
}

func (r *convRepo) InsertMessage(_ context.Context, m *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r *convRepo) Touch(_ context.Context, conversationID int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.convs[conversationID]; ok {
		c.UpdatedAt = at
	}
	return nil
}

// newestFirst returns the messages of a conversation ordered by created_at
// then id, both descending.
func (r *convRepo) newestFirst(conversationID int) []models.Message {
	var out []models.Message
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *convRepo) Messages(_ context.Context, conversationID, limit, offset int) ([]models.Message, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.newestFirst(conversationID)
	return page(all, limit, offset), len(all), nil
}

func (r *convRepo) MarkRead(_ context.Context, conversationID, userID int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.parts[pair{conversationID, userID}]
	if !ok {
		return apperr.ErrNotFound
	}
	p.lastReadAt = &at
	return nil
}

func (r *convRepo) unread(conversationID, viewerID int) int {
	p, ok := r.s.parts[pair{conversationID, viewerID}]
	if !ok {
		return 0
	}
	var since time.Time
	if p.lastReadAt != nil {
		since = *p.lastReadAt
	}
	n := 0
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID && m.SenderID != viewerID && m.CreatedAt.After(since) {
			n++
		}
	}
	return n
}

func (r *convRepo) UnreadCount(_ context.Context, conversationID, viewerID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.unread(conversationID, viewerID), nil
}

func (r *convRepo) UnreadCounts(_ context.Context, viewerID int) ([]models.UnreadCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := []models.UnreadCount{}
	for _, id := range r.convIDs() {
		if _, ok := r.s.parts[pair{id, viewerID}]; ok {
			counts = append(counts, models.UnreadCount{ConversationID: id, Unread: r.unread(id, viewerID)})
		}
	}
	return counts, nil
}

func (r *convRepo) ListForUser(_ context.Context, viewerID int) ([]models.ConversationSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := []models.ConversationSummary{}
	for _, id := range r.convIDs() {
		if _, ok := r.s.parts[pair{id, viewerID}]; !ok {
			continue
		}
		c := r.s.convs[id]
		s := models.ConversationSummary{
			ID:          c.ID,
			Type:        c.Type,
			UpdatedAt:   c.UpdatedAt,
			UnreadCount: r.unread(id, viewerID),
		}
		for k := range r.s.parts {
			if k[0] != id || k[1] == viewerID {
				continue
			}
			peer := &models.Peer{ID: k[1]}
			if u, ok := r.s.users[k[1]]; ok {
				peer.Username, peer.Nickname, peer.Avatar = u.Username, u.Nickname, u.Avatar
			}
			s.OtherUser = peer
		}
		if msgs := r.newestFirst(id); len(msgs) > 0 {
			last := msgs[0]
			s.LastMessage = &last
		}
		list = append(list, s)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

func (r *convRepo) CountConversations(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.convs), nil
}

func (r *convRepo) CountMessages(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.messages), nil
}
