// Package chat implements private messaging: resolving the single
// conversation between two users, sending, paging history, read state and
// realtime push.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/blacklist"
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/Zhouyi071021/campus-circle/internal/store"
)

// Publisher delivers an event to every socket a user holds.
type Publisher interface {
	Publish(ctx context.Context, userID int, ev Event) error
}

type Service struct {
	db     dbx.DBTX
	tx     dbx.TxRunner
	repos  store.Manager
	events Publisher
	log    logging.Logger
	now    func() time.Time
}

func NewService(db dbx.DBTX, tx dbx.TxRunner, repos store.Manager, log logging.Logger) *Service {
	return &Service{
		db:    db,
		tx:    tx,
		repos: repos,
		log:   log.With("module", "chat"),
		now:   time.Now,
	}
}

// SetPublisher wires realtime delivery. Without one, sends are only stored.
func (s *Service) SetPublisher(p Publisher) {
	s.events = p
}

// resolve returns the conversation between a and b, creating it with both
// participant rows when there is none. It must run inside tx; the advisory
// lock on the pair makes concurrent first contacts wait for each other.
func (s *Service) resolve(ctx context.Context, tx dbx.DBTX, a, b int, at time.Time) (int, error) {
	convs := s.repos.Conversations(tx)

	if err := convs.LockPair(ctx, a, b); err != nil {
		return 0, err
	}

	id, err := convs.FindPrivate(ctx, a, b)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return 0, err
	}

	c, err := convs.Create(ctx, a, b, at)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "conversation created", "conversation_id", c.ID, "user_a", a, "user_b", b)
	return c.ID, nil
}

func (s *Service) ResolveOrCreate(ctx context.Context, a, b int) (int, error) {
	if a == b {
		return 0, apperr.ErrSelfMessage
	}

	var id int
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		id, err = s.resolve(ctx, tx, a, b, s.now())
		return err
	})
	return id, err
}

// Send stores a message from sender to req.ReceiverID. The blacklist check,
// conversation resolution, insert and updated_at bump share one transaction,
// so a rejected or failed send leaves nothing behind.
func (s *Service) Send(ctx context.Context, sender int, req *SendRequest) (*models.Message, error) {
	if req.ReceiverID <= 0 || strings.TrimSpace(req.Content) == "" {
		return nil, apperr.ErrEmptyMessage
	}
	if req.ReceiverID == sender {
		return nil, apperr.ErrSelfMessage
	}
	msgType := req.Type
	if msgType == "" {
		msgType = models.MessageText
	}

	at := s.now()
	msg := &models.Message{
		SenderID:  sender,
		Content:   req.Content,
		Type:      msgType,
		Metadata:  req.Metadata,
		CreatedAt: at,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := blacklist.CanSend(ctx, s.repos.Blocks(tx), sender, req.ReceiverID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrBlocked
		}

		exists, err := s.repos.Users(tx).Exists(ctx, req.ReceiverID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.ErrUserNotFound
		}

		convID, err := s.resolve(ctx, tx, sender, req.ReceiverID, at)
		if err != nil {
			return err
		}

		convs := s.repos.Conversations(tx)
		msg.ConversationID = convID
		if err := convs.InsertMessage(ctx, msg); err != nil {
			return err
		}
		return convs.Touch(ctx, convID, at)
	})
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodePermissionDenied {
			s.log.Info(ctx, "send rejected", "sender_id", sender, "receiver_id", req.ReceiverID, "reason", err.Error())
		}
		return nil, err
	}

	s.push(ctx, req.ReceiverID, msg)
	return msg, nil
}

func (s *Service) push(ctx context.Context, userID int, msg *models.Message) {
	if s.events == nil {
		return
	}
	ev := Event{Type: EventMessage, Message: msg}
	if summary, err := s.Unread(ctx, userID); err == nil {
		ev.TotalUnread = summary.TotalUnread
	}
	if err := s.events.Publish(ctx, userID, ev); err != nil {
		s.log.Warn(ctx, "push failed", "user_id", userID, "error", err)
	}
}

func (s *Service) UnreadCount(ctx context.Context, conversationID, viewer int) (int, error) {
	return s.repos.Conversations(s.db).UnreadCount(ctx, conversationID, viewer)
}

// MarkRead moves the viewer's read mark to now. Repeating it is harmless.
func (s *Service) MarkRead(ctx context.Context, conversationID, viewer int) error {
	err := s.repos.Conversations(s.db).MarkRead(ctx, conversationID, viewer, s.now())
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrNotParticipant
	}
	return err
}

// Unread sums the viewer's unread messages over all conversations. It is
// recomputed on every call.
func (s *Service) Unread(ctx context.Context, viewer int) (*UnreadSummary, error) {
	counts, err := s.repos.Conversations(s.db).UnreadCounts(ctx, viewer)
	if err != nil {
		return nil, err
	}
	summary := &UnreadSummary{Conversations: counts}
	for _, c := range counts {
		summary.TotalUnread += c.Unread
	}
	return summary, nil
}

func (s *Service) Conversations(ctx context.Context, viewer int) ([]models.ConversationSummary, error) {
	return s.repos.Conversations(s.db).ListForUser(ctx, viewer)
}

// Messages returns one page of history, oldest first, and marks the
// conversation read for the viewer.
func (s *Service) Messages(ctx context.Context, conversationID, viewer, page, pageSize int) (*MessagePage, error) {
	convs := s.repos.Conversations(s.db)

	ok, err := convs.IsParticipant(ctx, conversationID, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotParticipant
	}

	msgs, total, err := convs.Messages(ctx, conversationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if err := s.MarkRead(ctx, conversationID, viewer); err != nil {
		return nil, err
	}
	return &MessagePage{Messages: msgs, Total: total, Page: page, PageSize: pageSize}, nil
}
