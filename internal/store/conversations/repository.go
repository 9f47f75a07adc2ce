// Package conversations stores private conversations, their participants and
// messages, and answers the unread-count queries.
package conversations

import (
	"context"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/models"
)

type Repository interface {
	// LockPair takes a transaction-scoped advisory lock on the unordered
	// pair {a, b}. Only meaningful inside a transaction.
	LockPair(ctx context.Context, a, b int) error
	// FindPrivate returns the conversation shared by a and b, or
	// apperr.ErrNotFound.
	FindPrivate(ctx context.Context, a, b int) (int, error)
	// Create inserts a private conversation and both participant rows.
	Create(ctx context.Context, a, b int, at time.Time) (*models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID int) (bool, error)

	InsertMessage(ctx context.Context, m *models.Message) error
	Touch(ctx context.Context, conversationID int, at time.Time) error
	Messages(ctx context.Context, conversationID, limit, offset int) ([]models.Message, int, error)

	MarkRead(ctx context.Context, conversationID, userID int, at time.Time) error
	UnreadCount(ctx context.Context, conversationID, viewerID int) (int, error)
	UnreadCounts(ctx context.Context, viewerID int) ([]models.UnreadCount, error)
	ListForUser(ctx context.Context, viewerID int) ([]models.ConversationSummary, error)

	CountConversations(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)
}

// OrderedPair returns a and b with the smaller id first.
func OrderedPair(a, b int) (low, high int) {
	if a > b {
		return b, a
	}
	return a, b
}
