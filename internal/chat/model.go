package chat

import (
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/goccy/go-json"
)

type SendRequest struct {
	ReceiverID int             `json:"receiverId"`
	Content    string          `json:"content"`
	Type       string          `json:"type"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

type MessagePage struct {
	Messages []models.Message `json:"messages"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type UnreadSummary struct {
	TotalUnread   int                  `json:"totalUnread"`
	Conversations []models.UnreadCount `json:"conversations"`
}

const EventMessage = "message"

// Event is what the hub pushes down a user's websockets.
type Event struct {
	Type        string          `json:"type"`
	Message     *models.Message `json:"message,omitempty"`
	TotalUnread int             `json:"totalUnread"`
}

// envelope addresses an event to one user across instances.
type envelope struct {
	UserID  int             `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// inbound is the only frame clients send over the socket.
type inbound struct {
	Type           string `json:"type"`
	ConversationID int    `json:"conversationId"`
}
