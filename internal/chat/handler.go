package chat

import (
	"context"
	"net/http"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/httpx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/Zhouyi071021/campus-circle/internal/middleware"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin may connect; the token is what authorizes the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	service *Service
	hub     *Hub
	log     logging.Logger
}

func NewHandler(service *Service, hub *Hub, log logging.Logger) *Handler {
	return &Handler{service: service, hub: hub, log: log.With("module", "chat")}
}

func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	list, err := h.service.Conversations(r.Context(), id.SubjectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, list)
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}
	convID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	page, pageSize := httpx.Page(r)

	res, err := h.service.Messages(r.Context(), convID, id.SubjectID, page, pageSize)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	var req SendRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	msg, err := h.service.Send(r.Context(), id.SubjectID, &req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Created(w, msg)
}

func (h *Handler) UnreadCounts(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	summary, err := h.service.Unread(r.Context(), id.SubjectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, summary)
}

// ServeWs upgrades an authenticated request to a websocket that receives the
// user's message events.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	// The request context ends when this handler returns.
	ctx := context.WithoutCancel(r.Context())
	client := &Client{
		Hub:      h.hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		UserID:   id.SubjectID,
		Username: id.Username,
		OnRead: func(ctx context.Context, conversationID int) error {
			return h.service.MarkRead(ctx, conversationID, id.SubjectID)
		},
		log: h.log,
	}

	select {
	case h.hub.Register <- client:
	case <-h.hub.Done():
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(ctx)
}
