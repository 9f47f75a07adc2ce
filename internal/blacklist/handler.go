package blacklist

import (
	"net/http"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/httpx"
	"github.com/Zhouyi071021/campus-circle/internal/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	list, err := h.Service.List(r.Context(), id.SubjectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, list)
}

func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}
	target, err := httpx.IDParam(r, "userId")
	if err != nil {
		httpx.Error(w, err)
		return
	}

	if err := h.Service.Block(r.Context(), id.SubjectID, target); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"message": "user blocked"})
}

func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}
	target, err := httpx.IDParam(r, "userId")
	if err != nil {
		httpx.Error(w, err)
		return
	}

	if err := h.Service.Unblock(r.Context(), id.SubjectID, target); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"message": "user unblocked"})
}
