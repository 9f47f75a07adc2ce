package admin

import (
	"net/http"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/httpx"
	"github.com/Zhouyi071021/campus-circle/internal/middleware"
)

// Handler serves /api/admin. Role gates are applied by the router.
type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.DashboardStats(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, stats)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := httpx.Page(r)
	res, err := h.Service.ListUsers(r.Context(), r.URL.Query().Get("search"), page, pageSize)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}
	target, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}

	var req StatusRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.Service.SetUserStatus(r.Context(), actor, target, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"message": "user status updated"})
}

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListAdmins(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, list)
}

func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	var req PromoteRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	u, err := h.Service.Promote(r.Context(), actor, &req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, u)
}

func (h *Handler) Demote(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}
	target, err := httpx.IDParam(r, "userId")
	if err != nil {
		httpx.Error(w, err)
		return
	}

	if err := h.Service.Demote(r.Context(), actor, target); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"message": "admin removed"})
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	page, pageSize := httpx.Page(r)
	res, err := h.Service.Logs(r.Context(), page, pageSize)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, res)
}
