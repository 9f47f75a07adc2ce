package user

import (
	"net/http"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/httpx"
	"github.com/Zhouyi071021/campus-circle/internal/middleware"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	exists, err := h.Service.CheckUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"exists": exists})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	res, err := h.Service.Register(r.Context(), &req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Created(w, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	meta := LoginMeta{IP: middleware.ClientIP(r), UserAgent: r.UserAgent()}
	res, err := h.Service.Login(r.Context(), &req, meta)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	u, err := h.Service.Me(r.Context(), id.SubjectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, u)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}

	p, err := h.Service.Profile(r.Context(), userID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	var req ChangePasswordRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), id.SubjectID, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"message": "password updated"})
}

func (h *Handler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return
	}

	records, err := h.Service.LoginHistory(r.Context(), id.SubjectID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, records)
}

// followTarget resolves the caller and the {id} path parameter.
func followTarget(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, apperr.ErrNotAuthenticated)
		return 0, 0, false
	}
	target, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return 0, 0, false
	}
	return id.SubjectID, target, true
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	me, target, ok := followTarget(w, r)
	if !ok {
		return
	}
	if err := h.Service.Follow(r.Context(), me, target); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"message": "followed"})
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	me, target, ok := followTarget(w, r)
	if !ok {
		return
	}
	if err := h.Service.Unfollow(r.Context(), me, target); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"message": "unfollowed"})
}

func (h *Handler) FollowStatus(w http.ResponseWriter, r *http.Request) {
	me, target, ok := followTarget(w, r)
	if !ok {
		return
	}
	following, err := h.Service.IsFollowing(r.Context(), me, target)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Fields(w, map[string]any{"isFollowing": following})
}
