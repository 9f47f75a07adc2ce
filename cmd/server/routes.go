package main

import (
	"net/http"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/admin"
	"github.com/Zhouyi071021/campus-circle/internal/blacklist"
	"github.com/Zhouyi071021/campus-circle/internal/chat"
	myMiddleware "github.com/Zhouyi071021/campus-circle/internal/middleware"
	"github.com/Zhouyi071021/campus-circle/internal/upload"
	"github.com/Zhouyi071021/campus-circle/internal/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 30 * time.Second

type handlers struct {
	auth         *myMiddleware.AuthMiddleware
	loginLimiter *myMiddleware.RateLimiter
	users        *user.Handler
	blacklist    *blacklist.Handler
	chat         *chat.Handler
	admin        *admin.Handler
	upload       *upload.Handler
}

func newRouter(h handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Websocket: long-lived, so it stays out of the request timeout.
	r.With(h.auth.HandleWS).Get("/ws", h.chat.ServeWs)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		// Public
		r.Get("/users/check-username/{username}", h.users.CheckUsername)
		r.Post("/users/register", h.users.Register)
		r.With(h.loginLimiter.Handle).Post("/users/login", h.users.Login)
		r.Get("/users/{id}", h.users.Profile)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(h.auth.Handle)

			r.Get("/users/me", h.users.Me)
			r.Post("/users/{id}/follow", h.users.Follow)
			r.Delete("/users/{id}/follow", h.users.Unfollow)
			r.Get("/users/{id}/follow-status", h.users.FollowStatus)

			r.Put("/settings/password", h.users.ChangePassword)
			r.Get("/settings/login-history", h.users.LoginHistory)
			r.Get("/settings/blacklist", h.blacklist.List)
			r.Post("/settings/blacklist/{userId}", h.blacklist.Block)
			r.Delete("/settings/blacklist/{userId}", h.blacklist.Unblock)

			r.Get("/messages/conversations", h.chat.Conversations)
			r.Get("/messages/conversations/{id}/messages", h.chat.Messages)
			r.Post("/messages/send", h.chat.Send)
			r.Get("/messages/unread-counts", h.chat.UnreadCounts)

			r.Post("/upload", h.upload.Upload)

			r.Route("/admin", func(r chi.Router) {
				r.With(myMiddleware.RequireAnyAdmin).Get("/dashboard/stats", h.admin.DashboardStats)

				r.Group(func(r chi.Router) {
					r.Use(myMiddleware.RequireAdmin)
					r.Get("/users", h.admin.ListUsers)
					r.Put("/users/{id}/status", h.admin.SetUserStatus)
				})

				r.Group(func(r chi.Router) {
					r.Use(myMiddleware.RequireSuperAdmin)
					r.Get("/admins", h.admin.ListAdmins)
					r.Post("/admins", h.admin.Promote)
					r.Delete("/admins/{userId}", h.admin.Demote)
					r.Get("/logs", h.admin.Logs)
				})
			})
		})
	})

	return r
}
