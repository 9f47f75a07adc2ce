// Package admin backs the management console: dashboard counters, user
// moderation, admin role assignment and the admin action log.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/Zhouyi071021/campus-circle/internal/store"
	"github.com/Zhouyi071021/campus-circle/internal/store/users"
)

type Service struct {
	db    dbx.DBTX
	tx    dbx.TxRunner
	repos store.Manager
	log   logging.Logger
	now   func() time.Time
}

func NewService(db dbx.DBTX, tx dbx.TxRunner, repos store.Manager, log logging.Logger) *Service {
	return &Service{
		db:    db,
		tx:    tx,
		repos: repos,
		log:   log.With("module", "admin"),
		now:   time.Now,
	}
}

func (s *Service) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var (
		stats models.DashboardStats
		err   error
	)
	if stats.Users, err = s.repos.Users(s.db).Count(ctx); err != nil {
		return nil, err
	}
	if stats.Posts, err = s.repos.Posts(s.db).Count(ctx); err != nil {
		return nil, err
	}
	convs := s.repos.Conversations(s.db)
	if stats.Messages, err = convs.CountMessages(ctx); err != nil {
		return nil, err
	}
	if stats.Conversations, err = convs.CountConversations(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListUsers pages through accounts, newest first, optionally filtered by a
// username or nickname substring.
func (s *Service) ListUsers(ctx context.Context, search string, page, pageSize int) (*UserPage, error) {
	list, total, err := s.repos.Users(s.db).List(ctx, search, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &UserPage{Users: list, Total: total, Page: page, PageSize: pageSize}, nil
}

// SetUserStatus bans or reinstates a user. Super admins cannot be touched
// from here.
func (s *Service) SetUserStatus(ctx context.Context, actor auth.Identity, targetID int, req *StatusRequest) error {
	active := *req.IsActive
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		target, err := lookup(ctx, repo, targetID)
		if err != nil {
			return err
		}
		if target.Role.IsSuperAdmin() {
			return apperr.ErrProtectedAccount
		}

		if err := repo.SetStatus(ctx, targetID, active, req.BanReason); err != nil {
			return err
		}

		detail := "activated"
		if !active {
			detail = "banned"
			if req.BanReason != "" {
				detail += ": " + req.BanReason
			}
		}
		return s.record(ctx, tx, actor, ActionSetStatus, targetID, detail)
	})
}

func (s *Service) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.repos.Users(s.db).ListByRoles(ctx, auth.RoleAdmin, auth.RoleSuperAdmin)
}

// Promote grants admin or super_admin. Tokens already issued to the target
// keep their old role until the next login.
func (s *Service) Promote(ctx context.Context, actor auth.Identity, req *PromoteRequest) (*models.User, error) {
	role, err := auth.ParseRole(req.Role)
	if err != nil || !role.IsAdmin() {
		return nil, apperr.ErrInvalidRole
	}

	var promoted *models.User
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		target, err := lookup(ctx, repo, req.UserID)
		if err != nil {
			return err
		}
		if err := repo.SetRole(ctx, target.ID, role); err != nil {
			return err
		}
		target.Role = role
		promoted = target

		return s.record(ctx, tx, actor, ActionPromote, target.ID, fmt.Sprintf("role set to %s", role))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user promoted", "admin_id", actor.SubjectID, "user_id", req.UserID, "role", role)
	return promoted, nil
}

// Demote returns an admin to the user role.
func (s *Service) Demote(ctx context.Context, actor auth.Identity, targetID int) error {
	if targetID == actor.SubjectID {
		return apperr.ErrSelfDemote
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		target, err := lookup(ctx, repo, targetID)
		if err != nil {
			return err
		}
		if !target.Role.IsAdmin() {
			return apperr.ErrNotAdmin
		}
		if err := repo.SetRole(ctx, targetID, auth.RoleUser); err != nil {
			return err
		}
		return s.record(ctx, tx, actor, ActionDemote, targetID, fmt.Sprintf("role %s revoked", target.Role))
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "admin demoted", "admin_id", actor.SubjectID, "user_id", targetID)
	return nil
}

func (s *Service) Logs(ctx context.Context, page, pageSize int) (*LogPage, error) {
	logs, total, err := s.repos.AuditLog(s.db).List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &LogPage{Logs: logs, Total: total, Page: page, PageSize: pageSize}, nil
}

func lookup(ctx context.Context, repo users.Repository, id int) (*models.User, error) {
	u, err := repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	return u, err
}

func (s *Service) record(ctx context.Context, tx dbx.DBTX, actor auth.Identity, action string, targetID int, detail string) error {
	return s.repos.AuditLog(tx).Insert(ctx, &models.AdminLog{
		AdminID:    actor.SubjectID,
		Action:     action,
		TargetType: targetUser,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  s.now(),
	})
}
