// Package user covers accounts: registration, login, profiles, password
// changes and the follow graph.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/Zhouyi071021/campus-circle/internal/store"
)

// LoginHistoryLimit is how many login records a user can look back on.
const LoginHistoryLimit = 50

type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

type Service struct {
	db     dbx.DBTX
	tx     dbx.TxRunner
	repos  store.Manager
	hasher *auth.Hasher
	tokens TokenIssuer
	log    logging.Logger
	now    func() time.Time
}

func NewService(db dbx.DBTX, tx dbx.TxRunner, repos store.Manager, hasher *auth.Hasher, tokens TokenIssuer, log logging.Logger) *Service {
	return &Service{
		db:     db,
		tx:     tx,
		repos:  repos,
		hasher: hasher,
		tokens: tokens,
		log:    log.With("module", "user"),
		now:    time.Now,
	}
}

func (s *Service) CheckUsername(ctx context.Context, username string) (bool, error) {
	return s.repos.Users(s.db).UsernameExists(ctx, username)
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	users := s.repos.Users(s.db)

	taken, err := users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.ErrUsernameTaken
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u, err := users.Create(ctx, &models.User{
		Username:     req.Username,
		PasswordHash: digest,
		Nickname:     req.Username,
		Role:         auth.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return &AuthResponse{User: u, Token: token}, nil
}

// Login answers ErrInvalidCredentials for both an unknown username and a
// wrong password.
func (s *Service) Login(ctx context.Context, req *LoginRequest, meta LoginMeta) (*AuthResponse, error) {
	u, err := s.repos.Users(s.db).GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		s.log.Info(ctx, "login rejected", "user_id", u.ID)
		return nil, apperr.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, apperr.ErrAccountDisabled
	}

	at := s.now()
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)
		if err := users.TouchLastLogin(ctx, u.ID, at); err != nil {
			return err
		}
		return users.AddLoginRecord(ctx, &models.LoginRecord{
			UserID:    u.ID,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			CreatedAt: at,
		})
	})
	if err != nil {
		return nil, err
	}
	u.LastLogin = &at

	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info(ctx, "user logged in", "user_id", u.ID)
	return &AuthResponse{User: u, Token: token}, nil
}

func (s *Service) getUser(ctx context.Context, id int) (*models.User, error) {
	u, err := s.repos.Users(s.db).GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	return u, err
}

// Me returns the caller's own record, read fresh from the store.
func (s *Service) Me(ctx context.Context, id int) (*models.User, error) {
	return s.getUser(ctx, id)
}

func (s *Service) Profile(ctx context.Context, id int) (*models.PublicUser, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Public()
	return &p, nil
}

func (s *Service) ChangePassword(ctx context.Context, id int, req *ChangePasswordRequest) error {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(req.OldPassword, u.PasswordHash) {
		return apperr.ErrWrongPassword
	}

	digest, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.repos.Users(s.db).UpdatePassword(ctx, id, digest); err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "user_id", id)
	return nil
}

func (s *Service) LoginHistory(ctx context.Context, id int) ([]models.LoginRecord, error) {
	return s.repos.Users(s.db).LoginHistory(ctx, id, LoginHistoryLimit)
}

func (s *Service) Follow(ctx context.Context, follower, followee int) error {
	if follower == followee {
		return apperr.ErrSelfFollow
	}

	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)

		ok, err := users.Exists(ctx, followee)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrUserNotFound
		}

		blocked, err := s.repos.Blocks(tx).Exists(ctx, followee, follower)
		if err != nil {
			return err
		}
		if blocked {
			return apperr.ErrBlockedByUser
		}

		inserted, err := users.InsertFollow(ctx, follower, followee)
		if err != nil {
			return err
		}
		if !inserted {
			return apperr.ErrAlreadyFollowing
		}
		return users.AdjustFollowCounts(ctx, follower, followee, 1)
	})
}

func (s *Service) Unfollow(ctx context.Context, follower, followee int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)

		deleted, err := users.DeleteFollow(ctx, follower, followee)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.ErrNotFollowing
		}
		return users.AdjustFollowCounts(ctx, follower, followee, -1)
	})
}

func (s *Service) IsFollowing(ctx context.Context, follower, followee int) (bool, error) {
	return s.repos.Users(s.db).IsFollowing(ctx, follower, followee)
}
