// Package blacklist implements directed blocking between users. A block from
// A to B stops B from messaging A; it says nothing about A messaging B.
package blacklist

import (
	"context"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/Zhouyi071021/campus-circle/internal/store"
	"github.com/Zhouyi071021/campus-circle/internal/store/blocks"
)

// CanSend is false iff recipient has blocked sender. Callers pass a
// repository bound to their own transaction.
func CanSend(ctx context.Context, repo blocks.Repository, sender, recipient int) (bool, error) {
	blocked, err := repo.Exists(ctx, recipient, sender)
	if err != nil {
		return false, err
	}
	return !blocked, nil
}

type Service struct {
	db    dbx.DBTX
	tx    dbx.TxRunner
	repos store.Manager
	log   logging.Logger
}

func NewService(db dbx.DBTX, tx dbx.TxRunner, repos store.Manager, log logging.Logger) *Service {
	return &Service{db: db, tx: tx, repos: repos, log: log.With("module", "blacklist")}
}

func (s *Service) CanSend(ctx context.Context, sender, recipient int) (bool, error) {
	return CanSend(ctx, s.repos.Blocks(s.db), sender, recipient)
}

// Block adds the edge blocker -> blocked and drops any follow edges between
// the two users, in both directions.
func (s *Service) Block(ctx context.Context, blocker, blocked int) error {
	if blocker == blocked {
		return apperr.ErrSelfBlock
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)

		ok, err := users.Exists(ctx, blocked)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrUserNotFound
		}

		inserted, err := s.repos.Blocks(tx).Insert(ctx, blocker, blocked)
		if err != nil {
			return err
		}
		if !inserted {
			return apperr.ErrAlreadyBlocked
		}

		for _, edge := range [][2]int{{blocker, blocked}, {blocked, blocker}} {
			deleted, err := users.DeleteFollow(ctx, edge[0], edge[1])
			if err != nil {
				return err
			}
			if deleted {
				if err := users.AdjustFollowCounts(ctx, edge[0], edge[1], -1); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "user blocked", "blocker_id", blocker, "blocked_id", blocked)
	return nil
}

func (s *Service) Unblock(ctx context.Context, blocker, blocked int) error {
	deleted, err := s.repos.Blocks(s.db).Delete(ctx, blocker, blocked)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.ErrNotBlocked
	}
	s.log.Info(ctx, "user unblocked", "blocker_id", blocker, "blocked_id", blocked)
	return nil
}

func (s *Service) List(ctx context.Context, blocker int) ([]models.BlockedUser, error) {
	return s.repos.Blocks(s.db).List(ctx, blocker)
}
