// Package users stores accounts, follow edges and login history.
package users

import (
	"context"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/models"
)

type Repository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Exists(ctx context.Context, id int) (bool, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
	TouchLastLogin(ctx context.Context, id int, at time.Time) error
	AddLoginRecord(ctx context.Context, rec *models.LoginRecord) error
	LoginHistory(ctx context.Context, userID, limit int) ([]models.LoginRecord, error)

	// InsertFollow reports false when the edge already existed.
	InsertFollow(ctx context.Context, follower, followee int) (bool, error)
	// DeleteFollow reports false when there was no edge.
	DeleteFollow(ctx context.Context, follower, followee int) (bool, error)
	IsFollowing(ctx context.Context, follower, followee int) (bool, error)
	// AdjustFollowCounts adds delta to follower's following_count and
	// followee's followers_count.
	AdjustFollowCounts(ctx context.Context, follower, followee, delta int) error

	List(ctx context.Context, search string, limit, offset int) ([]models.User, int, error)
	ListByRoles(ctx context.Context, roles ...auth.Role) ([]models.User, error)
	SetStatus(ctx context.Context, id int, active bool, banReason string) error
	SetRole(ctx context.Context, id int, role auth.Role) error
	Count(ctx context.Context) (int, error)
}
