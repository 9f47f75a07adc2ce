// Package blocks stores directed blacklist edges (blocker -> blocked).
package blocks

import (
	"context"

	"github.com/Zhouyi071021/campus-circle/internal/models"
)

type Repository interface {
	Exists(ctx context.Context, blocker, blocked int) (bool, error)
	// Insert reports false when the edge already existed.
	Insert(ctx context.Context, blocker, blocked int) (bool, error)
	// Delete reports false when there was no edge.
	Delete(ctx context.Context, blocker, blocked int) (bool, error)
	List(ctx context.Context, blocker int) ([]models.BlockedUser, error)
}
