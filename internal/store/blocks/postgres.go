package blocks

import (
	"context"
	"fmt"

	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, blocker, blocked int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM blacklist WHERE blocker_id = $1 AND blocked_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, blocker, blocked).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, blocker, blocked int) (bool, error) {
	query := `INSERT INTO blacklist (blocker_id, blocked_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, blocker, blocked)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, blocker, blocked int) (bool, error) {
	query := `DELETE FROM blacklist WHERE blocker_id = $1 AND blocked_id = $2`

	res, err := r.db.ExecContext(ctx, query, blocker, blocked)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) List(ctx context.Context, blocker int) ([]models.BlockedUser, error) {
	query :=
		`SELECT u.id, u.username, u.nickname, u.avatar, b.created_at
		 FROM blacklist b
		 JOIN users u ON u.id = b.blocked_id
		 WHERE b.blocker_id = $1
		 ORDER BY b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, blocker)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := []models.BlockedUser{}
	for rows.Next() {
		var b models.BlockedUser
		if err := rows.Scan(&b.UserID, &b.Username, &b.Nickname, &b.Avatar, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}
