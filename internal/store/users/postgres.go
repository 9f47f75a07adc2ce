package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/auth"
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, username, password_hash, nickname, avatar, bio, role, is_active,
		 ban_reason, followers_count, following_count, last_login, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		role      string
		banReason sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.Avatar, &u.Bio, &role,
		&u.IsActive, &banReason, &u.FollowersCount, &u.FollowingCount, &lastLogin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	u.BanReason = banReason.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash, nickname, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, is_active, created_at`

	err := r.db.QueryRowContext(ctx, query, u.Username, u.PasswordHash, u.Nickname, string(u.Role)).
		Scan(&u.ID, &u.IsActive, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperr.ErrUsernameTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *PostgresRepository) Exists(ctx context.Context, id int) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

func (r *PostgresRepository) AddLoginRecord(ctx context.Context, rec *models.LoginRecord) error {
	query :=
		`INSERT INTO login_history (user_id, ip, user_agent, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, rec.UserID, rec.IP, rec.UserAgent, rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LoginHistory(ctx context.Context, userID, limit int) ([]models.LoginRecord, error) {
	query :=
		`SELECT id, user_id, ip, user_agent, created_at FROM login_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	records := []models.LoginRecord{}
	for rows.Next() {
		var rec models.LoginRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.IP, &rec.UserAgent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return records, nil
}

func (r *PostgresRepository) affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) InsertFollow(ctx context.Context, follower, followee int) (bool, error) {
	return r.affected(r.db.ExecContext(ctx,
		`INSERT INTO follows (follower_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		follower, followee))
}

func (r *PostgresRepository) DeleteFollow(ctx context.Context, follower, followee int) (bool, error) {
	return r.affected(r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		follower, followee))
}

func (r *PostgresRepository) IsFollowing(ctx context.Context, follower, followee int) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
		follower, followee)
}

func (r *PostgresRepository) AdjustFollowCounts(ctx context.Context, follower, followee, delta int) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET following_count = GREATEST(following_count + $2, 0) WHERE id = $1`,
		follower, delta); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET followers_count = GREATEST(followers_count + $2, 0) WHERE id = $1`,
		followee, delta); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) collect(rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()
	list := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) List(ctx context.Context, search string, limit, offset int) ([]models.User, int, error) {
	pattern := "%" + search + "%"

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username ILIKE $1 OR nickname ILIKE $1`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE username ILIKE $1 OR nickname ILIKE $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	list, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *PostgresRepository) ListByRoles(ctx context.Context, roles ...auth.Role) ([]models.User, error) {
	if len(roles) == 0 {
		return []models.User{}, nil
	}
	marks := make([]string, len(roles))
	args := make([]any, len(roles))
	for i, role := range roles {
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = string(role)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role IN (`+strings.Join(marks, ", ")+`)
		 ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.collect(rows)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id int, active bool, banReason string) error {
	var reason sql.NullString
	if !active && banReason != "" {
		reason = sql.NullString{String: banReason, Valid: true}
	}
	return r.execOne(ctx, `UPDATE users SET is_active = $2, ban_reason = $3 WHERE id = $1`, id, active, reason)
}

func (r *PostgresRepository) SetRole(ctx context.Context, id int, role auth.Role) error {
	return r.execOne(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
