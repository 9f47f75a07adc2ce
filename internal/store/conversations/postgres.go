package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/goccy/go-json"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) LockPair(ctx context.Context, a, b int) error {
	low, high := OrderedPair(a, b)
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, low, high); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindPrivate(ctx context.Context, a, b int) (int, error) {
	query :=
		`SELECT c.id FROM conversations c
		 JOIN participants pa ON pa.conversation_id = c.id AND pa.user_id = $1
		 JOIN participants pb ON pb.conversation_id = c.id AND pb.user_id = $2
		 WHERE c.type = 'private'
		 ORDER BY c.id
		 LIMIT 1`

	var id int
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a, b int, at time.Time) (*models.Conversation, error) {
	c := &models.Conversation{Type: models.ConversationPrivate, CreatedAt: at, UpdatedAt: at}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO conversations (type, created_at, updated_at) VALUES ($1, $2, $2) RETURNING id`,
		c.Type, at).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO participants (conversation_id, user_id) VALUES ($1, $2), ($1, $3)`,
		c.ID, a, b)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM participants WHERE conversation_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) InsertMessage(ctx context.Context, m *models.Message) error {
	query :=
		`INSERT INTO messages (conversation_id, sender_id, content, type, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`

	var metadata any
	if len(m.Metadata) > 0 {
		metadata = string(m.Metadata)
	}
	err := r.db.QueryRowContext(ctx, query,
		m.ConversationID, m.SenderID, m.Content, m.Type, metadata, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Touch(ctx context.Context, conversationID int, at time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = $2 WHERE id = $1`, conversationID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Messages(ctx context.Context, conversationID, limit, offset int) ([]models.Message, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, content, type, metadata, created_at
		 FROM messages
		 WHERE conversation_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`, conversationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var (
			m        models.Message
			metadata []byte
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &metadata, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		if len(metadata) > 0 {
			m.Metadata = json.RawMessage(metadata)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return msgs, total, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, conversationID, userID int, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE participants SET last_read_at = $3 WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID, at)
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

func (r *PostgresRepository) UnreadCount(ctx context.Context, conversationID, viewerID int) (int, error) {
	query :=
		`SELECT COUNT(m.id) FROM participants p
		 JOIN messages m ON m.conversation_id = p.conversation_id
		 WHERE p.conversation_id = $1 AND p.user_id = $2
		   AND m.sender_id <> $2
		   AND m.created_at > COALESCE(p.last_read_at, 'epoch'::timestamptz)`

	var n int
	if err := r.db.QueryRowContext(ctx, query, conversationID, viewerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) UnreadCounts(ctx context.Context, viewerID int) ([]models.UnreadCount, error) {
	query :=
		`SELECT p.conversation_id, COUNT(m.id) FROM participants p
		 LEFT JOIN messages m ON m.conversation_id = p.conversation_id
		   AND m.sender_id <> p.user_id
		   AND m.created_at > COALESCE(p.last_read_at, 'epoch'::timestamptz)
		 WHERE p.user_id = $1
		 GROUP BY p.conversation_id
		 ORDER BY p.conversation_id`

	rows, err := r.db.QueryContext(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	counts := []models.UnreadCount{}
	for rows.Next() {
		var c models.UnreadCount
		if err := rows.Scan(&c.ConversationID, &c.Unread); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return counts, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, viewerID int) ([]models.ConversationSummary, error) {
	query :=
		`SELECT c.id, c.type, c.updated_at,
		        u.id, u.username, u.nickname, u.avatar,
		        lm.id, lm.sender_id, lm.content, lm.type, lm.created_at,
		        (SELECT COUNT(*) FROM messages m
		          WHERE m.conversation_id = c.id AND m.sender_id <> $1
		            AND m.created_at > COALESCE(me.last_read_at, 'epoch'::timestamptz))
		 FROM participants me
		 JOIN conversations c ON c.id = me.conversation_id
		 LEFT JOIN participants other ON other.conversation_id = c.id AND other.user_id <> $1
		 LEFT JOIN users u ON u.id = other.user_id
		 LEFT JOIN LATERAL (
		     SELECT id, sender_id, content, type, created_at FROM messages
		     WHERE conversation_id = c.id
		     ORDER BY created_at DESC, id DESC
		     LIMIT 1
		 ) lm ON TRUE
		 WHERE me.user_id = $1
		 ORDER BY c.updated_at DESC, c.id DESC`

	rows, err := r.db.QueryContext(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := []models.ConversationSummary{}
	for rows.Next() {
		var (
			s                          models.ConversationSummary
			peerID, msgID, senderID    sql.NullInt64
			username, nickname, avatar sql.NullString
			content, msgType           sql.NullString
			sentAt                     sql.NullTime
		)
		err := rows.Scan(&s.ID, &s.Type, &s.UpdatedAt,
			&peerID, &username, &nickname, &avatar,
			&msgID, &senderID, &content, &msgType, &sentAt,
			&s.UnreadCount)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if peerID.Valid {
			s.OtherUser = &models.Peer{
				ID:       int(peerID.Int64),
				Username: username.String,
				Nickname: nickname.String,
				Avatar:   avatar.String,
			}
		}
		if msgID.Valid {
			s.LastMessage = &models.Message{
				ID:             int(msgID.Int64),
				ConversationID: s.ID,
				SenderID:       int(senderID.Int64),
				Content:        content.String,
				Type:           msgType.String,
				CreatedAt:      sentAt.Time,
			}
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountConversations(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM conversations`)
}

func (r *PostgresRepository) CountMessages(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM messages`)
}
