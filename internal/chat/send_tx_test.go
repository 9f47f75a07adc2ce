package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/Zhouyi071021/campus-circle/internal/models"
	"github.com/Zhouyi071021/campus-circle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qBlocked    = `SELECT\s+EXISTS\(SELECT 1 FROM blacklist WHERE blocker_id = \$1 AND blocked_id = \$2\)`
	qUserExists = `SELECT\s+EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`
	qLockPair   = `SELECT\s+pg_advisory_xact_lock\(\$1,\s*\$2\)`
	qFind       = `(?s)SELECT\s+c\.id\s+FROM\s+conversations\s+c.*WHERE\s+c\.type\s*=\s*'private'`
	qNewConv    = `INSERT INTO conversations \(type, created_at, updated_at\)`
	qNewMembers = `INSERT INTO participants \(conversation_id, user_id\)`
	qNewMessage = `INSERT INTO messages \(conversation_id, sender_id, content, type, metadata, created_at\)`
	qTouch      = `UPDATE conversations SET updated_at = \$2 WHERE id = \$1`
)

// newSQLService drives the real repositories and transaction runner against
// sqlmock, so statement order inside the send transaction is asserted.
func newSQLService(t *testing.T) (*Service, sqlmock.Sqlmock, time.Time) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	at := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	svc := NewService(db, dbx.NewTxRunner(db), store.NewPostgresManager(), logging.Nop{})
	svc.now = func() time.Time { return at }
	return svc, mock, at
}

// expectChecks queues the blacklist and receiver lookups for 5 -> 2.
func expectChecks(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(qBlocked).WithArgs(2, 5).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(qUserExists).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
}

func TestSend_FirstContactLocksBeforeLookup(t *testing.T) {
	svc, mock, at := newSQLService(t)

	mock.ExpectBegin()
	expectChecks(mock)
	mock.ExpectExec(qLockPair).WithArgs(2, 5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(qFind).WithArgs(5, 2).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(qNewConv).WithArgs(models.ConversationPrivate, at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(qNewMembers).WithArgs(7, 5, 2).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(qNewMessage).WithArgs(7, 5, "hi", models.MessageText, sqlmock.AnyArg(), at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectExec(qTouch).WithArgs(7, at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg, err := svc.Send(context.Background(), 5, &SendRequest{ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 31, msg.ID)
	assert.Equal(t, 7, msg.ConversationID)
	assert.True(t, at.Equal(msg.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSend_ExistingConversationSkipsCreate(t *testing.T) {
	svc, mock, at := newSQLService(t)

	mock.ExpectBegin()
	expectChecks(mock)
	mock.ExpectExec(qLockPair).WithArgs(2, 5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(qFind).WithArgs(5, 2).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(qNewMessage).WithArgs(7, 5, "again", models.MessageText, sqlmock.AnyArg(), at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(32))
	mock.ExpectExec(qTouch).WithArgs(7, at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg, err := svc.Send(context.Background(), 5, &SendRequest{ReceiverID: 2, Content: "again"})
	require.NoError(t, err)
	assert.Equal(t, 7, msg.ConversationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSend_FailedInsertRollsBackNewConversation(t *testing.T) {
	svc, mock, at := newSQLService(t)

	mock.ExpectBegin()
	expectChecks(mock)
	mock.ExpectExec(qLockPair).WithArgs(2, 5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(qFind).WithArgs(5, 2).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(qNewConv).WithArgs(models.ConversationPrivate, at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(qNewMembers).WithArgs(7, 5, 2).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(qNewMessage).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Send(context.Background(), 5, &SendRequest{ReceiverID: 2, Content: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSend_BlockedRollsBackBeforeLocking(t *testing.T) {
	svc, mock, _ := newSQLService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qBlocked).WithArgs(2, 5).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.Send(context.Background(), 5, &SendRequest{ReceiverID: 2, Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrBlocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
