package store

import (
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/store/auditlog"
	"github.com/Zhouyi071021/campus-circle/internal/store/blocks"
	"github.com/Zhouyi071021/campus-circle/internal/store/conversations"
	"github.com/Zhouyi071021/campus-circle/internal/store/posts"
	"github.com/Zhouyi071021/campus-circle/internal/store/users"
)

// PostgresManager vends the PostgreSQL repositories.
type PostgresManager struct{}

func NewPostgresManager() *PostgresManager {
	return &PostgresManager{}
}

func (m *PostgresManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresManager) Blocks(db dbx.DBTX) blocks.Repository {
	return blocks.NewPostgresRepository(db)
}

func (m *PostgresManager) Conversations(db dbx.DBTX) conversations.Repository {
	return conversations.NewPostgresRepository(db)
}

func (m *PostgresManager) Posts(db dbx.DBTX) posts.Repository {
	return posts.NewPostgresRepository(db)
}

func (m *PostgresManager) AuditLog(db dbx.DBTX) auditlog.Repository {
	return auditlog.NewPostgresRepository(db)
}
