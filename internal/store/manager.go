// Package store vends repositories bound to a dbx.DBTX, so a service can run
// several of them against one *sql.DB or inside one transaction.
package store

import (
	"github.com/Zhouyi071021/campus-circle/internal/dbx"
	"github.com/Zhouyi071021/campus-circle/internal/store/auditlog"
	"github.com/Zhouyi071021/campus-circle/internal/store/blocks"
	"github.com/Zhouyi071021/campus-circle/internal/store/conversations"
	"github.com/Zhouyi071021/campus-circle/internal/store/posts"
	"github.com/Zhouyi071021/campus-circle/internal/store/users"
)

type Manager interface {
	Users(db dbx.DBTX) users.Repository
	Blocks(db dbx.DBTX) blocks.Repository
	Conversations(db dbx.DBTX) conversations.Repository
	Posts(db dbx.DBTX) posts.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
}
