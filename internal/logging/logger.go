// Package logging defines the structured logger used across the backend.
// Call sites pass key/value pairs:
//
//	log.Info(ctx, "message sent", "conversation_id", id, "sender_id", sender)
package logging

import "context"

type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
