package telemetry

import (
	"context"

	"github.com/google/uuid"
)

type (
	conversationIDKey struct{}
	turnIDKey         struct{}
)

// NewID returns a random correlation id.
func NewID() string { return uuid.NewString() }

// WithConversationID returns a child context carrying the conversation id.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationIDKey{}, id)
}

// ConversationIDFromContext returns the conversation id from ctx, if present.
func ConversationIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, conversationIDKey{})
}

// WithTurnID returns a child context carrying the turn id.
func WithTurnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, turnIDKey{}, id)
}

// TurnIDFromContext returns the turn id from ctx, if present.
// Returns "", false if the value is missing or empty.
func TurnIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, turnIDKey{})
}

func stringValue(ctx context.Context, key any) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(key).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Fields returns the correlation ids in ctx as event fields.
func Fields(ctx context.Context) map[string]any {
	m := map[string]any{}
	if id, ok := ConversationIDFromContext(ctx); ok {
		m["conversation_id"] = id
	}
	if id, ok := TurnIDFromContext(ctx); ok {
		m["turn_id"] = id
	}
	return m
}
