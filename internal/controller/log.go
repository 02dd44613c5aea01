package controller

import (
	"context"
	"log"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID tags ctx so log lines written while handling it carry the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the ID stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func logWarn(ctx context.Context, format string, v ...any) {
	if id := RequestID(ctx); id != "" {
		log.Printf("[WARN] [request_id=%s] "+format, append([]any{id}, v...)...)
		return
	}
	log.Printf("[WARN] "+format, v...)
}
