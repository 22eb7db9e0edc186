// Package correlation carries the per-request correlation identifier through
// context so that every layer can stamp it on its log lines.
package correlation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

type key struct{}

// WithID returns a child context carrying id. Blank ids leave ctx untouched.
func WithID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, key{}, id)
}

// ID returns the identifier stored by WithID, or "".
func ID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(key{}).(string)
	return id
}

// Logger derives a child of base tagged with the context's correlation id.
func Logger(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	logger := base
	if id := ID(ctx); id != "" {
		logger = base.With().Str("correlation_id", id).Logger()
	}
	return &logger
}
