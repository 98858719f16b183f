package logging

import (
	"context"

	"github.com/amirphl/orochi-partners/utils"
	"github.com/rs/zerolog"
)

// Ctx returns the global logger enriched with the request id, user id and
// workspace id carried by ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if ctx == nil {
		return &l
	}

	lc := l.With()
	if v, ok := ctx.Value(utils.RequestIDKey).(string); ok && v != "" {
		lc = lc.Str("request_id", v)
	}
	if v, ok := ctx.Value(utils.UserIDKey).(uint); ok && v != 0 {
		lc = lc.Uint("user_id", v)
	}
	if v, ok := ctx.Value(utils.WorkspaceKey).(uint); ok && v != 0 {
		lc = lc.Uint("workspace_id", v)
	}
	if v, ok := ctx.Value(utils.EndpointKey).(string); ok && v != "" {
		lc = lc.Str("endpoint", v)
	}

	out := lc.Logger()
	return &out
}
