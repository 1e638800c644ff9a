package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/userhub/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// RequestHandler adds request-scoped fields to every record logged with a
// context: the span ids and, once authorization has run, the actor's email.
type RequestHandler struct {
	next slog.Handler
}

func NewRequestHandler(next slog.Handler) *RequestHandler {
	return &RequestHandler{next: next}
}

func (h *RequestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RequestHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if actor, ok := actorctx.From(ctx); ok {
		r.AddAttrs(slog.String("actor", actor.Email), slog.String("actor_role", actor.Role.String()))
	}

	return h.next.Handle(ctx, r)
}

func (h *RequestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RequestHandler{next: h.next.WithAttrs(attrs)}
}

func (h *RequestHandler) WithGroup(name string) slog.Handler {
	return &RequestHandler{next: h.next.WithGroup(name)}
}
