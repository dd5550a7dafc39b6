// Package logger builds the structured JSON logger used across the service.
//
// Records are written to stdout through log/slog. Request-scoped values are
// injected by context extractors on every call, so a handler only needs the
// request context to get a request id into its output:
//
//	log := logger.New(cfg, func(ctx context.Context) (slog.Attr, bool) {
//		if id, ok := ctx.Value(requestIDKey{}).(string); ok {
//			return slog.String("request_id", id), true
//		}
//		return slog.Attr{}, false
//	})
//
// When Config.SentryDSN is set, warnings and errors are also forwarded to
// Sentry. Errors become issues. An empty DSN or a failed Sentry init falls
// back to stdout only.
package logger
