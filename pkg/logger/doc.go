// Package logger builds *slog.Logger values with functional options and provides attribute
// helpers so that field names stay consistent across the auth core.
//
// New creates a text or JSON handler and wraps it in LogHandlerDecorator, which adds
// attributes carried by the context (WithContextAttrs) and by registered ContextExtractor
// callbacks on every record.
//
// # Usage
//
//	log := logger.New(logger.FromConfig(cfg)...)
//	ctx = logger.WithContextAttrs(ctx, logger.Flow("login"))
//	log.InfoContext(ctx, "flow finished", logger.UserID(user.UUID))
//
// Components accept a logger through their own options and default to Discard.
//
// # Error Handling
//
// Error and Errors return an empty attribute for nil errors, so they can be passed
// unconditionally.
package logger
