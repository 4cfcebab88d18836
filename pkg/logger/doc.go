// Package logger provides a thin factory over log/slog with typed attribute
// helpers shared across the toolkit.
//
// The factory produces loggers configured for either production (JSON, info
// level) or development (text, debug level) without forcing every package to
// repeat handler wiring. Attribute helpers keep log field names consistent
// across packages, which matters once logs land in an aggregation system.
//
// # Usage
//
//	log := logger.New(
//		logger.WithProduction("classkit"),
//		logger.WithAttr(slog.String("version", version)),
//	)
//
//	log.InfoContext(ctx, "notification created",
//		logger.NotificationID(n.ID),
//		logger.RecipientID(n.RecipientID),
//	)
//
// Helpers return an empty slog.Attr for nil values, so callers never need
// nil checks at the call site.
package logger
