// Package mongodb provides the MongoDB-backed implementation of
// notification.Storage.
//
// Every mutation is a single field-scoped update so concurrent callers get
// the store's per-document atomicity; guarded updates (read_at, clicked_at,
// dismissed_at) make first-timestamp-wins idempotency a storage property
// rather than a service convention. Analytics run as one aggregation
// pipeline with $facet to produce totals and distributions in a single
// round trip.
//
// # Usage
//
//	db, err := mongo.ConnectDatabase(ctx, cfg, "classkit")
//	store := mongodb.New(db)
//	if err := store.EnsureIndexes(ctx); err != nil { ... }
//
//	svc, err := notification.NewService(store)
package mongodb
