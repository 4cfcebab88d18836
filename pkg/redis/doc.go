// Package redis provides Redis connection management for the toolkit.
//
// Like the mongo package, configuration is environment-driven and connection
// attempts are retried to ride out transient failures during startup. The
// returned *redis.Client is the raw go-redis client; higher-level concerns
// such as caching live next to the code that needs them (see
// notification/rediscache).
package redis
