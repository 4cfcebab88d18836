// Package rediscache provides a Redis-backed unread-count cache for the
// notification service.
//
// Unread badges are read on nearly every page load while the underlying
// count changes rarely, so a short-TTL read-through cache in front of the
// store's count query removes most of that load. The service invalidates
// the entry on every mutation that can change the count; the TTL covers any
// invalidation that gets lost.
package rediscache
