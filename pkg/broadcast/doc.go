// Package broadcast provides a generic in-memory publish/subscribe hub.
//
// Topics are plain strings; the in-app notification channel uses one topic
// per recipient so a realtime consumer (SSE, websocket) only sees its own
// messages. Delivery is best-effort: sends never block the publisher, and a
// subscriber whose buffer is full simply misses the message. Storage remains
// the source of truth, so missed realtime messages are recovered on the next
// list query.
//
// # Usage
//
//	hub := broadcast.NewHub[notification.Notification](16)
//	defer hub.Close()
//
//	sub, err := hub.Subscribe(ctx, recipientID)
//	if err != nil { ... }
//	defer sub.Close()
//
//	for msg := range sub.Receive() {
//		render(msg.Data)
//	}
package broadcast
