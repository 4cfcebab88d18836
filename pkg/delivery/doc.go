// Package delivery turns persisted notifications into outbound sends.
//
// A Worker polls the notification service for pending records whose send
// time has arrived and fans each one out to the Sender registered for every
// pending channel. Channel outcomes are reported back individually, so one
// failing channel never blocks the others, and the service's promotion rules
// decide when the aggregate record counts as sent.
//
// The package ships senders for three channels: EmailSender (Postmark),
// WebhookSender (signed HTTP POST) and InAppSender (in-memory broadcast to
// live consumers). Channels without a registered sender fail with a
// recorded reason instead of sitting pending forever.
//
// # Usage
//
//	worker, err := delivery.NewWorker(svc,
//		delivery.WithPollInterval(10*time.Second),
//		delivery.WithBatchSize(100),
//	)
//	if err != nil { ... }
//
//	worker.RegisterSenders(
//		delivery.MustNewEmailSender(emailCfg, users),
//		inApp,
//	)
//
//	if err := worker.Start(ctx); err != nil { ... }
//	defer worker.Stop()
package delivery
