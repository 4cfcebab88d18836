package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/classkit/pkg/logger"
	"github.com/dmitrymomot/classkit/pkg/notification"
)

// Dispatcher is the slice of the notification service the worker needs:
// polling for due work, reporting per-channel outcomes, and purging expired
// records. *notification.Service satisfies it.
type Dispatcher interface {
	DuePending(ctx context.Context, limit int) ([]notification.Notification, error)
	UpdateChannelStatus(ctx context.Context, id string, ch notification.Channel, status notification.ChannelStatus, meta notification.DeliveryMeta) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// Worker polls for due notifications and fans each one out to the senders
// registered for its pending channels. One sender failure never blocks the
// other channels of the same notification; the outcome of every attempt is
// written back per channel, and the aggregate status promotion happens in
// the service.
type Worker struct {
	dispatcher Dispatcher
	senders    map[notification.Channel]Sender

	pollInterval  time.Duration
	sweepInterval time.Duration
	batchSize     int
	log           *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a delivery worker over the given dispatcher.
func NewWorker(dispatcher Dispatcher, opts ...WorkerOption) (*Worker, error) {
	if dispatcher == nil {
		return nil, ErrDispatcherNil
	}

	options := &workerOptions{
		pollInterval:  15 * time.Second,
		sweepInterval: time.Hour,
		batchSize:     50,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		dispatcher:    dispatcher,
		senders:       make(map[notification.Channel]Sender),
		pollInterval:  options.pollInterval,
		sweepInterval: options.sweepInterval,
		batchSize:     options.batchSize,
		log:           options.logger,
	}, nil
}

// RegisterSender registers a sender for its channel, replacing any previous
// sender for the same channel.
func (w *Worker) RegisterSender(s Sender) {
	if s == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.senders[s.Channel()] = s
}

// RegisterSenders registers multiple senders.
func (w *Worker) RegisterSenders(senders ...Sender) {
	for _, s := range senders {
		w.RegisterSender(s)
	}
}

// Start begins the poll and sweep loops in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return fmt.Errorf("worker already started")
	}
	if len(w.senders) == 0 {
		return ErrNoSenders
	}

	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.pollLoop(ctx)
	go w.sweepLoop(ctx)

	w.log.InfoContext(ctx, "delivery worker started",
		slog.Duration("poll_interval", w.pollInterval),
		slog.Duration("sweep_interval", w.sweepInterval),
		slog.Int("batch_size", w.batchSize),
	)
	return nil
}

// Stop cancels the loops and waits for in-flight work to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return fmt.Errorf("worker not started")
	}
	cancel()
	w.wg.Wait()
	w.log.Info("delivery worker stopped")
	return nil
}

// Run starts the worker and returns a function suitable for errgroup.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessDue(ctx); err != nil && ctx.Err() == nil {
				w.log.ErrorContext(ctx, "delivery poll failed", logger.Error(err))
			}
		}
	}
}

func (w *Worker) sweepLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.dispatcher.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
				w.log.ErrorContext(ctx, "expired notification sweep failed", logger.Error(err))
			}
		}
	}
}

// ProcessDue runs a single delivery pass: fetch due notifications and deliver
// every pending channel. Exported so deployments can drive delivery from an
// external scheduler instead of Start.
func (w *Worker) ProcessDue(ctx context.Context) error {
	due, err := w.dispatcher.DuePending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list due notifications: %w", err)
	}

	for _, n := range due {
		w.deliver(ctx, n)
	}
	return nil
}

// deliver sends one notification over each of its pending channels and
// reports the outcome per channel.
func (w *Worker) deliver(ctx context.Context, n notification.Notification) {
	for _, ch := range n.PendingChannels() {
		w.mu.Lock()
		sender, ok := w.senders[ch]
		w.mu.Unlock()

		if !ok {
			w.report(ctx, n, ch, notification.ChannelStatusFailed, notification.DeliveryMeta{
				FailureReason: ErrNoSenderRegistered.Error(),
			})
			continue
		}

		start := time.Now()
		trackingID, err := sender.Send(ctx, n)
		if err != nil {
			w.log.WarnContext(ctx, "channel delivery failed",
				logger.NotificationID(n.ID),
				logger.Channel(string(ch)),
				logger.Error(err),
			)
			w.report(ctx, n, ch, notification.ChannelStatusFailed, notification.DeliveryMeta{
				FailureReason: err.Error(),
			})
			continue
		}

		w.log.DebugContext(ctx, "channel delivered",
			logger.NotificationID(n.ID),
			logger.Channel(string(ch)),
			logger.Duration(time.Since(start)),
		)
		w.report(ctx, n, ch, notification.ChannelStatusSent, notification.DeliveryMeta{
			TrackingID: trackingID,
		})
	}
}

func (w *Worker) report(ctx context.Context, n notification.Notification, ch notification.Channel, status notification.ChannelStatus, meta notification.DeliveryMeta) {
	if err := w.dispatcher.UpdateChannelStatus(ctx, n.ID, ch, status, meta); err != nil {
		w.log.ErrorContext(ctx, "failed to record channel outcome",
			logger.NotificationID(n.ID),
			logger.Channel(string(ch)),
			logger.Error(err),
		)
	}
}
