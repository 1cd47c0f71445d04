package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
	"github.com/angelmondragon/chatstore-backend/pkg/retry"
)

const (
	defaultBulkDelay       = 100 * time.Millisecond
	defaultDeliveryTimeout = 5 * time.Second
)

// ErrNotApplicable is returned by a channel that does not serve a recipient,
// e.g. the chat-bot for a store. Such deliveries are skipped, not failed.
var ErrNotApplicable = errors.New("channel does not serve recipient")

// Channel delivers an event to a single recipient.
type Channel interface {
	Name() enums.NotificationChannel
	Deliver(ctx context.Context, event Event, recipient Recipient) error
}

// Delivery is the outcome of one channel/recipient pair.
type Delivery struct {
	Channel     enums.NotificationChannel
	RecipientID uuid.UUID
	Attempts    int
	Skipped     bool
	Err         error
}

// Report collects every delivery of one Send.
type Report struct {
	EventID    uuid.UUID
	Deliveries []Delivery
}

// Failed counts deliveries that exhausted their retries.
func (r Report) Failed() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// Delivered counts deliveries that succeeded.
func (r Report) Delivered() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Err == nil && !d.Skipped {
			n++
		}
	}
	return n
}

// DispatcherParams configure a Dispatcher.
type DispatcherParams struct {
	Logger          *logger.Logger
	Metrics         *metrics.NotificationMetrics
	Channels        []Channel
	Policy          retry.Policy
	BulkDelay       time.Duration
	DeliveryTimeout time.Duration
}

// Dispatcher fans events out over its channels. A failing channel never
// affects the others and nothing is returned to the caller as an error.
type Dispatcher struct {
	logg            *logger.Logger
	metrics         *metrics.NotificationMetrics
	channels        map[enums.NotificationChannel]Channel
	policy          retry.Policy
	bulkDelay       time.Duration
	deliveryTimeout time.Duration
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	channels := make(map[enums.NotificationChannel]Channel, len(params.Channels))
	for _, ch := range params.Channels {
		if ch == nil {
			continue
		}
		channels[ch.Name()] = ch
	}
	bulkDelay := params.BulkDelay
	if bulkDelay <= 0 {
		bulkDelay = defaultBulkDelay
	}
	timeout := params.DeliveryTimeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Dispatcher{
		logg:            params.Logger,
		metrics:         params.Metrics,
		channels:        channels,
		policy:          params.Policy.Normalize(),
		bulkDelay:       bulkDelay,
		deliveryTimeout: timeout,
	}, nil
}

// Send delivers event on each requested channel concurrently. Channels that
// are not configured in this process are skipped.
func (d *Dispatcher) Send(ctx context.Context, event Event) Report {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	report := Report{EventID: event.ID}
	ctx = d.logg.WithFields(ctx, map[string]any{
		"event_id": event.ID.String(),
		"category": string(event.Category),
	})

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, name := range uniqueChannels(event.Channels) {
		ch, ok := d.channels[name]
		if !ok {
			d.logg.Debug(d.logg.WithField(ctx, "channel", string(name)), "notification channel not configured; skipping")
			continue
		}
		g.Go(func() error {
			deliveries := make([]Delivery, 0, len(event.Recipients))
			for _, recipient := range event.Recipients {
				deliveries = append(deliveries, d.deliver(ctx, ch, event, recipient))
			}
			mu.Lock()
			report.Deliveries = append(report.Deliveries, deliveries...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// SendWithRetry delivers event to one recipient on ch under policy.
// ErrNotApplicable and retry.Permanent errors end the loop immediately.
func (d *Dispatcher) SendWithRetry(ctx context.Context, ch Channel, event Event, recipient Recipient, policy retry.Policy) retry.Result {
	return retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, d.deliveryTimeout)
		defer cancel()
		err := ch.Deliver(attemptCtx, event, recipient)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotApplicable) {
			return retry.Permanent(err)
		}
		if attempt < policy.Normalize().MaxAttempts && !retry.IsPermanent(err) {
			d.logg.Warn(d.logg.WithFields(ctx, map[string]any{
				"channel": string(ch.Name()),
				"attempt": attempt,
				"error":   err.Error(),
			}), "notification delivery attempt failed; retrying")
		}
		return err
	})
}

// BulkSend delivers the same message to every recipient, one at a time, at
// most one per BulkDelay. A recipient counts as failed when any channel
// failed for it.
func (d *Dispatcher) BulkSend(ctx context.Context, msg BulkMessage, recipients []Recipient) BulkResult {
	limiter := rate.NewLimiter(rate.Every(d.bulkDelay), 1)
	result := BulkResult{}
	for i, recipient := range recipients {
		if err := limiter.Wait(ctx); err != nil {
			result.Failed += len(recipients) - i
			d.logg.Warn(d.logg.WithField(ctx, "remaining", len(recipients)-i), "bulk send interrupted")
			break
		}
		report := d.Send(ctx, msg.event(recipient))
		if report.Failed() > 0 {
			result.Failed++
			continue
		}
		result.Success++
	}
	ctx = d.logg.WithFields(ctx, map[string]any{"success": result.Success, "failed": result.Failed})
	d.logg.Info(ctx, "bulk notification send finished")
	return result
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, event Event, recipient Recipient) Delivery {
	start := time.Now()
	res := d.SendWithRetry(ctx, ch, event, recipient, d.policy)
	delivery := Delivery{Channel: ch.Name(), RecipientID: recipient.ID, Attempts: res.Attempts}

	outcome := metrics.OutcomeDelivered
	switch {
	case res.Err == nil:
	case errors.Is(res.Err, ErrNotApplicable):
		delivery.Skipped = true
		outcome = metrics.OutcomeSkipped
	default:
		delivery.Err = res.Err
		outcome = metrics.OutcomeFailed
		d.logg.Error(d.logg.WithFields(ctx, map[string]any{
			"channel":        string(ch.Name()),
			"recipient_kind": string(recipient.Kind),
			"recipient_id":   recipient.ID.String(),
			"attempt":        res.Attempts,
		}), "notification delivery failed", res.Err)
	}
	d.metrics.ObserveDelivery(string(ch.Name()), outcome, res.Attempts, time.Since(start))
	return delivery
}

func uniqueChannels(channels []enums.NotificationChannel) []enums.NotificationChannel {
	seen := make(map[enums.NotificationChannel]struct{}, len(channels))
	out := make([]enums.NotificationChannel, 0, len(channels))
	for _, ch := range channels {
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}
