package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"companion-booking-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the slice of persistence the workers need.
type SubscriptionStore interface {
	SubscriptionsForUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Payload is the JSON body delivered to the browser service worker.
type Payload struct {
	Type          EventType `json:"type"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Message       string    `json:"message"`
}

// WorkerPool fans lifecycle events out to web push subscribers and the broker.
type WorkerPool struct {
	size      int
	jobs      chan Event
	store     SubscriptionStore
	webpush   *webpush.Options
	sender    NotificationSender
	publisher Publisher // nil disables broker publishing
}

// NewWorkerPool creates a new worker pool. queueSize bounds the number of pending events.
func NewWorkerPool(size, queueSize int, store SubscriptionStore, webpushOptions *webpush.Options, publisher Publisher) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = size
	}
	return &WorkerPool{
		size:      size,
		jobs:      make(chan Event, queueSize),
		store:     store,
		webpush:   webpushOptions,
		sender:    &WebPushSender{},
		publisher: publisher,
	}
}

// Start launches the worker goroutines. They stop when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case ev := <-wp.jobs:
			wp.handle(ctx, ev)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues an event without blocking. Events are dropped when the queue is full.
func (wp *WorkerPool) Dispatch(ev Event) {
	select {
	case wp.jobs <- ev:
	default:
		log.Warn().Str("event_id", ev.ID.String()).Str("type", string(ev.Type)).
			Str("reservation_id", ev.ReservationID.String()).Msg("notification queue full, dropping event")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}

func (wp *WorkerPool) handle(ctx context.Context, ev Event) {
	logger := log.With().Str("event_id", ev.ID.String()).Str("type", string(ev.Type)).
		Str("reservation_id", ev.ReservationID.String()).Logger()

	if wp.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := wp.publisher.Publish(pubCtx, ev); err != nil {
			logger.Error().Err(err).Msg("failed to publish event")
		}
		cancel()
	}

	if wp.webpush == nil || wp.webpush.VAPIDPrivateKey == "" {
		return
	}

	payload, err := json.Marshal(Payload{Type: ev.Type, ReservationID: ev.ReservationID, Message: ev.Message()})
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode push payload")
		return
	}

	for _, userID := range ev.Recipients() {
		subs, err := wp.store.SubscriptionsForUser(ctx, userID)
		if err != nil {
			logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to fetch subscriptions")
			continue
		}
		for _, sub := range subs {
			wp.sendNotification(ctx, sub, payload)
		}
	}
}

// sendNotification sends a single web push notification and drops expired subscriptions.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("error sending notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
