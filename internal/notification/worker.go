// Package notification pushes web push messages to device subscribers when
// a tracked ON session closes.
package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"home-energy-backend/internal/model"
)

// SessionClosed is one completed-session event to be fanned out.
type SessionClosed struct {
	DeviceID        int64
	DurationSeconds int64
	EstimatedCost   *decimal.Decimal // nil when no estimate was possible
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan SessionClosed
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan SessionClosed, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Enabled reports whether push delivery is configured.
func (wp *WorkerPool) Enabled() bool {
	return wp.webpush != nil && wp.webpush.VAPIDPublicKey != "" && wp.webpush.VAPIDPrivateKey != ""
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	if !wp.Enabled() {
		log.Println("Push notifications are not configured; worker pool stays idle.")
		return
	}
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Notification worker %d processing device %d", id, job.DeviceID)
			wp.notifySubscribers(ctx, job)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool. It is a no-op when push is not
// configured, so the poller never blocks on a dead channel.
func (wp *WorkerPool) Dispatch(job SessionClosed) {
	if !wp.Enabled() {
		return
	}
	wp.jobs <- job
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan SessionClosed {
	return wp.jobs
}

// notifySubscribers fetches subscriptions for the device and sends the
// session summary to each of them.
func (wp *WorkerPool) notifySubscribers(ctx context.Context, job SessionClosed) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_device_mapping sdm ON sdm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sdm.device_id = ?", job.DeviceID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for device %d: %v", job.DeviceID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	deviceLabel := fmt.Sprintf("%d", job.DeviceID)
	var device model.Device
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&device, job.DeviceID).Error; err != nil {
		log.Printf("Error fetching device %d: %v", job.DeviceID, err)
	} else if device.Name != "" {
		deviceLabel = device.Name
	}

	duration := (time.Duration(job.DurationSeconds) * time.Second).String()
	message := fmt.Sprintf("%s was on for %s.", deviceLabel, duration)
	if job.EstimatedCost != nil {
		message = fmt.Sprintf("%s was on for %s, costing about %s.", deviceLabel, duration, job.EstimatedCost.StringFixed(2))
	}

	log.Printf("Sending %d notifications for device %d", len(subscriptions), job.DeviceID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
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
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
