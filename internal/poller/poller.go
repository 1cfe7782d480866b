// Package poller drives the periodic telemetry ingestion cycle.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"home-energy-backend/config"
	"home-energy-backend/internal/billing"
	"home-energy-backend/internal/model"
	"home-energy-backend/internal/notification"
	"home-energy-backend/internal/session"
	"home-energy-backend/internal/store"
	"home-energy-backend/internal/telemetry"
)

// Service orchestrates polling the telemetry source and persisting the
// normalized results.
type Service struct {
	cfg        *config.Config
	store      store.Store
	aggregator *billing.Aggregator
	client     *http.Client
	workerPool *notification.WorkerPool
}

// NewService creates and initializes a new poller service.
func NewService(cfg *config.Config, st store.Store, aggregator *billing.Aggregator) *Service {
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, st.DB(), &webpushOptions)

	return &Service{
		cfg:        cfg,
		store:      st,
		aggregator: aggregator,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		workerPool: workerPool,
	}
}

// Run starts the polling loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Poller.Enabled {
		log.Println("Poller is disabled. Not starting.")
		return
	}
	log.Println("Starting telemetry poller...")

	s.workerPool.Start(ctx)

	s.SyncOnce(ctx)

	timer := time.NewTimer(s.cfg.Poller.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Telemetry poller shutting down.")
			return
		case <-timer.C:
			s.SyncOnce(ctx)
			timer.Reset(s.cfg.Poller.Interval)
		}
	}
}

// SyncOnce performs a single ingestion cycle: fetch all devices from the
// telemetry source and process each one independently. One device's bad
// payload never aborts the cycle for the rest.
func (s *Service) SyncOnce(ctx context.Context) {
	log.Println("Executing ingestion cycle...")
	now := time.Now().UTC()

	var allItems []ApiDevice
	total := 1
	pageSize := s.cfg.Poller.Request.PageSize
	var fetchErr error
	for page := 1; (page-1)*pageSize < total; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			log.Printf("Error fetching page %d: %v", page, err)
			fetchErr = err
			break
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		allItems = append(allItems, resp.Data.Items...)
	}

	if fetchErr != nil && len(allItems) == 0 {
		log.Println("Ingestion cycle aborted: fetch failed with no devices retrieved.")
		return
	}

	processed := 0
	for _, item := range allItems {
		if err := s.processDevice(ctx, item, now); err != nil {
			log.Printf("Error processing device %q: %v", item.ID, err)
			continue
		}
		processed++
	}

	log.Printf("Ingestion cycle finished: %d/%d devices processed.", processed, len(allItems))
}

// processDevice upserts the device snapshot, appends a measurement for
// metered devices and advances session tracking for switch-reporting ones.
func (s *Service) processDevice(ctx context.Context, item ApiDevice, now time.Time) error {
	if item.ID == "" {
		return errors.New("device has no id")
	}

	device, err := s.store.FindDeviceByExternalID(ctx, item.ID)
	if errors.Is(err, store.ErrNotFound) {
		device = &model.Device{ExternalID: item.ID}
	} else if err != nil {
		return err
	}

	device.Name = item.Name
	device.Category = item.Category
	device.Model = item.Model
	device.IP = item.IP
	device.Online = item.Online
	device.LastSeenAt = &now

	sample := telemetry.Parse(item.Status, s.cfg.Poller.PowerDivisorFor(item.Model))
	if sample.PowerW != nil {
		device.LastPowerW = sample.PowerW
	}
	if sample.VoltageV != nil {
		device.LastVoltageV = sample.VoltageV
	}
	if sample.CurrentMA != nil {
		device.LastCurrentMA = sample.CurrentMA
	}
	if sample.EnergyKWh != nil {
		device.LastEnergyKWh = sample.EnergyKWh
	}

	if err := s.store.SaveDevice(ctx, device); err != nil {
		return err
	}

	metered := s.cfg.Poller.IsMetered(item.Category)

	if metered && hasReading(sample) {
		m := &model.EnergyMeasurement{
			DeviceID:   device.ID,
			MeasuredAt: now,
			EnergyKWh:  sample.EnergyKWh,
			PowerW:     sample.PowerW,
			VoltageV:   sample.VoltageV,
			CurrentMA:  sample.CurrentMA,
		}
		if err := s.store.InsertMeasurement(ctx, m); err != nil {
			return err
		}
	}

	// Anything that reports a switch and is not billed via its counter is
	// session-tracked.
	if sample.SwitchOn != nil && !metered {
		usage, err := s.store.ApplySwitchObservation(ctx, device.ID, session.Observation{
			SwitchOn: *sample.SwitchOn,
			Online:   item.Online,
			At:       now,
		})
		if err != nil {
			return err
		}
		if usage != nil {
			s.dispatchSessionClosed(ctx, device.ID, usage)
		}
	}

	return nil
}

// dispatchSessionClosed hands a completed session to the notification pool,
// attaching a cost estimate when one can be computed.
func (s *Service) dispatchSessionClosed(ctx context.Context, deviceID int64, usage *model.LightingUsage) {
	job := notification.SessionClosed{
		DeviceID:        deviceID,
		DurationSeconds: usage.DurationSeconds,
	}

	hours := float64(usage.DurationSeconds) / 3600.0
	if hours > 0 {
		if est, err := s.aggregator.EstimateOverHours(ctx, deviceID, hours); err == nil {
			cost := est.Cost.Cost
			job.EstimatedCost = &cost
		}
	}

	s.workerPool.Dispatch(job)
}

func hasReading(sample telemetry.Sample) bool {
	return sample.EnergyKWh != nil || sample.PowerW != nil ||
		sample.VoltageV != nil || sample.CurrentMA != nil
}

// fetchPage fetches a single page of device data from the telemetry source.
func (s *Service) fetchPage(ctx context.Context, page int) (*ApiResponse, error) {
	payload := make(map[string]any)
	for k, v := range s.cfg.Poller.Request.Payload {
		payload[k] = v
	}
	payload["page"] = page

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Poller.Request.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range s.cfg.Poller.Request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp ApiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}

	if apiResp.Code != 0 {
		return nil, fmt.Errorf("API returned non-zero application code: %d", apiResp.Code)
	}

	return &apiResp, nil
}
