package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"backend-dtg/internal/telemetry"
	"backend-dtg/internal/trip"
)

// TrackingClient talks to the car-tracking service over HTTP. The client
// timeout caps every call; a timeout is an ordinary delivery failure.
type TrackingClient struct {
	baseURL string
	client  *http.Client
}

func NewTrackingClient(baseURL string, timeout time.Duration) *TrackingClient {
	return &TrackingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *TrackingClient) NotifyTripStarted(ctx context.Context, vehicleID string, req trip.StartRequest) error {
	return c.post(ctx, "/api/v1/tracking/trips/start", req)
}

func (c *TrackingClient) NotifyTripEnded(ctx context.Context, vehicleID string, req trip.EndRequest) error {
	return c.post(ctx, "/api/v1/tracking/trips/end", req)
}

func (c *TrackingClient) SendSample(ctx context.Context, sample telemetry.Sample) error {
	return c.post(ctx, "/api/v1/tracking/data", sample)
}

func (c *TrackingClient) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("tracking service returned %s for %s", resp.Status, path)
	}
	return nil
}
