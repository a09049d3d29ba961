// Package veriscan implements the live HTTP adapter for the Veriscan
// document verification API.
//
// A submission is four ordered exchanges: create instance, upload front,
// upload back, fetch results. Each exchange depends on the instance id from
// the first, so the chain is strictly sequential and short-circuits on the
// first failed step, returning that step's response unchanged. When
// biometric comparison is requested the selfie upload is the last exchange
// and runs only after the result fetch succeeded.
package veriscan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"docauth/internal/platform/config"
	"docauth/internal/verify/metrics"
	"docauth/internal/verify/models"
	"docauth/internal/verify/vendorpkg"
)

// Client is the live Dispatcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiKey     string
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient overrides the underlying HTTP client (tests use
// httptest-backed clients).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics enables per-exchange latency recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a live vendor client from configuration.
func New(cfg config.VendorConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("vendor base URL is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{},
		baseURL:    cfg.BaseURL,
		accountID:  cfg.AccountID,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type createInstanceRequest struct {
	Reference string `json:"reference"`
	Source    string `json:"source"`
	Biometric bool   `json:"biometric"`
	Routing   string `json:"routing,omitempty"`
}

type createInstanceResponse struct {
	InstanceID string `json:"instance_id"`
}

// Submit implements vendor.Dispatcher.
func (c *Client) Submit(ctx context.Context, req *vendor.Request) (*vendor.RawResponse, error) {
	instanceID, failed, err := c.createInstance(ctx, req)
	if err != nil {
		return nil, err
	}
	if failed != nil {
		return failed, nil
	}

	for _, side := range []struct {
		name  string
		image *models.Image
	}{
		{"front", req.Front},
		{"back", req.Back},
	} {
		failed, err = c.uploadSide(ctx, instanceID, side.name, side.image)
		if err != nil {
			return nil, err
		}
		if failed != nil {
			return failed, nil
		}
	}

	resp, err := c.FetchResult(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, nil
	}

	if req.BiometricComparison && req.Selfie != nil {
		// The selfie endpoint answers with the updated results document.
		return c.uploadSelfie(ctx, instanceID, req.Selfie)
	}
	return resp, nil
}

// FetchResult implements vendor.Dispatcher.
func (c *Client) FetchResult(ctx context.Context, instanceID string) (*vendor.RawResponse, error) {
	return c.exchange(ctx, "fetch_results", http.MethodGet,
		fmt.Sprintf("%s/instances/%s/results", c.baseURL, instanceID), nil, "")
}

// createInstance opens a vendor session. Returns the instance id on success,
// or the unchanged failure response when the vendor declined.
func (c *Client) createInstance(ctx context.Context, req *vendor.Request) (string, *vendor.RawResponse, error) {
	body, err := json.Marshal(createInstanceRequest{
		Reference: req.CorrelationID,
		Source:    string(req.Source),
		Biometric: req.BiometricComparison,
		Routing:   req.RoutingHint,
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshal create instance request: %w", err)
	}

	raw, status, err := c.do(ctx, "create_instance", http.MethodPost,
		c.baseURL+"/instances", bytes.NewReader(body), "application/json")
	if err != nil {
		return "", nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", &vendor.RawResponse{HTTPStatus: status, Body: raw}, nil
	}

	var created createInstanceResponse
	if err := json.Unmarshal(raw, &created); err != nil || created.InstanceID == "" {
		return "", nil, &vendor.NetworkError{Op: "create_instance", Err: fmt.Errorf("malformed instance response: %w", err)}
	}
	return created.InstanceID, nil, nil
}

func (c *Client) uploadSide(ctx context.Context, instanceID, side string, image *models.Image) (*vendor.RawResponse, error) {
	if image == nil {
		return nil, &vendor.NetworkError{Op: "upload_" + side, Err: errors.New("no image bytes for side")}
	}
	raw, status, err := c.do(ctx, "upload_"+side, http.MethodPost,
		fmt.Sprintf("%s/instances/%s/images/%s", c.baseURL, instanceID, side),
		bytes.NewReader(image.Bytes), image.ContentType)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return &vendor.RawResponse{HTTPStatus: status, Body: raw}, nil
	}
	return nil, nil
}

func (c *Client) uploadSelfie(ctx context.Context, instanceID string, selfie *models.Image) (*vendor.RawResponse, error) {
	return c.exchange(ctx, "upload_selfie", http.MethodPost,
		fmt.Sprintf("%s/instances/%s/selfie", c.baseURL, instanceID),
		bytes.NewReader(selfie.Bytes), selfie.ContentType)
}

// exchange performs one call whose 200 body is a results payload.
func (c *Client) exchange(ctx context.Context, op, method, url string, body io.Reader, contentType string) (*vendor.RawResponse, error) {
	raw, status, err := c.do(ctx, op, method, url, body, contentType)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return &vendor.RawResponse{HTTPStatus: status, Body: raw}, nil
	}

	var payload vendor.ResultsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &vendor.NetworkError{Op: op, Err: fmt.Errorf("malformed results payload: %w", err)}
	}
	return &vendor.RawResponse{HTTPStatus: status, Payload: &payload, Body: raw}, nil
}

// do performs one bounded HTTP exchange and classifies failures as network
// errors. The response body is returned unread on unexpected statuses so the
// caller can pass it through unchanged.
func (c *Client) do(ctx context.Context, op, method, url string, body io.Reader, contentType string) ([]byte, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, url, body)
	if err != nil {
		return nil, 0, fmt.Errorf("build %s request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Account-ID", c.accountID)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded)
		if c.logger != nil {
			c.logger.WarnContext(ctx, "vendor exchange failed",
				"op", op,
				"timeout", timeout,
				"elapsed", time.Since(start),
				"error", err,
			)
		}
		return nil, 0, &vendor.NetworkError{Op: op, Timeout: timeout, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &vendor.NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	c.metrics.ObserveVendorLatency("veriscan", op, time.Since(start))
	if c.logger != nil {
		c.logger.DebugContext(ctx, "vendor exchange",
			"op", op,
			"status", resp.StatusCode,
			"elapsed", time.Since(start),
		)
	}
	return raw, resp.StatusCode, nil
}
