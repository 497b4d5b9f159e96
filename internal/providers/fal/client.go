package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"brandforge/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("fal: api key is required")

const (
	defaultBaseURL = "https://queue.fal.run"

	defaultImageApp = "fal-ai/gpt-image-1.5"
	defaultVideoApp = "fal-ai/sora-2/image-to-video"

	defaultTimeout = 60 * time.Second

	// The queue API is cheap to poll; subscribe-style calls check every
	// few seconds until the hosted job settles.
	queuePollInterval = 3 * time.Second
	queuePollAttempts = 400
)

// Options configures the fal.ai queue client.
type Options struct {
	APIKey     string
	BaseURL    string
	ImageApp   string
	VideoApp   string
	HTTPClient *http.Client
	Logger     *infra.Logger

	PollInterval time.Duration
	PollAttempts int
	Sleep        func(ctx context.Context, d time.Duration) error
}

// Client performs HTTP calls to the fal.ai queue API. It is the secondary
// generation back-end, used only when the primary call fails.
type Client struct {
	apiKey       string
	baseURL      string
	imageApp     string
	videoApp     string
	httpClient   *http.Client
	logger       *infra.Logger
	pollInterval time.Duration
	pollAttempts int
	sleep        func(ctx context.Context, d time.Duration) error
}

type queueSubmitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type queueStatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = queuePollInterval
	}
	pollAttempts := opts.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = queuePollAttempts
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		imageApp:     coalesce(opts.ImageApp, defaultImageApp),
		videoApp:     coalesce(opts.VideoApp, defaultVideoApp),
		httpClient:   httpClient,
		logger:       logger,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		sleep:        sleep,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// ImageRequest captures the inputs for subscribe-style image generation.
type ImageRequest struct {
	Prompt        string
	Size          string
	Quality       string
	ReferenceURLs []string
}

// VideoRequest captures the inputs for subscribe-style video generation.
type VideoRequest struct {
	Prompt         string
	SourceImageURL string
	Duration       int
}

type imageInput struct {
	Prompt        string   `json:"prompt"`
	ImageSize     string   `json:"image_size,omitempty"`
	Quality       string   `json:"quality,omitempty"`
	OutputFormat  string   `json:"output_format,omitempty"`
	ImageURLs     []string `json:"image_urls,omitempty"`
	InputFidelity string   `json:"input_fidelity,omitempty"`
}

type videoInput struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url"`
	Duration int    `json:"duration,omitempty"`
}

type imageOutput struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type videoOutput struct {
	Video struct {
		URL string `json:"url"`
	} `json:"video"`
	URL string `json:"url,omitempty"`
}

// GenerateImage runs one hosted image job to completion and returns the
// result URL.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	input := imageInput{
		Prompt:       req.Prompt,
		ImageSize:    req.Size,
		Quality:      coalesce(req.Quality, "high"),
		OutputFormat: "png",
	}
	if len(req.ReferenceURLs) > 0 {
		input.ImageURLs = req.ReferenceURLs
		input.InputFidelity = "high"
	}
	raw, err := c.subscribe(ctx, c.imageApp, input)
	if err != nil {
		return "", err
	}
	var out imageOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode fal response: %w", err)
	}
	if len(out.Images) == 0 || out.Images[0].URL == "" {
		return "", errors.New("fal: no image returned")
	}
	return out.Images[0].URL, nil
}

// GenerateVideo runs one hosted image-to-video job to completion and returns
// the result URL.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (string, error) {
	duration := req.Duration
	if duration <= 0 {
		duration = 8
	}
	raw, err := c.subscribe(ctx, c.videoApp, videoInput{
		Prompt:   req.Prompt,
		ImageURL: req.SourceImageURL,
		Duration: duration,
	})
	if err != nil {
		return "", err
	}
	var out videoOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode fal response: %w", err)
	}
	url := coalesce(out.Video.URL, out.URL)
	if url == "" {
		return "", errors.New("fal: no video returned")
	}
	return url, nil
}

// subscribe submits a queue job and blocks until it settles, mirroring the
// hosted subscribe call: submit, poll status, fetch the response document.
func (c *Client) subscribe(ctx context.Context, app string, input any) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	submitted, err := c.submit(ctx, app, input)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("app", app).
		Str("request_id", submitted.RequestID).
		Msg("fal: queue job submitted")

	statusURL := submitted.StatusURL
	if statusURL == "" {
		statusURL = fmt.Sprintf("%s/%s/requests/%s/status", c.baseURL, app, submitted.RequestID)
	}
	responseURL := submitted.ResponseURL
	if responseURL == "" {
		responseURL = fmt.Sprintf("%s/%s/requests/%s", c.baseURL, app, submitted.RequestID)
	}

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		status, err := c.status(ctx, statusURL)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case "COMPLETED":
			return c.response(ctx, responseURL)
		case "FAILED", "ERROR":
			if status.Error != "" {
				return nil, fmt.Errorf("fal job failed: %s", status.Error)
			}
			return nil, errors.New("fal job failed")
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("fal: queue job timed out")
}

func (c *Client) submit(ctx context.Context, app string, input any) (*queueSubmitResponse, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+app, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke fal: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.decodeError(resp.StatusCode, resp.Body)
	}
	var out queueSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode fal response: %w", err)
	}
	if out.RequestID == "" {
		return nil, errors.New("fal: no request id returned")
	}
	return &out, nil
}

func (c *Client) status(ctx context.Context, url string) (*queueStatusResponse, error) {
	raw, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var out queueStatusResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fal status: %w", err)
	}
	return &out, nil
}

func (c *Client) response(ctx context.Context, url string) (json.RawMessage, error) {
	return c.get(ctx, url)
}

func (c *Client) get(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke fal: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.decodeError(resp.StatusCode, resp.Body)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fal response: %w", err)
	}
	return data, nil
}

type errorResponse struct {
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (c *Client) decodeError(status int, body io.Reader) error {
	var apiErr errorResponse
	if err := json.NewDecoder(body).Decode(&apiErr); err == nil {
		if msg := coalesce(apiErr.Detail, apiErr.Error); msg != "" {
			return fmt.Errorf("fal status %d: %s", status, msg)
		}
	}
	return fmt.Errorf("fal status %d", status)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
