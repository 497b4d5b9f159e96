package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"brandforge/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("openai: api key is required")

// ErrPollTimeout indicates the video polling attempt budget was exhausted
// before the remote job reached a terminal state.
var ErrPollTimeout = errors.New("openai: video generation timed out")

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultTextModel  = "gpt-5.2"
	defaultImageModel = "gpt-image-1.5"
	defaultVideoModel = "sora-2"

	defaultTimeout = 120 * time.Second

	// Video jobs are long-lived: poll every 10s for up to 120 attempts,
	// a 20 minute ceiling.
	defaultPollInterval = 10 * time.Second
	defaultPollAttempts = 120
)

// Options configures the OpenAI client.
type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	VideoModel string
	HTTPClient *http.Client
	Logger     *infra.Logger

	// RequestsPerMinute paces outgoing calls; zero disables pacing.
	RequestsPerMinute int

	// PollInterval and PollAttempts override the video polling protocol.
	// Tests inject short values here together with Sleep.
	PollInterval time.Duration
	PollAttempts int
	Sleep        func(ctx context.Context, d time.Duration) error
}

// Client performs HTTP calls against the OpenAI responses, images and videos
// APIs. It is the primary generation back-end.
type Client struct {
	apiKey       string
	baseURL      string
	textModel    string
	imageModel   string
	videoModel   string
	httpClient   *http.Client
	logger       *infra.Logger
	limiter      *rate.Limiter
	pollInterval time.Duration
	pollAttempts int
	sleep        func(ctx context.Context, d time.Duration) error
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
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.RequestsPerMinute)
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	pollAttempts := opts.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = defaultPollAttempts
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		textModel:    coalesce(opts.TextModel, defaultTextModel),
		imageModel:   coalesce(opts.ImageModel, defaultImageModel),
		videoModel:   coalesce(opts.VideoModel, defaultVideoModel),
		httpClient:   httpClient,
		logger:       logger,
		limiter:      limiter,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		sleep:        sleep,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
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

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type,omitempty"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

func (c *Client) decodeError(status int, body io.Reader) error {
	var apiErr apiError
	if err := json.NewDecoder(body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("openai status %d: %s", status, apiErr.Error.Message)
	}
	return fmt.Errorf("openai status %d", status)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(resp.StatusCode, resp.Body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode openai response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(resp.StatusCode, resp.Body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode openai response: %w", err)
	}
	return nil
}

// ---- responses API ----

// ToolDefinition describes one function tool for the responses API.
type ToolDefinition struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Strict      bool            `json:"strict,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ContentPart is one multimodal input part.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// InputMessage is one message of the responses API conversation. Content is
// either a plain string or a []ContentPart.
type InputMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type reasoningConfig struct {
	Effort string `json:"effort,omitempty"`
}

type textConfig struct {
	Format formatConfig `json:"format"`
}

type formatConfig struct {
	Type string `json:"type"`
}

type responsesRequest struct {
	Model      string           `json:"model"`
	Input      []InputMessage   `json:"input"`
	Reasoning  *reasoningConfig `json:"reasoning,omitempty"`
	Tools      []ToolDefinition `json:"tools,omitempty"`
	ToolChoice string           `json:"tool_choice,omitempty"`
	Text       *textConfig      `json:"text,omitempty"`
	Store      bool             `json:"store"`
}

type responsesOutput struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Content   []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content,omitempty"`
}

type responsesResponse struct {
	Output []responsesOutput `json:"output"`
}

// ToolCallRequest asks the text model to respond through one function tool.
type ToolCallRequest struct {
	Input  []InputMessage
	Tool   ToolDefinition
	Effort string
}

// CallTool invokes the responses API with a forced tool choice and returns
// the raw JSON arguments of the tool call.
func (c *Client) CallTool(ctx context.Context, req ToolCallRequest) (json.RawMessage, error) {
	payload := responsesRequest{
		Model:      c.textModel,
		Input:      req.Input,
		Tools:      []ToolDefinition{req.Tool},
		ToolChoice: "required",
		Store:      true,
	}
	if req.Effort != "" {
		payload.Reasoning = &reasoningConfig{Effort: req.Effort}
	}
	var out responsesResponse
	if err := c.postJSON(ctx, "/responses", payload, &out); err != nil {
		return nil, err
	}
	for _, item := range out.Output {
		if item.Type == "function_call" && item.Arguments != "" {
			return json.RawMessage(item.Arguments), nil
		}
	}
	return nil, fmt.Errorf("openai: no %s tool call returned", req.Tool.Name)
}

// JSONResponse invokes the responses API in JSON-object mode and returns the
// raw message text, which is expected to be a JSON document.
func (c *Client) JSONResponse(ctx context.Context, input []InputMessage, effort string) (json.RawMessage, error) {
	payload := responsesRequest{
		Model: c.textModel,
		Input: input,
		Text:  &textConfig{Format: formatConfig{Type: "json_object"}},
		Store: true,
	}
	if effort != "" {
		payload.Reasoning = &reasoningConfig{Effort: effort}
	}
	var out responsesResponse
	if err := c.postJSON(ctx, "/responses", payload, &out); err != nil {
		return nil, err
	}
	for _, item := range out.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if strings.TrimSpace(part.Text) != "" {
				return json.RawMessage(part.Text), nil
			}
		}
	}
	return nil, errors.New("openai: no message content returned")
}

// ---- images API ----

// ReferenceImage carries raw bytes for the edit/compose mode.
type ReferenceImage struct {
	Name string
	MIME string
	Data []byte
}

// ImageRequest captures the required inputs for one image generation.
type ImageRequest struct {
	Prompt     string
	Size       string
	Quality    string
	References []ReferenceImage
}

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	N       int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url,omitempty"`
	} `json:"data"`
}

// GenerateImage invokes the images API once and returns the image bytes.
// Requests with reference images go through the edits endpoint so the model
// composes from the uploaded product shots; requests without references use
// plain generation.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	var (
		out imageResponse
		err error
	)
	if len(req.References) > 0 {
		err = c.editImage(ctx, req, &out)
	} else {
		payload := imageGenerationRequest{
			Model:   c.imageModel,
			Prompt:  req.Prompt,
			Size:    req.Size,
			Quality: coalesce(req.Quality, "high"),
			N:       1,
		}
		err = c.postJSON(ctx, "/images/generations", payload, &out)
	}
	if err != nil {
		// The provider signals exhausted quota in free-text form. Replace it
		// with the canonical guidance message the rest of the pipeline keys
		// its fatal classification on.
		msg := err.Error()
		if strings.Contains(msg, "Limit 0") || strings.Contains(msg, "rate limit") {
			return nil, fmt.Errorf("openai rate limit reached: add a payment method or increase limits, or configure fal as a fallback")
		}
		return nil, err
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, errors.New("openai: no image returned")
	}
	data, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}

func (c *Client) editImage(ctx context.Context, req ImageRequest, out *imageResponse) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	_ = form.WriteField("model", c.imageModel)
	_ = form.WriteField("prompt", req.Prompt)
	_ = form.WriteField("input_fidelity", "high")
	for i, ref := range req.References {
		name := ref.Name
		if name == "" {
			name = fmt.Sprintf("reference-%d.png", i)
		}
		part, err := form.CreateFormFile("image[]", name)
		if err != nil {
			return fmt.Errorf("build image form: %w", err)
		}
		if _, err := part.Write(ref.Data); err != nil {
			return fmt.Errorf("write image form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("finalize image form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/edits", body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("invoke openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(resp.StatusCode, resp.Body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode openai response: %w", err)
	}
	return nil
}

// ---- videos API ----

// VideoRequest captures the required inputs for one video generation.
type VideoRequest struct {
	Prompt      string
	SourceImage ReferenceImage
	Duration    int
	Size        string
}

// VideoJob is the remote job state returned by the videos API.
type VideoJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateVideo submits a video job and drives the polling protocol until the
// remote job reaches a terminal state, then downloads the rendered bytes.
// Exhausting the attempt budget yields ErrPollTimeout.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) ([]byte, error) {
	job, err := c.createVideo(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("video_id", job.ID).
		Str("model", c.videoModel).
		Msg("openai: video job submitted")

	current := job
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if current.Status == "completed" || current.Status == "failed" {
			break
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		polled, err := c.retrieveVideo(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		current = polled
	}

	switch current.Status {
	case "completed":
		return c.downloadVideo(ctx, current.ID)
	case "failed":
		if current.Error != nil && current.Error.Message != "" {
			return nil, fmt.Errorf("openai video failed: %s", current.Error.Message)
		}
		return nil, errors.New("openai video failed")
	default:
		return nil, ErrPollTimeout
	}
}

func (c *Client) createVideo(ctx context.Context, req VideoRequest) (*VideoJob, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	_ = form.WriteField("model", c.videoModel)
	_ = form.WriteField("prompt", req.Prompt)
	_ = form.WriteField("size", coalesce(req.Size, "1280x720"))
	seconds := req.Duration
	if seconds <= 0 {
		seconds = 8
	}
	_ = form.WriteField("seconds", strconv.Itoa(seconds))
	if len(req.SourceImage.Data) > 0 {
		name := coalesce(req.SourceImage.Name, "input.png")
		part, err := form.CreateFormFile("input_reference", name)
		if err != nil {
			return nil, fmt.Errorf("build video form: %w", err)
		}
		if _, err := part.Write(req.SourceImage.Data); err != nil {
			return nil, fmt.Errorf("write video form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalize video form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoke openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.decodeError(resp.StatusCode, resp.Body)
	}
	var job VideoJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	return &job, nil
}

func (c *Client) retrieveVideo(ctx context.Context, id string) (*VideoJob, error) {
	var job VideoJob
	if err := c.getJSON(ctx, "/videos/"+id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) downloadVideo(ctx context.Context, id string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/"+id+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.decodeError(resp.StatusCode, resp.Body)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read video: %w", err)
	}
	return data, nil
}
