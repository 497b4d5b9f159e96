package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

type responseStub struct {
	status int
	body   []byte
}

func (s responseStub) toResponse() *http.Response {
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}

// captureTransport serves canned responses keyed by "METHOD path" and keeps
// the last request body per key for assertions.
type captureTransport struct {
	mu        sync.Mutex
	responses map[string]responseStub
	lastBody  map[string][]byte
	hits      map[string]int
}

func newCaptureTransport() *captureTransport {
	return &captureTransport{
		responses: map[string]responseStub{},
		lastBody:  map[string][]byte{},
		hits:      map[string]int{},
	}
}

func (t *captureTransport) set(method, path string, stub responseStub) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[method+" "+path] = stub
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.Path
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastBody[key] = body
	t.hits[key]++
	stub, ok := t.responses[key]
	if !ok {
		return nil, fmt.Errorf("unexpected request %s", key)
	}
	return stub.toResponse(), nil
}

func (t *captureTransport) body(method, path string) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastBody[method+" "+path]
}

func newTestClient(t *testing.T, transport *captureTransport) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:       "test-key",
		BaseURL:      "https://openai.test/v1",
		HTTPClient:   &http.Client{Transport: transport},
		PollInterval: time.Millisecond,
		PollAttempts: 3,
		Sleep:        func(context.Context, time.Duration) error { return nil },
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCallToolReturnsArguments(t *testing.T) {
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/responses", responseStub{
		body: []byte(`{"output":[{"type":"reasoning"},{"type":"function_call","name":"analyze","arguments":"{\"subject\":\"mug\"}"}]}`),
	})
	client := newTestClient(t, transport)

	raw, err := client.CallTool(context.Background(), ToolCallRequest{
		Input: []InputMessage{{Role: "user", Content: "analyze this"}},
		Tool: ToolDefinition{
			Type:       "function",
			Name:       "analyze",
			Parameters: json.RawMessage(`{"type":"object"}`),
		},
		Effort: "medium",
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	var out struct {
		Subject string `json:"subject"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode arguments: %v", err)
	}
	if out.Subject != "mug" {
		t.Fatalf("subject = %q, want mug", out.Subject)
	}

	var sent struct {
		ToolChoice string `json:"tool_choice"`
		Reasoning  *struct {
			Effort string `json:"effort"`
		} `json:"reasoning"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(transport.body(http.MethodPost, "/v1/responses"), &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if sent.ToolChoice != "required" {
		t.Fatalf("tool_choice = %q, want required", sent.ToolChoice)
	}
	if sent.Reasoning == nil || sent.Reasoning.Effort != "medium" {
		t.Fatalf("reasoning = %+v, want medium effort", sent.Reasoning)
	}
	if len(sent.Tools) != 1 || sent.Tools[0].Name != "analyze" {
		t.Fatalf("tools = %+v", sent.Tools)
	}
}

func TestCallToolWithoutToolCallFails(t *testing.T) {
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/responses", responseStub{
		body: []byte(`{"output":[{"type":"message","content":[{"type":"output_text","text":"hi"}]}]}`),
	})
	client := newTestClient(t, transport)

	_, err := client.CallTool(context.Background(), ToolCallRequest{
		Tool: ToolDefinition{Name: "analyze", Parameters: json.RawMessage(`{}`)},
	})
	if err == nil || !strings.Contains(err.Error(), "no analyze tool call") {
		t.Fatalf("err = %v, want missing tool call", err)
	}
}

func TestJSONResponse(t *testing.T) {
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/responses", responseStub{
		body: []byte(`{"output":[{"type":"message","content":[{"type":"output_text","text":"{\"headline\":\"Go\"}"}]}]}`),
	})
	client := newTestClient(t, transport)

	raw, err := client.JSONResponse(context.Background(), []InputMessage{{Role: "user", Content: "write"}}, "low")
	if err != nil {
		t.Fatalf("json response: %v", err)
	}
	if !bytes.Contains(raw, []byte(`"headline"`)) {
		t.Fatalf("raw = %s", raw)
	}

	var sent struct {
		Text *struct {
			Format struct {
				Type string `json:"type"`
			} `json:"format"`
		} `json:"text"`
	}
	if err := json.Unmarshal(transport.body(http.MethodPost, "/v1/responses"), &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if sent.Text == nil || sent.Text.Format.Type != "json_object" {
		t.Fatalf("text format = %+v, want json_object", sent.Text)
	}
}

func TestGenerateImageDecodesPayload(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/images/generations", responseStub{
		body: []byte(fmt.Sprintf(`{"data":[{"b64_json":"%s"}]}`, payload)),
	})
	client := newTestClient(t, transport)

	data, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "a mug", Size: "1024x1024"})
	if err != nil {
		t.Fatalf("generate image: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("data = %q, want decoded payload", data)
	}
}

func TestGenerateImageWithReferencesUsesEdits(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/images/edits", responseStub{
		body: []byte(fmt.Sprintf(`{"data":[{"b64_json":"%s"}]}`, payload)),
	})
	client := newTestClient(t, transport)

	_, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt:     "a mug",
		References: []ReferenceImage{{Name: "ref.png", MIME: "image/png", Data: []byte("ref-bytes")}},
	})
	if err != nil {
		t.Fatalf("generate image: %v", err)
	}
	form := transport.body(http.MethodPost, "/v1/images/edits")
	if !bytes.Contains(form, []byte("ref-bytes")) {
		t.Fatalf("edit form does not carry reference bytes")
	}
	if !bytes.Contains(form, []byte("input_fidelity")) {
		t.Fatalf("edit form does not set input fidelity")
	}
}

func TestGenerateImageRewritesQuotaError(t *testing.T) {
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/images/generations", responseStub{
		status: http.StatusTooManyRequests,
		body:   []byte(`{"error":{"message":"Rate limit exceeded: Limit 0 images per minute."}}`),
	})
	client := newTestClient(t, transport)

	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "a mug"})
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "openai rate limit reached: add a payment method or increase limits, or configure fal as a fallback"
	if err.Error() != want {
		t.Fatalf("err = %q, want canonical quota message", err)
	}
}

func TestGenerateVideoPollsToCompletion(t *testing.T) {
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/videos", responseStub{
		body: []byte(`{"id":"vid_1","status":"queued"}`),
	})
	transport.set(http.MethodGet, "/v1/videos/vid_1", responseStub{
		body: []byte(`{"id":"vid_1","status":"completed"}`),
	})
	transport.set(http.MethodGet, "/v1/videos/vid_1/content", responseStub{
		body: []byte("mp4-bytes"),
	})
	client := newTestClient(t, transport)

	data, err := client.GenerateVideo(context.Background(), VideoRequest{
		Prompt:      "pan across the mug",
		SourceImage: ReferenceImage{Name: "input.png", Data: []byte("src")},
		Duration:    8,
	})
	if err != nil {
		t.Fatalf("generate video: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Fatalf("data = %q", data)
	}
	form := transport.body(http.MethodPost, "/v1/videos")
	if !bytes.Contains(form, []byte("input_reference")) {
		t.Fatalf("video form does not carry the source frame")
	}
	if !bytes.Contains(form, []byte("\r\n8\r\n")) {
		t.Fatalf("video form does not carry the duration")
	}
}

func TestGenerateVideoTimesOut(t *testing.T) {
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/videos", responseStub{
		body: []byte(`{"id":"vid_1","status":"queued"}`),
	})
	transport.set(http.MethodGet, "/v1/videos/vid_1", responseStub{
		body: []byte(`{"id":"vid_1","status":"in_progress"}`),
	})
	client := newTestClient(t, transport)

	_, err := client.GenerateVideo(context.Background(), VideoRequest{Prompt: "pan"})
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("err = %v, want ErrPollTimeout", err)
	}
	transport.mu.Lock()
	polls := transport.hits["GET /v1/videos/vid_1"]
	transport.mu.Unlock()
	if polls != 3 {
		t.Fatalf("polls = %d, want attempt budget 3", polls)
	}
}

func TestGenerateVideoSurfacesRemoteFailure(t *testing.T) {
	transport := newCaptureTransport()
	transport.set(http.MethodPost, "/v1/videos", responseStub{
		body: []byte(`{"id":"vid_1","status":"queued"}`),
	})
	transport.set(http.MethodGet, "/v1/videos/vid_1", responseStub{
		body: []byte(`{"id":"vid_1","status":"failed","error":{"message":"unsafe content"}}`),
	})
	client := newTestClient(t, transport)

	_, err := client.GenerateVideo(context.Background(), VideoRequest{Prompt: "pan"})
	if err == nil || !strings.Contains(err.Error(), "unsafe content") {
		t.Fatalf("err = %v, want remote failure message", err)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.HasCredentials() {
		t.Fatalf("empty key reports credentials")
	}
	if _, err := client.CallTool(context.Background(), ToolCallRequest{Tool: ToolDefinition{Name: "t"}}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}
