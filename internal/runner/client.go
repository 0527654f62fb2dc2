package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FailureMessage is broadcast in place of run output when an execution
// fails for any reason. Clients only ever handle success-shaped results.
const FailureMessage = "Error executing code. Check server logs."

const maxResponseBytes = 4 * 1024 * 1024

// Request carries one execution of the shared code.
type Request struct {
	Language string
	Version  string
	Code     string
	Stdin    string
}

type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
	Stdin    string        `json:"stdin"`
}

type executeFile struct {
	Content string `json:"content"`
}

// Client talks to the external code execution service.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Run submits the code and returns the service's raw JSON result. Any
// transport, status, or payload problem comes back as an error; callers
// convert it with ErrorPayload.
func (c *Client) Run(ctx context.Context, req Request) (json.RawMessage, error) {
	body, err := json.Marshal(executeRequest{
		Language: req.Language,
		Version:  req.Version,
		Files:    []executeFile{{Content: req.Code}},
		Stdin:    req.Stdin,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build execute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read execute response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("execute service returned status %d", resp.StatusCode)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("execute service returned malformed JSON")
	}

	return raw, nil
}

// ResultPayload attaches the request id to the service's raw result so
// clients can discard stale responses. A result that cannot be decoded as
// an object degrades to the failure payload.
func ResultPayload(requestID string, raw json.RawMessage) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return ErrorPayload(requestID)
	}
	payload["requestId"] = requestID
	return payload
}

// ErrorPayload synthesizes a success-shaped result carrying the generic
// failure message in the output position.
func ErrorPayload(requestID string) map[string]any {
	return map[string]any{
		"requestId": requestID,
		"run": map[string]any{
			"output": FailureMessage,
		},
	}
}
