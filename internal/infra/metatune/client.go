// Package metatune provides a client for the MetaTune prompt and music
// generation API.
package metatune

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	transformPath  = "/api/transform_prompt"
	generatePath   = "/api/generate-music"
	taskStatusPath = "/api/task-status/"
)

// ErrUnexpectedResponse is returned when a successful response does not have
// any of the documented shapes.
var ErrUnexpectedResponse = errors.New("unexpected response shape")

// APIError represents a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Detail     string // Server-provided explanation, may be empty
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("metatune API error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("metatune API error %d", e.StatusCode)
}

// Config represents MetaTune client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; overrides Timeout
}

// Client is a MetaTune API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new MetaTune client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("metatune base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "invalid metatune base URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// TransformPrompt converts free-form user input into a music prompt.
// An empty string with a nil error means the service answered without a prompt.
func (c *Client) TransformPrompt(ctx context.Context, input string) (string, error) {
	status, raw, err := c.doJSON(ctx, http.MethodPost, transformPath, transformRequest{UserInput: input})
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", newAPIError(status, raw)
	}

	var p payload
	if err := decodePayload(raw, &p); err != nil {
		return "", err
	}
	zlog.Debug().Msgf("transformed prompt: %q", p.TransformedPrompt)
	return strings.TrimSpace(p.TransformedPrompt), nil
}

// GenerateMusic submits a prompt to the given generator.
// The result carries either the finished clip or a task ID to poll.
func (c *Client) GenerateMusic(ctx context.Context, prompt, generator string) (*GenerateResult, error) {
	status, raw, err := c.doJSON(ctx, http.MethodPost, generatePath, generateRequest{
		Prompt:    prompt,
		Generator: generator,
	})
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, newAPIError(status, raw)
	}

	var p payload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusAccepted && p.TaskID != "":
		zlog.Debug().Msgf("generation accepted: task_id=%s", p.TaskID)
		return &GenerateResult{TaskID: p.TaskID}, nil
	case p.URL != "":
		return &GenerateResult{Clip: p.clip()}, nil
	default:
		return nil, errors.Wrapf(ErrUnexpectedResponse, "generate-music status %d", status)
	}
}

// TaskStatus fetches the status of a deferred generation task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	if taskID == "" {
		return nil, errors.New("task ID is required")
	}

	status, raw, err := c.doJSON(ctx, http.MethodGet, taskStatusPath+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, newAPIError(status, raw)
	}

	var p payload
	if err := decodePayload(raw, &p); err != nil {
		if status == http.StatusAccepted {
			// A bare 202 means the task is still running.
			return &TaskStatus{State: TaskPending}, nil
		}
		return nil, err
	}

	if p.URL != "" {
		return &TaskStatus{State: TaskDone, Clip: p.clip()}, nil
	}
	if state := parseTaskState(p.Status); state != TaskUnknown {
		return &TaskStatus{State: state, Detail: p.detail()}, nil
	}
	if status == http.StatusAccepted {
		return &TaskStatus{State: TaskPending}, nil
	}
	return nil, errors.Wrapf(ErrUnexpectedResponse, "task-status status %d", status)
}

// doJSON sends a request with an optional JSON body and returns the status
// code and the raw response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	zlog.Debug().Msgf("metatune request: %s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to read response body")
	}

	zlog.Debug().Msgf("metatune response: %s %s status=%d bytes=%d", method, path, resp.StatusCode, len(raw))
	return resp.StatusCode, raw, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var p payload
	if err := decodePayload(raw, &p); err == nil {
		apiErr.Detail = p.detail()
	}
	return apiErr
}
