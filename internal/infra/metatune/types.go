package metatune

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

type transformRequest struct {
	UserInput string `json:"user_input"`
}

type generateRequest struct {
	Prompt    string `json:"prompt"`
	Generator string `json:"generator"`
}

// Clip represents a finished generation as reported by the service.
// Title and Source may be empty.
type Clip struct {
	URL    string
	Title  string
	Source string
}

// GenerateResult is the outcome of a generate-music call.
// Exactly one of Clip and TaskID is set.
type GenerateResult struct {
	Clip   *Clip
	TaskID string
}

// Deferred reports whether the result must be polled.
func (r *GenerateResult) Deferred() bool {
	return r.Clip == nil && r.TaskID != ""
}

// TaskState represents the state of a deferred generation task.
type TaskState int

const (
	TaskUnknown TaskState = iota
	TaskPending           // Still generating
	TaskDone              // Clip is available
	TaskFailed            // Generation failed
)

// String returns the string representation of the task state.
func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskDone:
		return "done"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TaskStatus is the outcome of a task-status call.
type TaskStatus struct {
	State  TaskState
	Clip   *Clip  // Set when State is TaskDone
	Detail string // Failure explanation, may be empty
}

func parseTaskState(s string) TaskState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "queued", "processing", "running", "generating":
		return TaskPending
	case "complete", "completed", "success", "succeeded", "done":
		return TaskDone
	case "failed", "failure", "error":
		return TaskFailed
	default:
		return TaskUnknown
	}
}

// payload is the union of all response objects the service sends.
type payload struct {
	TransformedPrompt string `mapstructure:"transformed_prompt"`
	URL               string `mapstructure:"url"`
	Title             string `mapstructure:"title"`
	Source            string `mapstructure:"source"`
	TaskID            string `mapstructure:"task_id"`
	Status            string `mapstructure:"status"`
	Message           string `mapstructure:"message"`
	Detail            any    `mapstructure:"detail"`
}

func (p *payload) clip() *Clip {
	return &Clip{
		URL:    p.URL,
		Title:  p.Title,
		Source: p.Source,
	}
}

// detail flattens the error explanation. FastAPI validation errors carry a
// list of objects with a "msg" field instead of a plain string.
func (p *payload) detail() string {
	switch d := p.Detail.(type) {
	case string:
		return strings.TrimSpace(d)
	case []any:
		msgs := make([]string, 0, len(d))
		for _, item := range d {
			switch v := item.(type) {
			case string:
				msgs = append(msgs, v)
			case map[string]any:
				if m, ok := v["msg"].(string); ok && m != "" {
					msgs = append(msgs, m)
				}
			}
		}
		return strings.Join(msgs, "; ")
	}
	if p.Status != "" && parseTaskState(p.Status) == TaskFailed {
		return strings.TrimSpace(p.Message)
	}
	return ""
}

// decodePayload decodes a JSON object body. Scalar fields are weakly typed so
// that a numeric task_id still decodes as a string.
func decodePayload(raw []byte, out *payload) error {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return errors.Wrap(ErrUnexpectedResponse, "response is not a JSON object")
	}
	if obj == nil {
		return errors.Wrap(ErrUnexpectedResponse, "response is null")
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := dec.Decode(obj); err != nil {
		return errors.Wrap(ErrUnexpectedResponse, err.Error())
	}
	return nil
}
