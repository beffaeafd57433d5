// Package gateway provides the typed command client for the agent daemon.
//
// Every operation is a single POST round trip carrying {op, payload} and
// returning {ok, result, error}. The gateway never retries and never
// interprets error content; failures are reported as *Error values carrying
// the attempted operation name.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/iskisraell/obsidian-ai-agent/internal/metrics"
)

// Operation names. These are the wire contract and must not be renamed.
const (
	OpEnqueueIngestion    = "enqueue_ingestion"
	OpListJobs            = "list_jobs"
	OpGetJob              = "get_job"
	OpRetryJob            = "retry_job"
	OpCancelJob           = "cancel_job"
	OpGetSettings         = "get_settings"
	OpSaveSettings        = "save_settings"
	OpGetCredentialStatus = "get_credential_status"
	OpSaveCredential      = "save_credential"
	OpClearCredential     = "clear_credential"
	OpPreviewNote         = "preview_note"
	OpPublishNote         = "publish_note"
)

// Error is a typed gateway failure carrying the attempted operation name and
// an opaque message. Interpretation of the message is left to the caller.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client is the command gateway to the agent daemon. It holds no state
// beyond the transport.
type Client struct {
	endpoint   string
	httpClient *http.Client
	stats      *metrics.Collector
}

// New creates a new gateway client.
// If endpoint is empty, uses OBSIDIAN_AGENT_URL env var or the local default.
// Timeout can be configured via OBSIDIAN_AGENT_TIMEOUT env var.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("OBSIDIAN_AGENT_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8675"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("OBSIDIAN_AGENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithStats attaches a metrics collector recording per-operation round trips.
func (c *Client) WithStats(stats *metrics.Collector) *Client {
	c.stats = stats
	return c
}

// Stats returns the attached collector, or nil.
func (c *Client) Stats() *metrics.Collector { return c.stats }

// commandRequest is the request envelope for command operations.
type commandRequest struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// commandResponse is the response envelope from command operations.
type commandResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// invoke sends one command and decodes the result into result (which may be
// nil for unit-returning operations). All failures come back as *Error.
func (c *Client) invoke(ctx context.Context, op string, payload any, result any) error {
	started := time.Now()
	err := c.roundTrip(ctx, op, payload, result)
	if c.stats != nil {
		c.stats.Record(op, time.Since(started), err != nil)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op string, payload any, result any) error {
	req := commandRequest{Op: op}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &Error{Op: op, Message: "marshal payload", Err: err}
		}
		req.Payload = raw
	}

	body, err := json.Marshal(req)
	if err != nil {
		return &Error{Op: op, Message: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/command", bytes.NewReader(body))
	if err != nil {
		return &Error{Op: op, Message: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &Error{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Message: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &Error{Op: op, Message: fmt.Sprintf("server error: %s - %s", resp.Status, string(respBody))}
	}

	var cmdResp commandResponse
	if err := json.Unmarshal(respBody, &cmdResp); err != nil {
		return &Error{Op: op, Message: "unmarshal response", Err: err}
	}

	if !cmdResp.OK {
		return &Error{Op: op, Message: cmdResp.Error}
	}

	if result != nil && len(cmdResp.Result) > 0 {
		if err := json.Unmarshal(cmdResp.Result, result); err != nil {
			return &Error{Op: op, Message: "unmarshal result", Err: err}
		}
	}

	return nil
}
