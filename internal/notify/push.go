package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"backuphub/internal/gateway"
)

// ExecPusher invokes a local push relay executable with the message and the
// space-joined target list as two discrete arguments.
type ExecPusher struct {
	runner gateway.Runner
	path   string
}

// NewExecPusher returns a pusher running the relay at path.
func NewExecPusher(runner gateway.Runner, path string) *ExecPusher {
	return &ExecPusher{runner: runner, path: path}
}

// Push implements Pusher.
func (p *ExecPusher) Push(ctx context.Context, targets []string, message string) error {
	if _, err := p.runner.Run(ctx, p.path, message, strings.Join(targets, " ")); err != nil {
		return fmt.Errorf("push relay %s: %w", p.path, err)
	}
	return nil
}

// relayRequest is the body posted to a remote push relay.
type relayRequest struct {
	Targets string `json:"targets"`
	Message string `json:"message"`
}

// HTTPPusher posts alerts to a remote push relay.
type HTTPPusher struct {
	client *http.Client
	url    string
}

// NewHTTPPusher returns a pusher posting to url.
func NewHTTPPusher(client *http.Client, url string) *HTTPPusher {
	return &HTTPPusher{client: client, url: url}
}

// RemoteFactory returns a constructor for Dispatcher's remote-relay mode.
func RemoteFactory(timeout time.Duration) func(url string) Pusher {
	client := &http.Client{Timeout: timeout}
	return func(url string) Pusher { return NewHTTPPusher(client, url) }
}

// Push implements Pusher.
func (p *HTTPPusher) Push(ctx context.Context, targets []string, message string) error {
	body, err := json.Marshal(relayRequest{Targets: strings.Join(targets, " "), Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid relay URL: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
