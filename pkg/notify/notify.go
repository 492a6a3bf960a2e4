package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vigilsys/vigil/pkg/log"
)

// Payload is the escalation body POSTed to the operator endpoint.
type Payload struct {
	Machine   string `json:"machine"`
	Traceback string `json:"traceback"`
}

// Notifier delivers an escalation to a remote operator.
type Notifier interface {
	Escalate(ctx context.Context, machine, traceback string) error
}

// HTTPNotifier POSTs escalations as JSON. Only "request completed or not"
// matters; the response body is drained and closed on every path so the
// constrained host does not leak sockets or buffers.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

// NewHTTPNotifier creates a notifier for the given endpoint URL.
func NewHTTPNotifier(url string) *HTTPNotifier {
	return &HTTPNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Escalate POSTs the payload. Failures are not retried: by the time an
// escalation is sent the device is already at its crash budget, and a hung
// retry here would block the degraded-signal fallback.
func (n *HTTPNotifier) Escalate(ctx context.Context, machine, traceback string) error {
	body, err := json.Marshal(Payload{Machine: machine, Traceback: traceback})
	if err != nil {
		return fmt.Errorf("encode escalation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build escalation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("escalation post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Any completed exchange counts as delivered: the endpoint saw the
	// payload even if it answered with an error status. The status is
	// still worth surfacing to the operator console.
	logger := log.WithComponent("notify")
	if resp.StatusCode >= http.StatusMultipleChoices {
		logger.Warn().Str("machine", machine).Str("status", resp.Status).Msg("escalation delivered, endpoint unhappy")
	} else {
		logger.Info().Str("machine", machine).Msg("escalation delivered")
	}
	return nil
}
