package timesync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigilsys/vigil/pkg/clock"
	"github.com/vigilsys/vigil/pkg/log"
)

// Syncer brings the device clock into agreement with a reference source.
// Implementations own the wire protocol; callers only see success or
// failure.
type Syncer interface {
	Sync(ctx context.Context) error
}

// ErrNoDate is returned when the reference endpoint answers without a
// usable Date header.
var ErrNoDate = errors.New("timesync: reference response carries no date")

// HTTPDateSyncer checks the device clock against the Date header of an
// HTTP endpoint. It never steps the host clock itself; it measures drift,
// reports it, and fails when the reference cannot be reached, which the
// caller treats the same way a failed clock set would be.
type HTTPDateSyncer struct {
	url      string
	client   *http.Client
	clk      clock.Clock
	maxDrift time.Duration
	logger   zerolog.Logger
}

// NewHTTPDateSyncer creates a syncer against url. A zero maxDrift disables
// the drift warning threshold.
func NewHTTPDateSyncer(url string, clk clock.Clock, maxDrift time.Duration) *HTTPDateSyncer {
	if clk == nil {
		clk = clock.System
	}
	return &HTTPDateSyncer{
		url:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
		clk:      clk,
		maxDrift: maxDrift,
		logger:   log.WithComponent("timesync"),
	}
}

// Sync fetches the reference time and compares it to the local clock. An
// unreachable or dateless reference is an error.
func (s *HTTPDateSyncer) Sync(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return fmt.Errorf("timesync: build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("timesync: reach reference: %w", err)
	}
	resp.Body.Close()

	ref, err := http.ParseTime(resp.Header.Get("Date"))
	if err != nil {
		return ErrNoDate
	}

	drift := s.clk.Now().Sub(ref)
	if drift < 0 {
		drift = -drift
	}

	ev := s.logger.Debug()
	if s.maxDrift > 0 && drift > s.maxDrift {
		ev = s.logger.Warn()
	}
	ev.Dur("drift", drift).Str("reference", s.url).Msg("clock checked against reference")
	return nil
}
