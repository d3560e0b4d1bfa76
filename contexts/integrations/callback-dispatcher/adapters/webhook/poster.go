package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tally/contexts/integrations/callback-dispatcher/domain/entities"
	"tally/internal/shared/events"
)

// Poster delivers event batches over HTTP POST. Any non-2xx response counts
// as a failed attempt.
type Poster struct {
	client *http.Client
}

func NewPoster(timeout time.Duration) *Poster {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Poster{client: &http.Client{Timeout: timeout}}
}

func (p *Poster) Deliver(ctx context.Context, callback entities.Callback, batch events.Batch) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callback.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if callback.Secret != nil && *callback.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+*callback.Secret)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post callback: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback responded with status %d", resp.StatusCode)
	}
	return nil
}
