package actuator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// Client issues duty-cycle commands to relay endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client with the given per-request timeout; zero keeps
// the default of 10s.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TurnOn commands the relay at endpoint to switch on for timerSeconds.
// A timer of 0 is still sent; relays treat it as "off".
func (c *Client) TurnOn(ctx context.Context, endpoint string, timerSeconds int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("actuator request for %s: %w", endpoint, err)
	}

	query := req.URL.Query()
	query.Set("turn", "on")
	query.Set("timer", strconv.Itoa(timerSeconds))
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("actuator request for %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("actuator %s: status %d", endpoint, resp.StatusCode)
	}
	return nil
}
