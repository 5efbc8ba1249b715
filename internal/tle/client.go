package tle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/signalsfoundry/transit-recorder/internal/logging"
)

// DefaultBaseURL points at the upstream element distribution point.
const DefaultBaseURL = "http://celestrak.com/NORAD/elements/"

// fetchMaxTries bounds startup time when the source is down; element data is
// a hard startup dependency, so failing fast beats hanging.
const fetchMaxTries = 4

// Client downloads element-source files over HTTP with retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
	retryWait  time.Duration
}

// NewClient builds a client for the given distribution point. An empty
// baseURL selects the default.
func NewClient(baseURL string, log logging.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
		retryWait:  500 * time.Millisecond,
	}
}

// Fetch downloads and parses one element-source file. Transient failures
// (connection errors, 5xx) are retried with exponential backoff; client
// errors and empty files are not.
func (c *Client) Fetch(ctx context.Context, file string) (*Set, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryWait

	set, err := backoff.Retry(ctx,
		func() (*Set, error) { return c.fetchOnce(ctx, file) },
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(fetchMaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.log.Warn(ctx, "element source fetch failed, retrying",
				logging.String("file", file),
				logging.String("error", err.Error()),
				logging.String("wait", wait.String()),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", file, err)
	}
	return set, nil
}

func (c *Client) fetchOnce(ctx context.Context, file string) (*Set, error) {
	url := c.baseURL + "/" + file
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	set, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return nil, backoff.Permanent(fmt.Errorf("no element sets in %s", file))
	}
	return set, nil
}
