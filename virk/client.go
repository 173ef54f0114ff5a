package virk

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const DefaultTimeout = 30 * time.Second

// Client posts rendered queries to the CVR search endpoint. It never retries.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

type clientConfig struct {
	httpClient *http.Client
	timeout    *time.Duration
	logger     *slog.Logger
}

type ClientOption func(*clientConfig)

// WithTimeout bounds a whole request including reading the body. Zero
// disables the timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = &d
	}
}

// WithHTTPClient makes the client send through a copy of hc. hc itself is
// never modified; its timeout is kept unless WithTimeout is also given.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	cfg := clientConfig{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	var hc http.Client

	if cfg.httpClient != nil {
		hc = *cfg.httpClient
	} else {
		hc = http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		}
	}

	if cfg.timeout != nil {
		hc.Timeout = *cfg.timeout
	}

	return &Client{
		httpClient: &hc,
		logger:     cfg.logger,
	}
}

// Search sends body to creds.EndpointURL and returns the response body of a
// 200 answer. Any other status yields *HTTPError, failures below HTTP yield
// *TransportError.
func (c *Client) Search(ctx context.Context, creds Credentials, body []byte) ([]byte, error) {
	if err := validateFields(creds, ErrMissingCredentials); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	log := c.logger.With("request_id", requestID, "url", creds.EndpointURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "create request", URL: creds.EndpointURL, Err: err}
	}

	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	log.Debug("virk search request", "bytes", len(body))

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("virk search request failed", "error", err, "elapsed", time.Since(start))

		return nil, &TransportError{Op: "post", URL: creds.EndpointURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Debug("virk search read body failed", "status", resp.StatusCode, "error", err)

		return nil, &TransportError{Op: "read body", URL: creds.EndpointURL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		log.Debug("virk search failed", "status", resp.StatusCode, "body", truncate(respBody, 1000))

		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	log.Debug("virk search response", "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(start))

	return respBody, nil
}

func truncate(b []byte, n int) string {
	return string(b[:min(n, len(b))])
}
