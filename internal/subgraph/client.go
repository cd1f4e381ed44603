// Package subgraph fetches Compound v2 borrow, repay and liquidation history
// from The Graph and turns it into ledger rows.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wallet-risk-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultURL         = "https://api.thegraph.com/subgraphs/name/graphprotocol/compound-v2"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// accountEntity labels subgraph request metrics.
const accountEntity = "account"

// accountHistoryQuery fetches the lending events recorded for one account.
const accountHistoryQuery = `
query getWalletHistory($wallet_id: ID!) {
  account(id: $wallet_id) {
    id
    borrows(first: 1000, orderBy: timestamp, orderDirection: desc) {
      id
      amount
      timestamp
      underlyingSymbol
    }
    repays(first: 1000, orderBy: timestamp, orderDirection: desc) {
      id
      amount
      timestamp
      underlyingSymbol
    }
    liquidations(first: 100, orderBy: timestamp, orderDirection: desc) {
      id
      amount
      timestamp
      underlyingSymbol
    }
  }
}`

// HTTPClient queries a GraphQL subgraph over HTTP.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	metrics     *observability.Metrics
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

// NewHTTPClient creates a new subgraph client. An empty endpoint uses DefaultURL.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// graphqlRequest is a GraphQL-over-HTTP POST body.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is a GraphQL-over-HTTP response body.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

// graphqlError is one entry of a GraphQL errors array.
type graphqlError struct {
	Message string `json:"message"`
}

// QueryError carries the errors array of a GraphQL response.
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// GetAccountHistory returns the lending history of wallet.
// Returns nil, nil when the subgraph has no such account.
func (c *HTTPClient) GetAccountHistory(ctx context.Context, wallet string) (*Account, error) {
	var data struct {
		Account *Account `json:"account"`
	}
	vars := map[string]any{"wallet_id": strings.ToLower(wallet)}

	start := time.Now()
	err := c.query(ctx, accountHistoryQuery, vars, &data)
	if c.metrics != nil {
		c.metrics.RecordSubgraphRequest(accountEntity, err, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", wallet, err)
	}
	return data.Account, nil
}

// query performs a GraphQL query with retries and exponential backoff.
func (c *HTTPClient) query(ctx context.Context, query string, vars map[string]any, result any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			// Client errors are not retried
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		var gqlResp graphqlResponse
		if err := json.Unmarshal(respBody, &gqlResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if len(gqlResp.Errors) > 0 {
			qe := &QueryError{}
			for _, e := range gqlResp.Errors {
				qe.Messages = append(qe.Messages, e.Message)
			}
			return qe
		}

		if result != nil && len(gqlResp.Data) > 0 {
			if err := json.Unmarshal(gqlResp.Data, result); err != nil {
				return fmt.Errorf("unmarshal data: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
