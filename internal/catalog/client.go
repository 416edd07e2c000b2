// Package catalog looks up presentable property listings in the external
// GraphQL catalog.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/sony/gobreaker/v2"
)

const propertiesQuery = `query($filters: PropertyInputFilters) { properties(filters: $filters) { id description title serialId media { id name url } } }`

const (
	DefaultTimeout          = 30 * time.Second
	DefaultBreakerTimeout   = 30 * time.Second
	DefaultBreakerFailures  = 5
	DefaultHalfOpenRequests = 1
)

var ErrBreakerOpen = errors.New("catalog unavailable: circuit open")

type Config struct {
	URL   string
	Token string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// ConsecutiveFailures opens the breaker; BreakerTimeout is how long it
	// stays open before a trial request.
	ConsecutiveFailures uint32
	BreakerTimeout      time.Duration
}

type Client struct {
	url        string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]domain.ListedProperty]
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = DefaultBreakerTimeout
	}

	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: DefaultHalfOpenRequests,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// A cancelled turn says nothing about the catalog's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("catalog: breaker %s %s -> %s", name, from, to)
		},
	}

	return &Client{
		url:        strings.TrimSpace(cfg.URL),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]domain.ListedProperty](settings),
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type propertiesResponse struct {
	Data struct {
		Properties []domain.ListedProperty `json:"properties"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Properties fetches the listings for ids in a single request. Unknown ids
// are simply absent from the result.
func (c *Client) Properties(ctx context.Context, ids []string) ([]domain.ListedProperty, error) {
	if len(ids) == 0 {
		return []domain.ListedProperty{}, nil
	}

	records, err := c.breaker.Execute(func() ([]domain.ListedProperty, error) {
		return c.fetch(ctx, ids)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}
	return records, err
}

func (c *Client) fetch(ctx context.Context, ids []string) ([]domain.ListedProperty, error) {
	payload, err := json.Marshal(graphQLRequest{
		Query:     propertiesQuery,
		Variables: map[string]any{"filters": map[string]any{"ids": ids}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out propertiesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("catalog error: %s", out.Errors[0].Message)
	}

	if out.Data.Properties == nil {
		return []domain.ListedProperty{}, nil
	}
	return out.Data.Properties, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
