// Package upstream implements the clients for the third-party APIs proxied by the server.
// Every call is a single attempt bounded by a timeout. Callers degrade to defaults on failure.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tabhome/tabhome/internal/config"
	"github.com/tabhome/tabhome/internal/metrics"
)

// maxBodySize bounds how much of an upstream response is read.
const maxBodySize = 1 << 20

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d: %s", e.Code, e.Body)
}

// caller performs GET requests against one upstream.
type caller struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        *log.Logger
}

func newCaller(name string, timeout time.Duration, bc *config.BreakerConfig) *caller {
	c := &caller{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Default().WithPrefix("upstream").With("upstream", name),
	}
	if bc != nil && bc.Enabled {
		c.breaker = newBreaker(name, bc, c.log)
	}
	return c
}

func newBreaker(name string, bc *config.BreakerConfig, logger *log.Logger) *gobreaker.CircuitBreaker[[]byte] {
	metrics.SetBreakerState(name, stateToFloat(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     bc.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.Failures
		},
		// 4xx answers mean the upstream is healthy, e.g. an unknown city.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
			metrics.SetBreakerState(name, stateToFloat(to))
		},
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// get fetches reqURL and returns the body of a 2xx response.
func (c *caller) get(ctx context.Context, reqURL string, header http.Header) ([]byte, error) {
	start := time.Now()
	var (
		body []byte
		err  error
	)
	if c.breaker != nil {
		body, err = c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, reqURL, header)
		})
	} else {
		body, err = c.do(ctx, reqURL, header)
	}

	switch {
	case err == nil:
		metrics.RecordUpstream(c.name, metrics.ResultSuccess, time.Since(start))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordUpstream(c.name, metrics.ResultRejected, time.Since(start))
		c.log.Debug("request rejected by circuit breaker")
	default:
		metrics.RecordUpstream(c.name, metrics.ResultFailure, time.Since(start))
		c.log.Warn("request failed", "error", err)
	}
	return body, err
}

func (c *caller) do(ctx context.Context, reqURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
