package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// BackoffConfig controls retry and exponential backoff behaviour.
// MaxAttempts counts total invocations, including the first one.
type BackoffConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Jitter          bool
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// transient 5xx codes that are worth retrying; everything else non-2xx is
// treated as permanent.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// PermanentError marks an upstream rejection that will not succeed on retry.
// Status is the HTTP status code, or 0 when the failure is not status-based
// (e.g. an open circuit breaker).
type PermanentError struct {
	Status int
	Reason string
}

func (e *PermanentError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("permanent upstream error: status %d", e.Status)
	}
	return "permanent upstream error: " + e.Reason
}

// RetryExhaustedError reports that transient failures persisted past the
// attempt cap. It wraps the last observed error.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// backoffDelay returns the sleep before the next attempt after the given
// 1-based attempt number. Delays never decrease across attempts: the base
// doubles each time, jitter is bounded by half the base, and the cap clamps
// the total.
func backoffDelay(cfg BackoffConfig, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.InitialInterval) * math.Pow(2, float64(attempt-1)))
	if cfg.Jitter && delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))
	}
	if cfg.MaxInterval > 0 && delay > cfg.MaxInterval {
		delay = cfg.MaxInterval
	}
	return delay
}

// doRequestWithRetry executes the HTTP request with bounded retries,
// exponential backoff, a circuit breaker, and an optional shared client-side
// rate limiter gating every attempt.
//
// 429 and transient 5xx responses are retried up to MaxAttempts total
// invocations, then reported as *RetryExhaustedError. Any other non-2xx
// response fails immediately as *PermanentError. Transport errors are treated
// as transient.
func doRequestWithRetry(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	limiter *rate.Limiter,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxAttempts < 1 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var lastErr error

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, fmt.Errorf("%w: %d", errRateLimited, resp.StatusCode)
			case isTransientStatus(resp.StatusCode):
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			default:
				return nil, &PermanentError{Status: resp.StatusCode}
			}
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// Non-retryable failure classes propagate immediately.
		var perm *PermanentError
		if errors.As(err, &perm) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &PermanentError{Reason: fmt.Sprintf("circuit breaker open: %v", err)}
		}

		lastErr = err
		if attempt >= cfg.Backoff.MaxAttempts {
			return nil, &RetryExhaustedError{Attempts: attempt, Last: lastErr}
		}

		timer := time.NewTimer(backoffDelay(cfg.Backoff, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
			// continue to next attempt
		}
	}
}
