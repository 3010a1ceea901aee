package formz

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Pipeline identities.
var (
	submitID         = pipz.NewIdentity("formz:submit", "Catalog create or update")
	retryID          = pipz.NewIdentity("formz:retry", "Retries failed submissions")
	backoffID        = pipz.NewIdentity("formz:backoff", "Retries failed submissions with exponential backoff")
	timeoutID        = pipz.NewIdentity("formz:timeout", "Bounds submission duration")
	fallbackID       = pipz.NewIdentity("formz:fallback", "Tries alternate catalogs on failure")
	circuitBreakerID = pipz.NewIdentity("formz:circuit-breaker", "Rejects submissions after repeated failures")
	errorHandlerID   = pipz.NewIdentity("formz:error-handler", "Observes submission errors")
	middlewareID     = pipz.NewIdentity("formz:middleware", "Runs middleware before the catalog call")
	rateLimiterID    = pipz.NewIdentity("formz:rate-limiter", "Limits submission rate")
	useRetryID       = pipz.NewIdentity("formz:use-retry", "Retries a middleware processor")
	useTimeoutID     = pipz.NewIdentity("formz:use-timeout", "Bounds a middleware processor")
)

// Option configures the submit pipeline of a Form. Pipeline options wrap
// the catalog call with middleware for retry, timeout, circuit breaking,
// and other reliability patterns.
//
// Instance configuration (debounce, clock, metrics, etc.) is handled via
// chainable methods on the Form before calling Open().
type Option func(pipz.Chainable[*Submission]) pipz.Chainable[*Submission]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline(terminal pipz.Chainable[*Submission], opts []Option) pipz.Chainable[*Submission] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// -----------------------------------------------------------------------------
// Pipeline Options - Wrapping (With*)
// -----------------------------------------------------------------------------

// WithRetry wraps the pipeline with retry logic.
// Failed submissions are retried immediately up to maxAttempts times.
func WithRetry(maxAttempts int) Option {
	return func(p pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
		return pipz.NewRetry(retryID, p, maxAttempts)
	}
}

// WithBackoff wraps the pipeline with exponential backoff retry logic.
// Delays grow as baseDelay, 2*baseDelay, 4*baseDelay and so on.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(p pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
		return pipz.NewBackoff(backoffID, p, maxAttempts, baseDelay)
	}
}

// WithTimeout bounds each submission. The identifier lookup is not
// affected; it has no deadline of its own.
func WithTimeout(d time.Duration) Option {
	return func(p pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
		return pipz.NewTimeout(timeoutID, p, d)
	}
}

// WithFallback tries each fallback in order when the primary pipeline fails.
// A fallback typically targets a secondary catalog.
func WithFallback(fallbacks ...pipz.Chainable[*Submission]) Option {
	return func(p pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
		all := append([]pipz.Chainable[*Submission]{p}, fallbacks...)
		return pipz.NewFallback(fallbackID, all...)
	}
}

// WithCircuitBreaker opens after 'failures' consecutive failures and
// rejects submissions until 'recovery' has passed.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(p pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
		return pipz.NewCircuitBreaker(circuitBreakerID, p, failures, recovery)
	}
}

// WithErrorHandler passes failed submissions to handler for logging or
// alerting. The error still propagates to the caller of Submit.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*Submission]]) Option {
	return func(p pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
		return pipz.NewHandle(errorHandlerID, p, handler)
	}
}

// WithRateLimit wraps the pipeline with a token bucket limiter. When tokens
// are exhausted, submissions wait for availability.
func WithRateLimit(rate float64, burst int) Option {
	return func(p pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
		return pipz.NewRateLimiter(rateLimiterID, rate, burst, p)
	}
}

// WithMiddleware runs processors in order before the catalog call.
//
// Example:
//
//	form := formz.New(catalog, "",
//	    formz.WithMiddleware(
//	        formz.UseTransform(normalizeID, func(_ context.Context, s *formz.Submission) *formz.Submission {
//	            s.Item.ID = strings.ToUpper(s.Item.ID)
//	            return s
//	        }),
//	    ),
//	    formz.WithBackoff(3, 100*time.Millisecond),
//	    formz.WithRateLimit(5, 1),
//	)
func WithMiddleware(processors ...pipz.Chainable[*Submission]) Option {
	return func(p pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
		all := make([]pipz.Chainable[*Submission], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence(middlewareID, all...)
	}
}

// -----------------------------------------------------------------------------
// Middleware Processors (Use*)
// -----------------------------------------------------------------------------

// UseTransform creates a processor that rewrites the submission. Cannot fail.
func UseTransform(id pipz.Identity, fn func(context.Context, *Submission) *Submission) pipz.Chainable[*Submission] {
	return pipz.Transform(id, fn)
}

// UseApply creates a processor that can rewrite the submission and fail.
// A failure aborts the submission before the catalog is called.
func UseApply(id pipz.Identity, fn func(context.Context, *Submission) (*Submission, error)) pipz.Chainable[*Submission] {
	return pipz.Apply(id, fn)
}

// UseEffect creates a processor that performs a side effect.
// The submission passes through unchanged.
func UseEffect(id pipz.Identity, fn func(context.Context, *Submission) error) pipz.Chainable[*Submission] {
	return pipz.Effect(id, fn)
}

// UseRetry wraps a single processor with retry logic.
func UseRetry(maxAttempts int, processor pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
	return pipz.NewRetry(useRetryID, processor, maxAttempts)
}

// UseTimeout bounds a single processor.
func UseTimeout(d time.Duration, processor pipz.Chainable[*Submission]) pipz.Chainable[*Submission] {
	return pipz.NewTimeout(useTimeoutID, processor, d)
}

