package restclient

import (
	"errors"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 60 * time.Second
)

// BreakerSettings configures the per-resource circuit breaker. A resource is
// a method plus URL path; each resource gets its own breaker so one failing
// endpoint does not block the rest.
type BreakerSettings struct {
	// ConsecutiveFailures is how many failures in a row open the breaker.
	ConsecutiveFailures uint32

	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// Interval is the closed-state window after which counts reset.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
}

// resourceBreakers lazily creates one circuit breaker per resource key.
type resourceBreakers struct {
	settings BreakerSettings
	breakers sync.Map // string -> *gobreaker.CircuitBreaker[*nethttp.Response]
}

func newResourceBreakers(settings BreakerSettings) *resourceBreakers {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = defaultBreakerFailures
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultBreakerTimeout
	}
	return &resourceBreakers{settings: settings}
}

func (rb *resourceBreakers) get(method, path string) *gobreaker.CircuitBreaker[*nethttp.Response] {
	key := method + "_" + path
	if cb, ok := rb.breakers.Load(key); ok {
		return cb.(*gobreaker.CircuitBreaker[*nethttp.Response])
	}

	threshold := rb.settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[*nethttp.Response](gobreaker.Settings{
		Name:        key,
		MaxRequests: rb.settings.MaxRequests,
		Interval:    rb.settings.Interval,
		Timeout:     rb.settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	actual, _ := rb.breakers.LoadOrStore(key, cb)
	return actual.(*gobreaker.CircuitBreaker[*nethttp.Response])
}

// execute runs fn through the resource's breaker. Transport errors count as
// breaker failures; non-success statuses do not, they are handled by the
// retry loop.
func (rb *resourceBreakers) execute(method, path string, fn func() (*nethttp.Response, error)) (*nethttp.Response, error) {
	return rb.get(method, path).Execute(fn)
}

// isBreakerRejection reports whether the breaker refused to run the request
// at all, as opposed to the request itself failing.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
