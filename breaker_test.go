package restclient

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceBreakersDefaults(t *testing.T) {
	rb := newResourceBreakers(BreakerSettings{})

	assert.Equal(t, uint32(defaultBreakerFailures), rb.settings.ConsecutiveFailures)
	assert.Equal(t, defaultBreakerTimeout, rb.settings.Timeout)
}

func TestResourceBreakersPerKey(t *testing.T) {
	rb := newResourceBreakers(BreakerSettings{})

	first := rb.get(nethttp.MethodGet, "/orders")
	again := rb.get(nethttp.MethodGet, "/orders")
	other := rb.get(nethttp.MethodPost, "/orders")

	assert.Same(t, first, again, "one breaker per method and path")
	assert.NotSame(t, first, other)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	rb := newResourceBreakers(BreakerSettings{ConsecutiveFailures: 2, Timeout: time.Minute})

	var invocations atomic.Int32
	fail := func() (*nethttp.Response, error) {
		invocations.Add(1)
		return nil, fmt.Errorf("connection refused")
	}

	_, err := rb.execute(nethttp.MethodGet, "/down", fail)
	require.Error(t, err)
	_, err = rb.execute(nethttp.MethodGet, "/down", fail)
	require.Error(t, err)

	_, err = rb.execute(nethttp.MethodGet, "/down", fail)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), invocations.Load(), "open breaker must not invoke the transport")
}

func TestIsBreakerRejection(t *testing.T) {
	assert.True(t, isBreakerRejection(gobreaker.ErrOpenState))
	assert.True(t, isBreakerRejection(gobreaker.ErrTooManyRequests))
	assert.True(t, isBreakerRejection(fmt.Errorf("wrapped: %w", gobreaker.ErrOpenState)))
	assert.False(t, isBreakerRejection(fmt.Errorf("plain failure")))
	assert.False(t, isBreakerRejection(nil))
}

func TestClientBreakerRejection(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewBuilder(&fakeLogger{}).
		WithBaseURL(url).
		WithCircuitBreaker(BreakerSettings{ConsecutiveFailures: 2, Timeout: time.Minute}).
		Build()
	ctx := context.Background()

	_, err := c.Get(ctx, &Request{URL: "/down"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, gobreaker.ErrOpenState))

	_, err = c.Get(ctx, &Request{URL: "/down"})
	require.Error(t, err)

	_, err = c.Get(ctx, &Request{URL: "/down"})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, TransportError))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "third call is rejected without dialing")

	t.Run("other resources unaffected", func(t *testing.T) {
		_, err := c.Get(ctx, &Request{URL: "/healthy-path"})
		require.Error(t, err)
		assert.True(t, IsErrorType(err, TransportError))
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState), "each resource has its own breaker")
	})
}

func TestBreakerIgnoresStatusFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits.Add(1)
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewBuilder(&fakeLogger{}).
		WithBaseURL(srv.URL).
		WithCircuitBreaker(BreakerSettings{ConsecutiveFailures: 2, Timeout: time.Minute}).
		WithAttempts(4).
		Build()

	_, err := c.Get(context.Background(), &Request{URL: "/erroring"})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, StatusError))
	assert.Equal(t, int32(4), hits.Load(), "5xx responses stay in the retry loop, they do not trip the breaker")
}
