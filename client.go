package restclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"maps"
	"math/big"
	"net"
	nethttp "net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gaborage/go-restclient/config"
	"github.com/gaborage/go-restclient/logger"
	"github.com/gaborage/go-restclient/trace"
)

const (
	// DefaultTimeout is the default per-attempt deadline
	DefaultTimeout = 8 * time.Second

	// DefaultAttempts is the default total attempt budget (no retries)
	DefaultAttempts = 1

	// DefaultMaxPayloadLogBytes is the default cap on logged payload previews
	DefaultMaxPayloadLogBytes = 1024

	headerAuthorization = "Authorization"
	headerCacheControl  = "Cache-Control"
	bearerPrefix        = "Bearer "
)

// client implements the Client interface
type client struct {
	httpClient *nethttp.Client
	logger     logger.Logger

	// mu guards baseURL and token. Concurrent requests read both at
	// composition time and may observe either side of an update.
	mu      sync.RWMutex
	baseURL string
	token   string

	timeout        time.Duration
	attempts       int
	backoff        time.Duration
	defaultHeaders map[string]string

	payloadLogging     bool
	maxPayloadLogBytes int

	requestIDHeader string
	w3cTrace        bool

	hooks     hookRegistry
	breaker   *resourceBreakers
	metrics   *Metrics
	validator *Validator

	callCount int64
}

// NewClient creates a new REST client with default configuration
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	logger             logger.Logger
	httpClient         *nethttp.Client
	transport          nethttp.RoundTripper
	baseURL            string
	token              string
	timeout            time.Duration
	attempts           int
	backoff            time.Duration
	defaultHeaders     map[string]string
	payloadLogging     bool
	maxPayloadLogBytes int
	requestIDHeader    string
	w3cTrace           bool
	before             []BeforeHook
	after              []AfterHook
	loading            []LoadingFunc
	breaker            *BreakerSettings
	metrics            *Metrics
	validator          *Validator
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Builder{
		logger:             log,
		timeout:            DefaultTimeout,
		attempts:           DefaultAttempts,
		maxPayloadLogBytes: DefaultMaxPayloadLogBytes,
		requestIDHeader:    trace.HeaderXRequestID,
		defaultHeaders:     make(map[string]string),
	}
}

// WithBaseURL sets the prefix prepended to relative request URLs
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// WithToken sets the bearer token sent as the Authorization header
func (b *Builder) WithToken(token string) *Builder {
	b.token = token
	return b
}

// WithTimeout sets the per-attempt deadline
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithAttempts sets the total attempt budget, including the first try
func (b *Builder) WithAttempts(attempts int) *Builder {
	b.attempts = attempts
	return b
}

// WithRetryBackoff enables jittered exponential delays between attempts,
// using base as the first delay. Zero keeps retries immediate.
func (b *Builder) WithRetryBackoff(base time.Duration) *Builder {
	b.backoff = base
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.defaultHeaders[key] = value
	return b
}

// WithHTTPClient replaces the underlying HTTP client
func (b *Builder) WithHTTPClient(httpClient *nethttp.Client) *Builder {
	b.httpClient = httpClient
	return b
}

// WithTransport sets the transport of the underlying HTTP client
func (b *Builder) WithTransport(transport nethttp.RoundTripper) *Builder {
	b.transport = transport
	return b
}

// WithPayloadLogging enables debug-level logging of request and response
// payloads for every request. maxBytes caps the logged body preview;
// values <= 0 use the default cap.
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.payloadLogging = true
	if maxBytes > 0 {
		b.maxPayloadLogBytes = maxBytes
	}
	return b
}

// WithRequestIDHeader changes the header used for request ID injection.
// An empty name disables injection.
func (b *Builder) WithRequestIDHeader(name string) *Builder {
	b.requestIDHeader = name
	return b
}

// WithW3CTrace enables traceparent/tracestate header propagation
func (b *Builder) WithW3CTrace() *Builder {
	b.w3cTrace = true
	return b
}

// WithBeforeHook registers a hook run once per request before the first attempt
func (b *Builder) WithBeforeHook(hook BeforeHook) *Builder {
	b.before = append(b.before, hook)
	return b
}

// WithAfterHook registers a hook run once per successful request after decode
func (b *Builder) WithAfterHook(hook AfterHook) *Builder {
	b.after = append(b.after, hook)
	return b
}

// WithLoadingFunc registers a loading state observer
func (b *Builder) WithLoadingFunc(fn LoadingFunc) *Builder {
	b.loading = append(b.loading, fn)
	return b
}

// WithCircuitBreaker enables the per-resource circuit breaker
func (b *Builder) WithCircuitBreaker(settings BreakerSettings) *Builder {
	b.breaker = &settings
	return b
}

// WithMetrics attaches Prometheus collectors for attempt outcomes
func (b *Builder) WithMetrics(metrics *Metrics) *Builder {
	b.metrics = metrics
	return b
}

// WithValidator attaches struct-tag validation of payloads decoded through
// Response.Decode
func (b *Builder) WithValidator(v *Validator) *Builder {
	b.validator = v
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &nethttp.Client{}
	}
	if b.transport != nil {
		httpClient.Transport = b.transport
	}

	attempts := b.attempts
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	timeout := b.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &client{
		httpClient:         httpClient,
		logger:             b.logger,
		baseURL:            b.baseURL,
		token:              b.token,
		timeout:            timeout,
		attempts:           attempts,
		backoff:            b.backoff,
		defaultHeaders:     maps.Clone(b.defaultHeaders),
		payloadLogging:     b.payloadLogging,
		maxPayloadLogBytes: b.maxPayloadLogBytes,
		requestIDHeader:    b.requestIDHeader,
		w3cTrace:           b.w3cTrace,
		metrics:            b.metrics,
		validator:          b.validator,
	}
	if b.breaker != nil {
		c.breaker = newResourceBreakers(*b.breaker)
	}
	for _, hook := range b.before {
		c.hooks.addBefore(hook)
	}
	for _, hook := range b.after {
		c.hooks.addAfter(hook)
	}
	for _, fn := range b.loading {
		c.hooks.addLoading(fn)
	}
	return c
}

// NewClientFromConfig creates a client from a loaded configuration
func NewClientFromConfig(cfg *config.Config, log logger.Logger) Client {
	b := NewBuilder(log).
		WithBaseURL(cfg.Client.BaseURL).
		WithToken(cfg.Client.Token).
		WithTimeout(cfg.Client.Timeout).
		WithAttempts(cfg.Client.Attempts).
		WithRetryBackoff(cfg.Client.Backoff)

	for key, value := range cfg.Client.Headers {
		b.WithDefaultHeader(key, value)
	}
	if cfg.Client.Debug {
		b.WithPayloadLogging(0)
	}
	if cfg.Breaker.Enabled {
		b.WithCircuitBreaker(BreakerSettings{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			MaxRequests:         cfg.Breaker.MaxRequests,
			Interval:            cfg.Breaker.Interval,
			Timeout:             cfg.Breaker.Timeout,
		})
	}
	if cfg.Metrics.Enabled {
		b.WithMetrics(NewMetrics(cfg.Metrics.Namespace))
	}
	return b.Build()
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// SetBaseURL replaces the prefix prepended to relative request URLs
func (c *client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = baseURL
	c.mu.Unlock()
}

// SetToken replaces the bearer token sent as the Authorization header
func (c *client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// OnBefore registers a before hook
func (c *client) OnBefore(hook BeforeHook) {
	c.hooks.addBefore(hook)
}

// OnAfter registers an after hook
func (c *client) OnAfter(hook AfterHook) {
	c.hooks.addAfter(hook)
}

// OnLoading registers a loading state observer
func (c *client) OnLoading(fn LoadingFunc) {
	c.hooks.addLoading(fn)
}

// Do performs an HTTP request with the specified method
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	comp, err := c.compose(ctx, method, req)
	if err != nil {
		return nil, err
	}

	if err := c.runBeforeHooks(ctx, c.requestInfo(comp)); err != nil {
		return nil, err
	}

	if req.ShowLoading {
		c.broadcastLoading(true, comp.url)
		defer c.broadcastLoading(false, comp.url)
	}

	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= comp.attempts; attempt++ {
		if attempt > 1 {
			// The caller abandoned the request; surface the last attempt
			// error instead of burning the remaining budget.
			if ctx.Err() != nil {
				break
			}
			if c.backoff > 0 {
				time.Sleep(c.backoffDelay(attempt - 2))
			}
		}

		resp, err := c.attempt(ctx, comp, attempt, start)
		if err != nil {
			lastErr = err
			c.logAttemptFailure(comp, attempt, err)
			if attempt < comp.attempts {
				c.metrics.RecordRetry(comp.method)
			}
			continue
		}

		if hookErr := c.runAfterHooks(ctx, comp.url, resp); hookErr != nil {
			return resp, hookErr
		}

		c.logResponse(comp, resp)
		return resp, nil
	}

	c.logFailure(comp, lastErr, time.Since(start))
	return nil, lastErr
}

// attempt executes a single attempt under its own deadline. The cancel
// function is this attempt's disposer: idempotent, and called as soon as the
// attempt settles so a stale timer can never touch a later attempt.
func (c *client) attempt(ctx context.Context, comp *composedRequest, attempt int, start time.Time) (*Response, error) {
	callCount := atomic.AddInt64(&c.callCount, 1)
	attemptStart := time.Now()

	c.metrics.AttemptStarted()
	defer c.metrics.AttemptDone()

	attemptCtx, cancel := context.WithTimeout(ctx, comp.timeout)
	defer cancel()

	httpReq, err := c.buildRequest(attemptCtx, comp)
	if err != nil {
		c.metrics.RecordAttempt(comp.method, outcomeLabel(err), time.Since(attemptStart))
		return nil, err
	}

	c.logRequest(comp, attempt, callCount)

	httpResp, err := c.send(comp, httpReq)
	if err != nil {
		wrapped := c.wrapSendError(err, comp.timeout)
		c.metrics.RecordAttempt(comp.method, outcomeLabel(wrapped), time.Since(attemptStart))
		return nil, wrapped
	}

	resp, err := c.buildResponse(start, callCount, httpResp, comp.timeout)
	// Body fully read, this attempt's timer can be released.
	cancel()
	if err != nil {
		c.metrics.RecordAttempt(comp.method, outcomeLabel(err), time.Since(attemptStart))
		return nil, err
	}

	c.metrics.RecordAttempt(comp.method, strconv.Itoa(resp.StatusCode), time.Since(attemptStart))

	if !IsSuccessStatus(resp.StatusCode) {
		return nil, NewStatusError(
			fmt.Sprintf("request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Body,
		)
	}

	data, kind, err := classifyBody(resp.Headers.Get(headerContentType), resp.Body)
	if err != nil {
		return nil, err
	}

	resp.Data = data
	resp.Kind = kind
	resp.Stats.Attempts = attempt
	resp.validator = c.validator
	return resp, nil
}

// send runs the transport call, through the circuit breaker when one is
// configured.
func (c *client) send(comp *composedRequest, httpReq *nethttp.Request) (*nethttp.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(httpReq)
	}
	return c.breaker.execute(comp.method, httpReq.URL.Path, func() (*nethttp.Response, error) {
		return c.httpClient.Do(httpReq)
	})
}

func (c *client) wrapSendError(err error, timeout time.Duration) error {
	if isBreakerRejection(err) {
		return NewTransportError("circuit breaker rejected the request", err)
	}
	if c.isTimeout(err) {
		return NewTimeoutError("request timeout", timeout)
	}
	return NewTransportError("request execution failed", err)
}

// composedRequest is the fully resolved form of a Request: absolute URL,
// merged headers, and per-call settings with client defaults applied.
type composedRequest struct {
	method          string
	url             string
	headers         map[string]string
	body            []byte
	cache           CacheMode
	revalidateAfter time.Duration
	timeout         time.Duration
	attempts        int
	debug           bool
	requestID       string
}

// compose resolves the request against client state. Header precedence, low
// to high: built-in Content-Type default, client default headers, injected
// trace headers, caller headers, the bearer credential.
func (c *client) compose(ctx context.Context, method string, req *Request) (*composedRequest, error) {
	c.mu.RLock()
	baseURL, token := c.baseURL, c.token
	c.mu.RUnlock()

	rawURL := req.URL
	if !isAbsoluteURL(rawURL) {
		if baseURL == "" {
			return nil, NewValidationError("relative URL requires a base URL", "url")
		}
		// Verbatim prepend, no slash normalization.
		rawURL = baseURL + rawURL
	}

	attempts := req.Attempts
	if attempts == 0 {
		attempts = c.attempts
	}
	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	cache := req.Cache
	if cache == "" {
		cache = DefaultCacheMode(method)
	}

	headers := make(map[string]string, len(c.defaultHeaders)+len(req.Headers)+4)
	setHeader(headers, headerContentType, contentTypeJSON)
	for key, value := range c.defaultHeaders {
		setHeader(headers, key, value)
	}

	requestID := ""
	if c.requestIDHeader != "" {
		requestID = trace.EnsureRequestID(ctx)
		setHeader(headers, c.requestIDHeader, requestID)
	}
	if c.w3cTrace {
		parent, ok := trace.ParentFromContext(ctx)
		if !ok || parent == "" {
			parent = trace.GenerateTraceParent()
		}
		setHeader(headers, trace.HeaderTraceParent, parent)
		if state, ok := trace.StateFromContext(ctx); ok && state != "" {
			setHeader(headers, trace.HeaderTraceState, state)
		}
	}

	for key, value := range req.Headers {
		setHeader(headers, key, value)
	}

	if hint := cacheControlHint(cache); hint != "" {
		if _, ok := headers[headerCacheControl]; !ok {
			setHeader(headers, headerCacheControl, hint)
		}
	}

	// The credential wins over everything, including a caller-supplied
	// Authorization header.
	if token != "" {
		setHeader(headers, headerAuthorization, bearerPrefix+token)
	}

	return &composedRequest{
		method:          method,
		url:             rawURL,
		headers:         headers,
		body:            req.Body,
		cache:           cache,
		revalidateAfter: req.RevalidateAfter,
		timeout:         timeout,
		attempts:        attempts,
		debug:           req.Debug,
		requestID:       requestID,
	}, nil
}

// requestInfo builds the observe-only descriptor passed to before hooks.
func (c *client) requestInfo(comp *composedRequest) RequestInfo {
	return RequestInfo{
		Method:          comp.method,
		URL:             comp.url,
		Headers:         maps.Clone(comp.headers),
		Body:            bytes.Clone(comp.body),
		Cache:           comp.cache,
		RevalidateAfter: comp.revalidateAfter,
		Timeout:         comp.timeout,
		Attempts:        comp.attempts,
	}
}

// backoffDelay returns the exponential backoff delay for the given attempt,
// using the configured backoff as the base and capping to a reasonable maximum.
func (c *client) backoffDelay(attempt int) time.Duration {
	base := c.backoff
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	// Cap attempt to avoid overflow when computing multiplier
	if attempt > 20 { // 2^20 = 1,048,576
		attempt = 20
	}
	// Exponential backoff: base * 2^attempt
	mult := 1 << attempt
	d := base * time.Duration(mult)
	// Cap to 30 seconds to avoid excessive sleeps
	const maxBackoff = 30 * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	// Full jitter: random duration in [0, d)
	if d <= 0 {
		return base
	}
	maxN := big.NewInt(int64(d))
	n, err := crand.Int(crand.Reader, maxN)
	if err != nil {
		// On RNG failure, fall back to the full delay
		return d
	}
	return time.Duration(n.Int64())
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	if req.Attempts < 0 {
		return NewValidationError("attempts cannot be negative", "attempts")
	}
	return nil
}

// buildRequest constructs the per-attempt *nethttp.Request with a fresh body
// reader and the composed headers.
func (c *client) buildRequest(ctx context.Context, comp *composedRequest) (*nethttp.Request, error) {
	var body io.Reader
	if comp.body != nil {
		body = bytes.NewReader(comp.body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, comp.method, comp.url, body)
	if err != nil {
		return nil, NewTransportError("failed to create HTTP request", err)
	}

	for key, value := range comp.headers {
		httpReq.Header.Set(key, value)
	}
	return httpReq, nil
}

// buildResponse drains the response body and builds a Response. The body must
// be fully read while this attempt's deadline is still armed.
func (c *client) buildResponse(start time.Time, callCount int64, httpResp *nethttp.Response, timeout time.Duration) (*Response, error) {
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if c.isTimeout(err) {
			return nil, NewTimeoutError("response body read timed out", timeout)
		}
		return nil, NewTransportError("failed to read response body", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   callCount,
		},
	}, nil
}

func (c *client) isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// logRequest logs one outgoing attempt
func (c *client) logRequest(comp *composedRequest, attempt int, callCount int64) {
	event := c.logger.Info().
		Str("direction", "outbound").
		Str("method", comp.method).
		Str("url", comp.url).
		Int("attempt", attempt).
		Int64("call_count", callCount).
		Int("header_count", len(comp.headers)).
		Int("body_size", len(comp.body))

	if comp.requestID != "" {
		event = event.Str("request_id", comp.requestID)
	}

	event.Msg("REST client request")

	if c.payloadEnabled(comp) {
		preview, truncated := c.payloadPreview(comp.body)
		c.logger.Debug().
			Str("direction", "outbound").
			Str("url", comp.url).
			Interface("headers", comp.headers).
			Bytes("body_preview", preview).
			Str("body_truncated", strconv.FormatBool(truncated)).
			Msg("REST client request payload")
	}
}

// logResponse logs the settled successful response
func (c *client) logResponse(comp *composedRequest, resp *Response) {
	c.logger.Info().
		Str("direction", "inbound").
		Str("method", comp.method).
		Str("url", comp.url).
		Int("status", resp.StatusCode).
		Str("kind", string(resp.Kind)).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int("attempts", resp.Stats.Attempts).
		Int64("call_count", resp.Stats.CallCount).
		Msg("REST client response")

	if c.payloadEnabled(comp) {
		preview, truncated := c.payloadPreview(resp.Body)
		c.logger.Debug().
			Str("direction", "inbound").
			Str("url", comp.url).
			Interface("headers", flattenHeaders(resp.Headers)).
			Bytes("body_preview", preview).
			Str("body_truncated", strconv.FormatBool(truncated)).
			Msg("REST client response payload")
	}
}

// logAttemptFailure logs one failed attempt
func (c *client) logAttemptFailure(comp *composedRequest, attempt int, err error) {
	c.logger.Warn().
		Str("method", comp.method).
		Str("url", comp.url).
		Int("attempt", attempt).
		Int("attempt_budget", comp.attempts).
		Err(err).
		Msg("REST client attempt failed")
}

// logFailure logs a request whose whole attempt budget failed
func (c *client) logFailure(comp *composedRequest, err error, elapsed time.Duration) {
	c.logger.Error().
		Str("method", comp.method).
		Str("url", comp.url).
		Int("attempts", comp.attempts).
		Dur("elapsed", elapsed).
		Err(err).
		Msg("REST client request failed")
}

func (c *client) payloadEnabled(comp *composedRequest) bool {
	return c.payloadLogging || comp.debug
}

func (c *client) payloadPreview(body []byte) ([]byte, bool) {
	limit := c.maxPayloadLogBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], true
	}
	return body, false
}

func setHeader(headers map[string]string, key, value string) {
	headers[nethttp.CanonicalHeaderKey(key)] = value
}

// isAbsoluteURL reports whether rawURL already carries an http(s) scheme.
func isAbsoluteURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// cacheControlHint maps a cache mode to the Cache-Control directive sent as a
// hint. CacheDefault sends nothing.
func cacheControlHint(mode CacheMode) string {
	switch mode {
	case CacheNoStore:
		return "no-store"
	case CacheNoCache, CacheReload:
		return "no-cache"
	case CacheForceCache:
		return "max-stale"
	case CacheOnlyIfCached:
		return "only-if-cached"
	default:
		return ""
	}
}

func flattenHeaders(headers nethttp.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ", ")
	}
	return flat
}

// outcomeLabel is the metrics status label for a failed attempt.
func outcomeLabel(err error) string {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	return "error"
}
