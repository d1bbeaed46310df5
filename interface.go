package restclient

import (
	"context"
	nethttp "net/http"
	"time"
)

// Client defines the REST client interface for making HTTP requests
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)

	// SetBaseURL replaces the prefix prepended to relative request URLs.
	// Concurrent requests observe either the old or the new value.
	SetBaseURL(baseURL string)

	// SetToken replaces the bearer token sent as the Authorization header.
	// Concurrent requests observe either the old or the new value.
	SetToken(token string)

	// OnBefore registers a hook invoked once per logical request before the
	// first attempt. Hooks run in registration order and cannot be removed.
	OnBefore(hook BeforeHook)

	// OnAfter registers a hook invoked once per successful request after the
	// response body has been decoded. Hooks run in registration order and
	// cannot be removed.
	OnAfter(hook AfterHook)

	// OnLoading registers an observer of the loading state. Observers run in
	// registration order and cannot be removed.
	OnLoading(fn LoadingFunc)
}

// Request represents an HTTP request with all necessary data. The zero value
// of every optional field means "use the client default".
type Request struct {
	URL     string
	Headers map[string]string
	Body    []byte

	// Cache is a caching-intent hint forwarded as a Cache-Control request
	// header. Zero value: CacheDefault for GET, CacheNoStore otherwise.
	Cache CacheMode

	// RevalidateAfter is an advisory freshness window carried to hooks. It is
	// never sent on the wire.
	RevalidateAfter time.Duration

	// Timeout is the per-attempt deadline. Zero means the client default;
	// negative values expire immediately.
	Timeout time.Duration

	// Attempts is the total attempt budget including the first try. Zero means
	// the client default; negative values are rejected before any attempt.
	Attempts int

	// Debug enables payload logging for this request only.
	Debug bool

	// ShowLoading broadcasts the loading state to registered observers.
	ShowLoading bool
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte

	// Data is the decoded body: map/slice/etc. for JSON, string for text,
	// []byte for anything else, nil for an empty body.
	Data any

	// Kind records which decoding branch produced Data.
	Kind BodyKind

	Stats Stats

	// validator, when set, checks values produced by Decode.
	validator *Validator
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration

	// Attempts is how many attempts this request consumed.
	Attempts int

	// CallCount is the client-wide number of attempts issued so far.
	CallCount int64
}

// BodyKind identifies the classification branch a response body went through
type BodyKind string

const (
	BodyJSON   BodyKind = "json"
	BodyText   BodyKind = "text"
	BodyBinary BodyKind = "binary"
	BodyNone   BodyKind = "none"
)

// CacheMode expresses caching intent for a request
type CacheMode string

const (
	CacheDefault      CacheMode = "default"
	CacheNoStore      CacheMode = "no-store"
	CacheNoCache      CacheMode = "no-cache"
	CacheReload       CacheMode = "reload"
	CacheForceCache   CacheMode = "force-cache"
	CacheOnlyIfCached CacheMode = "only-if-cached"
)

// DefaultCacheMode returns the cache mode used when a request does not set
// one: CacheDefault for GET, CacheNoStore for writes.
func DefaultCacheMode(method string) CacheMode {
	if method == nethttp.MethodGet {
		return CacheDefault
	}
	return CacheNoStore
}

// RequestInfo is the read-only descriptor passed to before hooks. It is a
// value copy of the fully composed request; mutating it has no effect on the
// request that is sent.
type RequestInfo struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            []byte
	Cache           CacheMode
	RevalidateAfter time.Duration
	Timeout         time.Duration
	Attempts        int
}

// BeforeHook is called once per logical request before the first attempt.
// Returning an error aborts the request without consuming any attempts.
type BeforeHook func(ctx context.Context, info RequestInfo) error

// AfterHook is called once per successful request after the body has been
// decoded. Returning an error surfaces as a hook error alongside the response.
type AfterHook func(ctx context.Context, url string, resp *Response) error

// LoadingFunc observes the loading state of requests sent with ShowLoading.
// It receives true before the first attempt and false when the request
// settles, on every termination path.
type LoadingFunc func(loading bool, url string)
