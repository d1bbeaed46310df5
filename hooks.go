package restclient

import (
	"context"
	"fmt"
	"sync"
)

// hookRegistry holds the ordered observer registries. Registration appends;
// there is no removal. Snapshots are taken per request so hooks registered
// mid-flight apply only to later requests.
type hookRegistry struct {
	mu      sync.RWMutex
	before  []BeforeHook
	after   []AfterHook
	loading []LoadingFunc
}

func (h *hookRegistry) addBefore(hook BeforeHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.before = append(h.before, hook)
}

func (h *hookRegistry) addAfter(hook AfterHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.after = append(h.after, hook)
}

func (h *hookRegistry) addLoading(fn LoadingFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loading = append(h.loading, fn)
}

func (h *hookRegistry) beforeSnapshot() []BeforeHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.before[:len(h.before):len(h.before)]
}

func (h *hookRegistry) afterSnapshot() []AfterHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.after[:len(h.after):len(h.after)]
}

func (h *hookRegistry) loadingSnapshot() []LoadingFunc {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading[:len(h.loading):len(h.loading)]
}

// runBeforeHooks invokes the before hooks in registration order. The first
// failure aborts the chain.
func (c *client) runBeforeHooks(ctx context.Context, info RequestInfo) error {
	for i, hook := range c.hooks.beforeSnapshot() {
		if err := hook(ctx, info); err != nil {
			return NewHookError("before hook failed", fmt.Sprintf("before[%d]", i), err)
		}
	}
	return nil
}

// runAfterHooks invokes the after hooks in registration order. The first
// failure aborts the chain.
func (c *client) runAfterHooks(ctx context.Context, url string, resp *Response) error {
	for i, hook := range c.hooks.afterSnapshot() {
		if err := hook(ctx, url, resp); err != nil {
			return NewHookError("after hook failed", fmt.Sprintf("after[%d]", i), err)
		}
	}
	return nil
}

// broadcastLoading notifies loading observers in registration order. Observer
// panics are not recovered; observers are expected to be cheap and safe.
func (c *client) broadcastLoading(loading bool, url string) {
	for _, fn := range c.hooks.loadingSnapshot() {
		fn(loading, url)
	}
}
