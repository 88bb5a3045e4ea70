package client

import (
	"net/http"
	"sort"
	"sync"
)

// ResponseHook observes every response the client receives, before the
// caller sees it. Hooks must not read or close the body.
type ResponseHook func(*http.Response)

type hookTransport struct {
	base http.RoundTripper

	mu    sync.RWMutex
	next  int
	hooks map[int]ResponseHook
}

func newHookTransport(base http.RoundTripper) *hookTransport {
	return &hookTransport{base: base, hooks: make(map[int]ResponseHook)}
}

func (t *hookTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	for _, h := range t.snapshot() {
		h(resp)
	}
	return resp, nil
}

// snapshot returns the hooks in registration order.
func (t *hookTransport) snapshot() []ResponseHook {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.hooks) == 0 {
		return nil
	}
	ids := make([]int, 0, len(t.hooks))
	for id := range t.hooks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]ResponseHook, len(ids))
	for i, id := range ids {
		out[i] = t.hooks[id]
	}
	return out
}

// Intercept registers h on every response this client (and clients derived
// with WithBearer) receives. The returned eject func removes it; calling it
// more than once is harmless.
func (c *Client) Intercept(h ResponseHook) (eject func()) {
	t := c.hooks
	t.mu.Lock()
	id := t.next
	t.next++
	t.hooks[id] = h
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.hooks, id)
			t.mu.Unlock()
		})
	}
}

// Interceptors returns the number of registered hooks.
func (c *Client) Interceptors() int {
	c.hooks.mu.RLock()
	defer c.hooks.mu.RUnlock()
	return len(c.hooks.hooks)
}
