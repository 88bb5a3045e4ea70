package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInterceptSeesResponseAndPassesErrorThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("t"))
	var seen []int
	eject := c.Intercept(func(resp *http.Response) {
		seen = append(seen, resp.StatusCode)
	})
	defer eject()

	_, err := c.GetMe(context.Background())
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("caller error = %v, want HTTP 401", err)
	}
	if len(seen) != 1 || seen[0] != http.StatusUnauthorized {
		t.Errorf("hook saw %v, want [401]", seen)
	}
}

func TestInterceptOrderAndEject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("{}")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	var order []string
	ejectA := c.Intercept(func(*http.Response) { order = append(order, "a") })
	ejectB := c.Intercept(func(*http.Response) { order = append(order, "b") })

	if _, err := c.GetMe(context.Background()); err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}

	ejectA()
	ejectA() // idempotent
	if got := c.Interceptors(); got != 1 {
		t.Fatalf("Interceptors() = %d, want 1", got)
	}

	order = nil
	if _, err := c.WithBearer("x").GetMe(context.Background()); err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if len(order) != 1 || order[0] != "b" {
		t.Errorf("order after eject = %v, want [b]", order)
	}
	ejectB()
	if got := c.Interceptors(); got != 0 {
		t.Errorf("Interceptors() = %d, want 0", got)
	}
}
