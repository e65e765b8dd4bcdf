package httpx

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"
)

func TestGet_InjectsDefaultsWithoutClobbering(t *testing.T) {
    var got http.Header
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        got = r.Header.Clone()
    }))
    defer srv.Close()

    c := New(Config{
        Timeout:   time.Second,
        UserAgent: "gw-test/1.0",
        Headers:   map[string]string{"Accept": "application/json", "X-Source": "default"},
    })
    resp, err := c.Get(context.Background(), srv.URL, map[string]string{"X-Source": "request"})
    if err != nil { t.Fatal(err) }
    resp.Body.Close()

    if got.Get("User-Agent") != "gw-test/1.0" {
        t.Fatalf("user agent not injected: %q", got.Get("User-Agent"))
    }
    if got.Get("Accept") != "application/json" {
        t.Fatalf("default header missing: %v", got)
    }
    // per-request header wins over the client default
    if got.Get("X-Source") != "request" {
        t.Fatalf("request header clobbered: %q", got.Get("X-Source"))
    }
}

func TestSnippet_CapsLongBodies(t *testing.T) {
    long := strings.Repeat("x", 100)
    if s := Snippet(strings.NewReader(long), 10); len(s) != 10 {
        t.Fatalf("want 10 bytes, got %d", len(s))
    }
    if s := Snippet(strings.NewReader("short"), 10); s != "short" {
        t.Fatalf("short body mangled: %q", s)
    }
}
