package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPFetcherRender(t *testing.T) {
	t.Parallel()

	t.Run("fetches a page and fills in the record", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("User-Agent"); got != "test-agent" {
				t.Errorf("unexpected user agent %q", got)
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(server.Client(), WithUserAgent("test-agent"))
		page, err := fetcher.Render(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}

		if page.StatusCode != http.StatusOK {
			t.Errorf("status = %d", page.StatusCode)
		}
		if page.ContentType != "text/html" {
			t.Errorf("content type = %q, want parameters stripped", page.ContentType)
		}
		if !strings.Contains(string(page.Raw), "hello") {
			t.Errorf("body missing: %q", page.Raw)
		}
		if page.Hash == "" {
			t.Error("expected content hash to be set")
		}
	})

	t.Run("non-2xx status is a hard failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(server.Client())
		_, err := fetcher.Render(context.Background(), server.URL)
		if !errors.Is(err, ErrHTTPStatus) {
			t.Errorf("expected ErrHTTPStatus, got %v", err)
		}
	})

	t.Run("body is capped at max size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(server.Client(), WithMaxBodySize(100))
		page, err := fetcher.Render(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if len(page.Raw) != 100 {
			t.Errorf("body length = %d, want 100", len(page.Raw))
		}
	})

	t.Run("decodes legacy charsets to UTF-8", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			// "Müller" with 0xFC for ü in ISO-8859-1.
			_, _ = w.Write([]byte("<html><body>M\xfcller</body></html>"))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(server.Client())
		page, err := fetcher.Render(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if !strings.Contains(string(page.Raw), "Müller") {
			t.Errorf("charset not decoded: %q", page.Raw)
		}
	})

	t.Run("sniffs HTML served without a Content-Type header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			// Suppress the header entirely; net/http would otherwise
			// sniff and set it for us.
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte("<!DOCTYPE html><html><body><a href=\"/next\">next</a></body></html>"))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(server.Client())
		page, err := fetcher.Render(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if page.ContentType != "text/html" {
			t.Errorf("content type = %q, want sniffed text/html", page.ContentType)
		}
		if !page.IsHTML() {
			t.Error("page without a declared Content-Type should still count as HTML")
		}
	})

	t.Run("extra headers are sent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-Migration"); got != "staging" {
				t.Errorf("expected custom header, got %q", got)
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(server.Client(), WithHeaders(map[string]string{"X-Migration": "staging"}))
		if _, err := fetcher.Render(context.Background(), server.URL); err != nil {
			t.Fatalf("render failed: %v", err)
		}
	})
}
