package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/ytmd/internal/shared"
	tu "github.com/desertthunder/ytmd/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash to be trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Rate Limit Option", func(t *testing.T) {
			if srv := NewAPIService("http://example.com", nil, WithRateLimit(0)); srv.limiter != nil {
				t.Error("expected zero rps to disable limiting")
			}
			if srv := NewAPIService("http://example.com", nil, WithRateLimit(2)); srv.limiter == nil {
				t.Error("expected limiter to be configured")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Sends Query And Headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				if r.URL.Query().Get("q") != "a b" {
					t.Errorf("expected query q='a b', got %q", r.URL.Query().Get("q"))
				}
				if r.Header.Get("User-Agent") != "ytmd-test" {
					t.Errorf("expected user agent, got %q", r.Header.Get("User-Agent"))
				}
				w.Header().Set("X-Custom-Header", "test-value")
				w.Write([]byte(`{"status":"success"}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, WithUserAgent("ytmd-test"))
			resp, err := srv.Get(context.Background(), "/test", url.Values{"q": {"a b"}})

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Error("expected response to be JSON")
			}
			if resp.Headers.Get("X-Custom-Header") != "test-value" {
				t.Errorf("expected custom header 'test-value', got %s", resp.Headers.Get("X-Custom-Header"))
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/test", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("expected body 'plain text response', got %s", string(resp.Body))
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid", nil)

			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test", nil)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test", nil)
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(server.URL, nil, WithRateLimit(1)).Get(ctx, "/test", nil); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("GetJSON", func(t *testing.T) {
		tc := []struct {
			name    string
			status  int
			body    string
			wantErr error
		}{
			{name: "decodes body", status: http.StatusOK, body: `{"name":"ok"}`},
			{name: "not found is a miss", status: http.StatusNotFound, wantErr: shared.ErrLookupMiss},
			{name: "too many requests", status: http.StatusTooManyRequests, wantErr: shared.ErrRateLimited},
			{name: "server error", status: http.StatusInternalServerError, wantErr: shared.ErrAPIRequest},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				var out struct {
					Name string `json:"name"`
				}
				err := NewAPIService(server.URL, nil).GetJSON(context.Background(), "/x", nil, &out)

				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("expected %v, got %v", tt.wantErr, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if out.Name != "ok" {
					t.Errorf("expected decoded name 'ok', got %q", out.Name)
				}
			})
		}

		t.Run("Invalid JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			}))
			defer server.Close()

			var out map[string]any
			err := NewAPIService(server.URL, nil).GetJSON(context.Background(), "/x", nil, &out)
			if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode error, got %v", err)
			}
		})
	})

	t.Run("Download", func(t *testing.T) {
		t.Run("Returns Body And Content Type", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				w.Write([]byte{0x89, 'P', 'N', 'G'})
			}))
			defer server.Close()

			data, contentType, err := NewAPIService("", nil).Download(context.Background(), server.URL+"/cover.png")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(data) != 4 {
				t.Errorf("expected 4 bytes, got %d", len(data))
			}
			if contentType != "image/png" {
				t.Errorf("expected image/png, got %s", contentType)
			}
		})

		t.Run("Empty Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			if _, _, err := NewAPIService("", nil).Download(context.Background(), server.URL); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Non-2xx Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("nope"))
			}))
			defer server.Close()

			if _, _, err := NewAPIService("", nil).Download(context.Background(), server.URL); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})
}
