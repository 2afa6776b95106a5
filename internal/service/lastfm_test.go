package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"music-bridge-go/internal/client"
	"music-bridge-go/internal/config"
)

func newLastFMService(apiURL, key, secret string) *LastFMAuthService {
	cfg := &config.Config{
		LastFM: config.LastFMConfig{
			APIKey:       key,
			SharedSecret: secret,
			APIURL:       apiURL,
		},
		Upstream: config.UpstreamConfig{TimeoutSeconds: 5, IdleConnections: 10},
	}
	c := client.NewUpstreamClient(cfg, testLogger(), nil)
	return NewLastFMAuthService(c, cfg, testLogger())
}

func TestLastFMAuth_NotConfigured(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	for _, creds := range [][2]string{{"", "secret"}, {"key", ""}, {"", ""}} {
		svc := newLastFMService(srv.URL+"/2.0/", creds[0], creds[1])
		_, err := svc.Exchange(context.Background(), "token")
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("creds %v: err = %v, want ErrNotConfigured", creds, err)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("upstream called %d times, want 0", n)
	}
}

func TestLastFMAuth_MissingToken(t *testing.T) {
	svc := newLastFMService("http://127.0.0.1:1/2.0/", "key", "secret")
	_, err := svc.Exchange(context.Background(), "")
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
}

func TestLastFMAuth_SignedRequest(t *testing.T) {
	const session = `{"session":{"name":"listener","key":"sk-1","subscriber":0}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		if r.URL.Path != "/2.0/" {
			t.Errorf("path = %q, want /2.0/", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"method":  "auth.getSession",
			"api_key": "k123",
			"token":   "t456",
			"api_sig": "d6cb6ac45d504e17654bc53d312ff2ec",
			"format":  "json",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("query %s = %q, want %q", k, q.Get(k), v)
			}
		}
		if q.Has("secret") || q.Has("shared_secret") {
			t.Error("shared secret must never be sent upstream")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, session)
	}))
	defer srv.Close()

	svc := newLastFMService(srv.URL+"/2.0/", "k123", "s3cr3t")
	resp, err := svc.Exchange(context.Background(), "t456")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if string(resp.Body) != session {
		t.Errorf("body = %q, want %q", string(resp.Body), session)
	}
}

func TestLastFMAuth_RelaysUpstreamError(t *testing.T) {
	const upstreamErr = `{"error":4,"message":"Unauthorized Token - This token has not been issued"}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, upstreamErr)
	}))
	defer srv.Close()

	svc := newLastFMService(srv.URL+"/2.0/", "key", "secret")
	resp, err := svc.Exchange(context.Background(), "bad")
	if err != nil {
		t.Fatalf("Exchange() error = %v, want upstream error relayed as a response", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	if string(resp.Body) != upstreamErr {
		t.Errorf("body = %q, want %q", string(resp.Body), upstreamErr)
	}
}

func TestLastFMAuth_Unreachable(t *testing.T) {
	svc := newLastFMService("http://127.0.0.1:1/2.0/", "key", "secret")
	_, err := svc.Exchange(context.Background(), "token")
	if !errors.Is(err, ErrUpstreamUnreachable) {
		t.Fatalf("err = %v, want ErrUpstreamUnreachable", err)
	}
}
