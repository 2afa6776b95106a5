package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDeezerAuthHandler_Success(t *testing.T) {
	fake := &fakeUpstream{
		tokenBody:   `{"access_token":"tok-abc","expires":3600}`,
		profileBody: `{"id":1,"name":"alice","firstname":"Alice"}`,
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	h := newTestHandlers(t, newTestConfig(srv.URL))
	rec := serve(t, h.deezer.Handle, http.MethodPost, "/api/deezer-auth", `{"code":"abc"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["access_token"] != "tok-abc" {
		t.Errorf("access_token = %v, want tok-abc", body["access_token"])
	}
	if body["expires"] != float64(3600) {
		t.Errorf("expires = %v, want 3600", body["expires"])
	}
	if body["user_name"] != "alice" {
		t.Errorf("user_name = %v, want alice", body["user_name"])
	}
	if strings.Contains(rec.Body.String(), "deezer-secret") {
		t.Errorf("response leaks app secret: %s", rec.Body.String())
	}
}

func TestDeezerAuthHandler_NoExpiryIsNull(t *testing.T) {
	fake := &fakeUpstream{
		tokenBody:   "access_token=tok-abc&expires=0",
		profileBody: `{"error":{"type":"OAuthException"}}`,
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	h := newTestHandlers(t, newTestConfig(srv.URL))
	rec := serve(t, h.deezer.Handle, http.MethodPost, "/api/deezer-auth", `{"code":"abc"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"expires":null`) {
		t.Errorf("body = %s, want expires null", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"user_name":""`) {
		t.Errorf("body = %s, want empty user_name", rec.Body.String())
	}
}

func TestDeezerAuthHandler_ClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed json", `{"code":`, "invalid JSON body"},
		{"empty body", "", "code"},
		{"missing code", `{"other":"x"}`, "code"},
		{"empty code", `{"code":""}`, "code"},
		{"non-string code", `{"code":42}`, "code"},
		{"array body", `["abc"]`, "code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUpstream{tokenBody: `{"access_token":"tok"}`}
			srv := httptest.NewServer(fake)
			defer srv.Close()

			h := newTestHandlers(t, newTestConfig(srv.URL))
			rec := serve(t, h.deezer.Handle, http.MethodPost, "/api/deezer-auth", tt.body, nil)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if msg := decodeError(t, rec); !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", msg, tt.wantMsg)
			}
			if n := fake.calls.Load(); n != 0 {
				t.Errorf("upstream calls = %d, want 0", n)
			}
		})
	}
}

func TestDeezerAuthHandler_NotConfigured(t *testing.T) {
	fake := &fakeUpstream{tokenBody: `{"access_token":"tok"}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	cfg.Deezer.AppSecret = ""
	h := newTestHandlers(t, cfg)

	// Credentials are checked before the body is read.
	rec := serve(t, h.deezer.Handle, http.MethodPost, "/api/deezer-auth", `not json`, nil)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	decodeError(t, rec)
	if n := fake.calls.Load(); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

func TestDeezerAuthHandler_UpstreamRejected(t *testing.T) {
	fake := &fakeUpstream{tokenBody: `{"error":{"type":"OAuthException","message":"Invalid OAuth code"}}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	h := newTestHandlers(t, newTestConfig(srv.URL))
	rec := serve(t, h.deezer.Handle, http.MethodPost, "/api/deezer-auth", `{"code":"bad"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "Invalid OAuth code") {
		t.Errorf("error = %q, want upstream message", msg)
	}
}

func TestDeezerAuthHandler_NoAccessToken(t *testing.T) {
	fake := &fakeUpstream{tokenBody: `{"unexpected":"shape"}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	h := newTestHandlers(t, newTestConfig(srv.URL))
	rec := serve(t, h.deezer.Handle, http.MethodPost, "/api/deezer-auth", `{"code":"abc"}`, nil)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "did not return an access token") {
		t.Errorf("error = %q", msg)
	}
}

func TestDeezerAuthHandler_Unreachable(t *testing.T) {
	h := newTestHandlers(t, newTestConfig("http://127.0.0.1:1"))
	rec := serve(t, h.deezer.Handle, http.MethodPost, "/api/deezer-auth", `{"code":"abc"}`, nil)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	msg := decodeError(t, rec)
	if strings.Contains(msg, "deezer-secret") || strings.Contains(msg, "127.0.0.1") {
		t.Errorf("error = %q leaks upstream URL", msg)
	}
}
