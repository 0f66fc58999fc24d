package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	CORS(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/infrastructure", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}

	rec = httptest.NewRecorder()
	CORS(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/infrastructure", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("GET status = %d, want pass-through", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth("secret")(okHandler())

	tests := []struct {
		name   string
		target string
		header map[string]string
		want   int
	}{
		{"missing key", "/api/infrastructure", nil, http.StatusUnauthorized},
		{"wrong key", "/api/infrastructure", map[string]string{"X-API-Key": "guess"}, http.StatusUnauthorized},
		{"valid key", "/api/infrastructure", map[string]string{"X-API-Key": "secret"}, http.StatusTeapot},
		{"health check", "/healthz", nil, http.StatusTeapot},
		{"query key on plain request", "/api/infrastructure?api_key=secret", nil, http.StatusUnauthorized},
		{"query key on upgrade", "/api/infrastructure/br-1/simulate?api_key=secret", map[string]string{"Upgrade": "websocket"}, http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	APIKeyAuth("")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("empty key should pass through, got %d", rec.Code)
	}
}
