package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSecurityConfig(t *testing.T) {
	t.Parallel()
	config := DefaultSecurityConfig()

	assert.True(t, config.EnableCORS)
	assert.Equal(t, []string{"*"}, config.AllowedOrigins)
	assert.ElementsMatch(t, []string{"GET", "OPTIONS"}, config.AllowedMethods)
	assert.Equal(t, uint64(10_000), config.MaxCount)
	assert.Equal(t, uint64(10_000_000), config.MaxNValue)
	assert.Equal(t, uint64(5_000_000), config.MaxResponseDigits)
}

func TestSecurityConfig_DigitBudget(t *testing.T) {
	t.Parallel()
	config := DefaultSecurityConfig()

	tests := []struct {
		name    string
		numeric string
		start   uint64
		count   uint64
		want    bool
	}{
		{"small big request", "big", 0, 100, true},
		{"uint64 at max count", "uint64", 0, 10_000, true},
		{"uint64 far past overflow", "uint64", 9_000_000, 10_000, true},
		{"big terms at max count", "big", 200_000, 10_000, false},
		{"single huge term", "big", 10_000_000, 1, true},
		{"big prefix at max count", "big", 0, 10_000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.withinDigitBudget(tt.numeric, tt.start, tt.count))
		})
	}

	config.MaxResponseDigits = 0
	assert.True(t, config.withinDigitBudget("big", 200_000, 10_000), "zero disables the budget")
}

func TestSecurityMiddleware_SecurityHeaders(t *testing.T) {
	t.Parallel()
	nextCalled := false
	handler := SecurityMiddleware(DefaultSecurityConfig(), func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/sequence", http.NoBody))

	tests := []struct {
		header string
		want   string
	}{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"X-XSS-Protection", "1; mode=block"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rec.Header().Get(tt.header), tt.header)
	}
	assert.True(t, nextCalled)
}

func TestSecurityMiddleware_CORS(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		config         SecurityConfig
		origin         string
		expectedOrigin string
	}{
		{"CORS disabled", SecurityConfig{EnableCORS: false}, "http://example.com", ""},
		{"wildcard", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}}, "http://example.com", "*"},
		{"specific allowed", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://allowed.com"}, AllowedMethods: []string{"GET"}}, "http://allowed.com", "http://allowed.com"},
		{"disallowed", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://allowed.com"}, AllowedMethods: []string{"GET"}}, "http://other.com", ""},
		{"second of several", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://first.com", "http://second.com"}, AllowedMethods: []string{"GET"}}, "http://second.com", "http://second.com"},
		{"no origin with wildcard", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}}, "", "*"},
		{"no origin with specific", SecurityConfig{EnableCORS: true, AllowedOrigins: []string{"http://specific.com"}, AllowedMethods: []string{"GET"}}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := SecurityMiddleware(tt.config, func(http.ResponseWriter, *http.Request) {})
			req := httptest.NewRequest("GET", "/term", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			assert.Equal(t, tt.expectedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectedOrigin != "" {
				assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
				assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
				assert.NotEmpty(t, rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestSecurityMiddleware_Preflight(t *testing.T) {
	t.Parallel()
	nextCalled := false
	handler := SecurityMiddleware(DefaultSecurityConfig(), func(http.ResponseWriter, *http.Request) {
		nextCalled = true
	})
	req := httptest.NewRequest("OPTIONS", "/sequence", http.NoBody)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, nextCalled)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityMiddleware_RejectsWriteMethods(t *testing.T) {
	t.Parallel()
	for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()
			nextCalled := false
			handler := SecurityMiddleware(DefaultSecurityConfig(), func(http.ResponseWriter, *http.Request) {
				nextCalled = true
			})
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(method, "/sequence", http.NoBody))

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.False(t, nextCalled)
			assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Allow"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestSecurityMiddleware_NextHandlerCalled(t *testing.T) {
	t.Parallel()
	handler := SecurityMiddleware(DefaultSecurityConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello from next"))
	})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/health", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello from next", rec.Body.String())
}
