package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveCORS(cfg CORSConfig, method, origin string, preflight bool) *httptest.ResponseRecorder {
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/v1/user/login", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name        string
		cfg         CORSConfig
		origin      string
		wantOrigin  string
		wantCreds   string
		wantVaryHdr bool
	}{
		{
			name:       "wildcard without credentials",
			cfg:        CORSConfig{AllowedOrigins: []string{"*"}},
			origin:     "https://app.example.com",
			wantOrigin: "*",
		},
		{
			name:        "wildcard with credentials echoes origin",
			cfg:         CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
			origin:      "https://app.example.com",
			wantOrigin:  "https://app.example.com",
			wantCreds:   "true",
			wantVaryHdr: true,
		},
		{
			name:        "listed origin",
			cfg:         CORSConfig{AllowedOrigins: []string{"https://a.example.com", "https://b.example.com"}},
			origin:      "https://b.example.com",
			wantOrigin:  "https://b.example.com",
			wantVaryHdr: true,
		},
		{
			name:   "unlisted origin",
			cfg:    CORSConfig{AllowedOrigins: []string{"https://a.example.com"}, AllowCredentials: true},
			origin: "https://evil.example.com",
		},
		{
			name: "no origin header",
			cfg:  CORSConfig{AllowedOrigins: []string{"*"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveCORS(tt.cfg, http.MethodPost, tt.origin, false)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rec.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tt.wantVaryHdr, rec.Header().Get("Vary") == "Origin")
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	rec := serveCORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}, http.MethodOptions, "https://app.example.com", true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), CorrelationIDHeader)
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	rec := serveCORS(CORSConfig{AllowedOrigins: []string{"*"}}, http.MethodOptions, "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_ExposedHeaders(t *testing.T) {
	rec := serveCORS(CORSConfig{AllowedOrigins: []string{"*"}, ExposedHeaders: []string{CorrelationIDHeader}}, http.MethodGet, "https://x", false)
	assert.Equal(t, CorrelationIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
}
