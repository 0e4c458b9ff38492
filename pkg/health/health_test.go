package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

func serveReady(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", failing("down"))

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Empty(t, resp.Checks)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(h *Handler)
		wantCode    int
		wantOverall Status
	}{
		{
			name:        "no checkers",
			setup:       func(h *Handler) {},
			wantCode:    http.StatusOK,
			wantOverall: StatusUp,
		},
		{
			name: "all up",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", ok)
				h.RegisterNonCritical("redis", ok)
				h.RegisterNonCritical("kafka", ok)
			},
			wantCode:    http.StatusOK,
			wantOverall: StatusUp,
		},
		{
			name: "non-critical down degrades",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", ok)
				h.RegisterNonCritical("redis", failing("redis down"))
				h.RegisterNonCritical("kafka", failing("broker unreachable"))
			},
			wantCode:    http.StatusOK,
			wantOverall: StatusDegraded,
		},
		{
			name: "critical down",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", failing("connection refused"))
				h.RegisterNonCritical("redis", failing("redis down"))
			},
			wantCode:    http.StatusServiceUnavailable,
			wantOverall: StatusDown,
		},
		{
			name: "register defaults to critical",
			setup: func(h *Handler) {
				h.Register("postgres", failing("fail"))
			},
			wantCode:    http.StatusServiceUnavailable,
			wantOverall: StatusDown,
		},
		{
			name: "re-registering replaces the checker",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", failing("fail"))
				h.RegisterCritical("postgres", ok)
			},
			wantCode:    http.StatusOK,
			wantOverall: StatusUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			tt.setup(h)

			code, resp := serveReady(t, h)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOverall, resp.Status)
		})
	}
}

func TestReadinessHandler_ReportsPerCheckDetail(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", ok)
	h.RegisterNonCritical("kafka", failing("broker unreachable"))

	_, resp := serveReady(t, h)

	require.Contains(t, resp.Checks, "postgres")
	require.Contains(t, resp.Checks, "kafka")
	assert.Equal(t, CheckResult{Status: StatusUp, Critical: true}, resp.Checks["postgres"])
	assert.Equal(t, CheckResult{Status: StatusDown, Critical: false, Error: "broker unreachable"}, resp.Checks["kafka"])
}

func TestReadinessHandler_ChecksRunConcurrently(t *testing.T) {
	h := NewHandler()
	slow := func(ctx context.Context) error {
		select {
		case <-time.After(100 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.RegisterCritical("postgres", slow)
	h.RegisterNonCritical("redis", slow)
	h.RegisterNonCritical("kafka", slow)

	start := time.Now()
	code, _ := serveReady(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestReadinessHandler_TimeoutMarksCheckDown(t *testing.T) {
	h := NewHandler()
	h.timeout = 20 * time.Millisecond
	h.RegisterCritical("postgres", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	code, resp := serveReady(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, resp.Checks["postgres"].Error, "deadline exceeded")
}
