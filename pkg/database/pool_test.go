package database

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		minExpected := time.Duration(float64(base) * (1 - retryJitterFraction))
		maxExpected := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, minExpected)
			assert.LessOrEqual(t, d, maxExpected)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connection refused"), true},
		{"reset", errors.New("connection reset by peer"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("boom")}, true},
		{"syntax", errors.New("syntax error at or near"), false},
		{"server error", &pgconn.PgError{Code: "42601", Message: "syntax error at EOF"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(tt.err))
		})
	}
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("relation does not exist")

	err := withRetry(context.Background(), nil, "op", isConnectionError, func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ReturnsOnSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), nil, "op", always, func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, nil, "connect", always, func() error {
		return errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostgresConfig_DSNEscapesCredentials(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5432, User: "homestead", Password: "p@ss/word",
		DBName: "homestead", SSLMode: "disable",
	}
	dsn := cfg.DSN()
	assert.Equal(t, "postgres://homestead:p%40ss%2Fword@db:5432/homestead?sslmode=disable", dsn)
}

func TestUniqueViolation(t *testing.T) {
	constraint, ok := UniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", constraint)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("boom"))
	assert.False(t, ok)
}
