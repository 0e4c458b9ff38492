package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharag6/homestead-api/internal/auth"
	"github.com/tusharag6/homestead-api/internal/config"
	"github.com/tusharag6/homestead-api/internal/event"
	"github.com/tusharag6/homestead-api/internal/repository/memory"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

// These tests run the auth lifecycle against the in-memory store with real
// bcrypt hashing.

func newMemoryAuth(t *testing.T, paired bool) (*AuthService, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository(memory.WithUniqueUsername())
	opts := AuthOptions{Paired: paired, LoginIdentifier: config.IdentifierEither, UniqueUsername: true}
	svc := NewAuthService(users, auth.NewBcryptHasher(auth.DefaultBcryptCost), testIssuer(), event.Discard{}, opts, newTestLogger())
	return svc, users
}

func registerAndLogin(t *testing.T, svc *AuthService) *AuthResult {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	return res
}

func accessToken(paired bool, res *AuthResult) string {
	if paired {
		return res.Tokens.AccessToken
	}
	return res.Tokens.Token
}

func refreshToken(paired bool, res *AuthResult) string {
	if paired {
		return res.Tokens.RefreshToken
	}
	return res.Tokens.Token
}

func TestScenario_RegisterLoginMeLogout(t *testing.T) {
	for _, paired := range []bool{false, true} {
		name := "single"
		if paired {
			name = "paired"
		}
		t.Run(name, func(t *testing.T) {
			svc, users := newMemoryAuth(t, paired)
			ctx := context.Background()

			res := registerAndLogin(t, svc)
			token := accessToken(paired, res)

			me, err := svc.ResolveSession(ctx, token)
			require.NoError(t, err)
			assert.Equal(t, res.User.ID, me.ID)
			assert.Equal(t, "alice", me.Username)

			stored, err := users.GetByID(ctx, me.ID)
			require.NoError(t, err)
			assert.NotEqual(t, "pw123", stored.PasswordHash)
			assert.True(t, auth.IsHash(stored.PasswordHash))

			require.NoError(t, svc.Logout(ctx, me.ID))

			stored, err = users.GetByID(ctx, me.ID)
			require.NoError(t, err)
			assert.False(t, stored.HasSession())

			_, err = svc.ResolveSession(ctx, token)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	}
}

func TestScenario_DuplicateRegistrationLeavesFirstUntouched(t *testing.T) {
	svc, users := newMemoryAuth(t, true)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Username: "alice", Password: "pw123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "A@X.COM", Username: "other", Password: "different"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	stored, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "alice", stored.Username)

	_, err = svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
}

func TestScenario_RefreshRotationRejectsReuse(t *testing.T) {
	for _, paired := range []bool{false, true} {
		t.Run(map[bool]string{false: "single", true: "paired"}[paired], func(t *testing.T) {
			svc, _ := newMemoryAuth(t, paired)
			ctx := context.Background()

			res := registerAndLogin(t, svc)
			r := refreshToken(paired, res)

			rotated, err := svc.Refresh(ctx, r)
			require.NoError(t, err)
			r2 := refreshToken(paired, rotated)
			assert.NotEqual(t, r, r2)

			_, err = svc.Refresh(ctx, r)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

			_, err = svc.ResolveSession(ctx, accessToken(paired, res))
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

			me, err := svc.ResolveSession(ctx, accessToken(paired, rotated))
			require.NoError(t, err)
			assert.Equal(t, res.User.ID, me.ID)
		})
	}
}

func TestScenario_ConcurrentRefreshOnlyOneSucceeds(t *testing.T) {
	svc, _ := newMemoryAuth(t, true)
	ctx := context.Background()
	res := registerAndLogin(t, svc)

	const callers = 8
	var (
		wg      sync.WaitGroup
		ok      atomic.Int32
		invalid atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, res.Tokens.RefreshToken)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperrors.ErrInvalidToken):
				invalid.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(callers-1), invalid.Load())
}

func TestScenario_ConcurrentRegistrationSameUsername(t *testing.T) {
	svc, users := newMemoryAuth(t, true)
	ctx := context.Background()

	const callers = 8
	var (
		wg       sync.WaitGroup
		ok       atomic.Int32
		conflict atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, RegisterInput{
				Email:    fmt.Sprintf("u%d@x.com", i),
				Username: "alice",
				Password: "pw123",
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperrors.ErrAlreadyExists):
				conflict.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(callers-1), conflict.Load())

	winner, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	res, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, res.User.ID)
}

func TestScenario_ChangePasswordRevokesSession(t *testing.T) {
	svc, _ := newMemoryAuth(t, true)
	ctx := context.Background()
	res := registerAndLogin(t, svc)

	require.NoError(t, svc.ChangePassword(ctx, res.User.ID, ChangePasswordInput{CurrentPassword: "pw123", NewPassword: "pw456"}))

	_, err := svc.ResolveSession(ctx, res.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	_, err = svc.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pw123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "pw456"})
	require.NoError(t, err)
}

func TestScenario_NewLoginReplacesPreviousSession(t *testing.T) {
	svc, _ := newMemoryAuth(t, true)
	ctx := context.Background()
	first := registerAndLogin(t, svc)

	second, err := svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	_, err = svc.ResolveSession(ctx, first.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	_, err = svc.ResolveSession(ctx, second.Tokens.AccessToken)
	require.NoError(t, err)
}
