package authstate_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhadat/listing-auth/internal/auth"
	"github.com/nhadat/listing-auth/internal/client/authapi"
	"github.com/nhadat/listing-auth/internal/client/authstate"
	"github.com/nhadat/listing-auth/internal/config"
	"github.com/nhadat/listing-auth/internal/server"
	"github.com/nhadat/listing-auth/internal/session"
	"github.com/nhadat/listing-auth/internal/storage/memory"
)

func newAuthServer(t *testing.T, logger *slog.Logger) *server.Server {
	t.Helper()
	tokens := auth.NewTokenManager("e2e-secret", "nhadat-test")
	sessions := session.NewService(memory.NewStore(), tokens, auth.NewBcryptHasher(bcrypt.MinCost), session.Options{Logger: logger})
	srv := server.New(config.Config{
		Environment:       config.EnvDevelopment,
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   time.Hour,
		CORSOrigins:       []string{"*"},
		AuthRatePerMinute: 60,
		AuthRateBurst:     10,
	}, server.Deps{Sessions: sessions, Tokens: tokens, Logger: logger})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func TestControllerAgainstServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := newAuthServer(t, logger)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client, err := authapi.New(ts.URL)
	require.NoError(t, err)
	ctrl := authstate.NewController(client, logger)
	ctx := context.Background()

	assert.False(t, ctrl.OnPageLoad(ctx).Authenticated)

	payload, err := client.Register(ctx, authapi.RegisterRequest{
		FullName: "Lê Văn C",
		Email:    "c@example.com",
		Phone:    "0912345678",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lê Văn C", ctrl.OnAuthResult(payload).DisplayName)

	// The cookie jar now carries the session.
	v := ctrl.OnPageLoad(ctx)
	assert.True(t, v.Authenticated)
	assert.Equal(t, "Lê Văn C", v.DisplayName)

	_, err = client.Refresh(ctx)
	require.NoError(t, err)

	assert.False(t, ctrl.OnLogout(ctx).Authenticated)
	assert.False(t, ctrl.OnPageLoad(ctx).Authenticated, "server cleared the cookies")

	_, err = client.Login(ctx, "c@example.com", "wrong-pass")
	var apiErr *authapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Email hoặc mật khẩu không đúng", apiErr.UserMessage())
}

func TestLogoutSignsOutWhenServerLogoutFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := newAuthServer(t, logger)

	var logoutCalls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/logout" {
			logoutCalls.Add(1)
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		srv.Handler().ServeHTTP(w, r)
	}))
	defer ts.Close()

	client, err := authapi.New(ts.URL)
	require.NoError(t, err)
	ctrl := authstate.NewController(client, logger)
	ctx := context.Background()

	payload, err := client.Register(ctx, authapi.RegisterRequest{
		FullName: "Phạm Văn D",
		Email:    "d@example.com",
		Phone:    "0987654321",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.True(t, ctrl.OnAuthResult(payload).Authenticated)
	require.True(t, ctrl.OnPageLoad(ctx).Authenticated)

	assert.False(t, ctrl.OnLogout(ctx).Authenticated)
	assert.Equal(t, int32(1), logoutCalls.Load())
	assert.False(t, ctrl.OnPageLoad(ctx).Authenticated, "session cookies are gone locally")

	_, err = client.Me(ctx)
	assert.True(t, authapi.IsUnauthorized(err))
}
