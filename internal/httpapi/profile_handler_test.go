package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/webhook-service/internal/clerk"
	"github.com/focusnest/webhook-service/internal/profile"
)

type failingGetService struct{ profile.Service }

func (failingGetService) Get(context.Context, string) (*profile.Profile, error) {
	return nil, errors.New("store unavailable")
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func getMe(env *testEnv, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestGetProfileReturnsSyncedProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK, env.deliver(t, env.nextID(), userEvent(clerk.TypeUserCreated, "user_1", "Ada", nil)).Code)

	rec := getMe(env, "user_1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "user_1", body["clerk_id"])
	assert.Equal(t, "Ada", body["first_name"])
	assert.Nil(t, body["last_name"])
}

func TestGetProfileErrors(t *testing.T) {
	t.Run("requires a bearer token", func(t *testing.T) {
		env := newTestEnv(t, nil)
		assert.Equal(t, http.StatusUnauthorized, getMe(env, "").Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := getMe(env, "user_missing")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "profile not found", decodeBody(t, rec)["error"])
	})

	t.Run("store failure", func(t *testing.T) {
		env := newTestEnv(t, func(d *Deps) { d.Service = failingGetService{Service: d.Service} })
		rec := getMe(env, "user_1")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestReadiness(t *testing.T) {
	cases := []struct {
		name   string
		pinger profile.Pinger
		status int
	}{
		{name: "no pinger", pinger: nil, status: http.StatusOK},
		{name: "store reachable", pinger: stubPinger{}, status: http.StatusOK},
		{name: "store down", pinger: stubPinger{err: errors.New("dial tcp: refused")}, status: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, func(d *Deps) { d.Readiness = tc.pinger })

			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestHealthzStillServed(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "webhook-service", decodeBody(t, rec)["service"])
}
