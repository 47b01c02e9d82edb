package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/webhook-service/internal/webhook"
)

func TestSendSignsTheExactBody(t *testing.T) {
	signer, err := webhook.NewVerifier("whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw")
	require.NoError(t, err)

	body := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	verified := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ := io.ReadAll(r.Body)
		_, err := signer.Verify(got, r.Header)
		verified <- err
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	status, resp, err := send(t.Context(), srv.URL, signer, "msg_test", time.Now(), body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"success":true}`, resp)
	assert.NoError(t, <-verified)
}

func TestReadEventFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"user.updated"}`), 0o600))

	got, err := readEvent(path)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"user.updated"}`, string(got))
}
