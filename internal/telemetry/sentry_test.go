package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitSentry_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  SentryConfig
	}{
		{"not enabled", SentryConfig{DSN: "https://key@sentry.example/1"}},
		{"enabled without DSN", SentryConfig{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup, err := InitSentry(tt.cfg, discardLogger())
			require.NoError(t, err)
			require.NotNil(t, cleanup)
			cleanup()
			assert.False(t, IsEnabled())

			// No-ops while disabled.
			CaptureError(errors.New("boom"))
		})
	}
}

func TestDropClientErrors(t *testing.T) {
	event := &sentry.Event{}
	tests := []struct {
		name string
		err  error
		keep bool
	}{
		{"internal", domain.Internal(errors.New("x"), "op", "failed"), true},
		{"unavailable", domain.Unavailable(errors.New("x"), "op", "down"), true},
		{"plain error", errors.New("x"), true},
		{"validation", domain.Invalid("op", "bad"), false},
		{"remote rejection", domain.Remote("op", "Geçersiz kod"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dropClientErrors(event, &sentry.EventHint{OriginalException: tt.err})
			if tt.keep {
				assert.Same(t, event, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}

	assert.Same(t, event, dropClientErrors(event, nil))
}

func TestSentryMiddleware_PassThroughWhenDisabled(t *testing.T) {
	sentryEnabled = false

	called := false
	h := SentryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, sentry.GetHubFromContext(r.Context()))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.True(t, called)
}

func TestHTTPTransport_Delegates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &HTTPTransport{Transport: http.DefaultTransport}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
