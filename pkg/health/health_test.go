package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestService_NotReadyUntilSet(t *testing.T) {
	svc := New()
	svc.Start(context.Background(), time.Minute)
	defer svc.Stop()

	code, _ := probe(t, svc.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	svc.SetReady(true)
	code, body := probe(t, svc.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestService_FailingReadinessCheck(t *testing.T) {
	svc := New()
	svc.AddReadinessCheck("postgres", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	svc.Start(context.Background(), time.Minute)
	defer svc.Stop()
	svc.SetReady(true)

	code, body := probe(t, svc.ReadyEndpoint)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "connection refused", checks["postgres"])
}

func TestService_LivenessIndependentOfReadiness(t *testing.T) {
	svc := New()
	svc.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(100000))
	svc.Start(context.Background(), time.Minute)
	defer svc.Stop()

	// Never marked ready, but liveness passes.
	code, body := probe(t, svc.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["goroutines"])
}

func TestGoroutineCountCheck_Threshold(t *testing.T) {
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
	require.NoError(t, GoroutineCountCheck(1000000)(context.Background()))
}
