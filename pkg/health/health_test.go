package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func passingCheck() CheckFunc {
	return func(_ context.Context) error {
		return nil
	}
}

func failingCheck(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func runN(c *check, n int) {
	for range n {
		c.run(context.Background())
	}
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("check1", time.Second, passingCheck())
	h.AddLivenessCheck("check2", time.Second, passingCheck())

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, w).Status)
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failingCheck("connection refused"))
	runN(h.liveness[0], 3)

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestThresholds(t *testing.T) {
	t.Run("below failure threshold stays healthy", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("flaky", time.Second, failingCheck("temporary"))
		runN(h.liveness[0], 2)

		w := httptest.NewRecorder()
		h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("custom thresholds", func(t *testing.T) {
		var fail bool
		h := New()
		h.AddReadinessCheck("store", time.Second, func(context.Context) error {
			if fail {
				return errors.New("down")
			}
			return nil
		}, WithThresholds(1, 2))
		h.SetReady(true)
		c := h.readiness[0]

		fail = true
		runN(c, 1)
		assert.False(t, h.IsReady())

		fail = false
		runN(c, 1)
		assert.False(t, h.IsReady())
		runN(c, 1)
		assert.True(t, h.IsReady())
	})
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("not ready until marked", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("store", time.Second, passingCheck())

		w := httptest.NewRecorder()
		h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "service is not ready", decode(t, w).Checks["_readiness"])

		h.SetReady(true)
		w = httptest.NewRecorder()
		h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("one failing check", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("store", time.Second, passingCheck())
		h.AddReadinessCheck("catalog", time.Second, failingCheck("timeout"))
		h.SetReady(true)
		runN(h.readiness[1], 3)

		w := httptest.NewRecorder()
		h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decode(t, w)
		assert.Equal(t, map[string]string{"catalog": "timeout"}, body.Checks)
		assert.False(t, h.IsReady())
	})
}

func TestOnReadinessChange(t *testing.T) {
	h := New()
	var (
		mu     sync.Mutex
		states []bool
	)
	h.OnReadinessChange(func(ready bool) {
		mu.Lock()
		states = append(states, ready)
		mu.Unlock()
	})

	h.SetReady(false)
	h.SetReady(true)
	h.SetReady(true)
	h.SetReady(false)

	assert.Equal(t, []bool{false, true, false}, states)
}

func TestMirrorToGRPC(t *testing.T) {
	h := New()
	srv := grpchealth.NewServer()
	MirrorToGRPC(h, srv, "BasketApi.Basket")

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	h.SetReady(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check("BasketApi.Basket"))

	h.SetReady(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check("BasketApi.Basket"))
}

func TestStartRunsChecks(t *testing.T) {
	h := New()
	h.AddReadinessCheck("store", time.Second, failingCheck("down"), WithThresholds(1, 1))
	h.SetReady(true)

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	assert.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)
	h.Stop()
	h.Stop()
}

func TestPingCheck(t *testing.T) {
	err := PingCheck(pingerFunc(func(context.Context) error { return errors.New("refused") }))(context.Background())
	require.EqualError(t, err, "refused")
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
