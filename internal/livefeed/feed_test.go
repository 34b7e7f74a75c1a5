package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/geocoder89/bidashboard/internal/repo/memory"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 14, 18, 30, 0, 0, time.UTC)

type zeroRandom struct{}

func (zeroRandom) Float64() float64 { return 0.5 }
func (zeroRandom) IntN(int) int     { return 0 }

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls.Add(1)
	return nil
}

type failingStore struct{}

func (failingStore) Insert(context.Context, metric.Record) (metric.Record, error) {
	return metric.Record{}, errors.New("connection refused")
}

func (failingStore) Ping(context.Context) error { return errors.New("connection refused") }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStep_InsertsTodayAndInvalidates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := memory.NewMetricsRepo()
	inv := &countingInvalidator{}
	prom := observability.NewProm(prometheus.NewRegistry())

	f := New(Config{}, repo, discardLogger(),
		WithCache(inv),
		WithProm(prom),
		WithRand(zeroRandom{}),
		WithClock(func() time.Time { return fixedNow }),
	)

	rec, err := f.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", rec.Date.String())
	assert.NotZero(t, rec.ID)
	require.NotNil(t, rec.Category)
	assert.Contains(t, metric.Categories, *rec.Category)

	n, _ := repo.Count(context.Background())
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int32(1), inv.calls.Load())

	snap := f.Stats().Snapshot()
	assert.Equal(t, uint64(1), snap.Inserted)
	assert.NotNil(t, snap.LastSuccess)
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.LiveFeedResults.WithLabelValues("ok")))
}

func TestStep_FailureCountsAndSkipsInvalidate(t *testing.T) {
	inv := &countingInvalidator{}
	prom := observability.NewProm(prometheus.NewRegistry())

	f := New(Config{}, failingStore{}, discardLogger(), WithCache(inv), WithProm(prom))

	_, err := f.Step(context.Background())
	require.Error(t, err)

	snap := f.Stats().Snapshot()
	assert.Equal(t, uint64(1), snap.Failed)
	assert.Nil(t, snap.LastSuccess)
	assert.Zero(t, inv.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.LiveFeedResults.WithLabelValues("error")))
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := memory.NewMetricsRepo()
	f := New(Config{Interval: 5 * time.Millisecond}, repo, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	require.Eventually(t, func() bool {
		n, _ := repo.Count(context.Background())
		return n >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.False(t, f.isReady())
}

func TestBackoff(t *testing.T) {
	rng := zeroRandom{}

	assert.Equal(t, 2*time.Second, Backoff(0, rng))
	assert.Equal(t, 2*time.Second, Backoff(1, rng))
	assert.Equal(t, 4*time.Second, Backoff(2, rng))
	assert.Equal(t, 8*time.Second, Backoff(3, rng))
	assert.Equal(t, backoffCap, Backoff(30, rng))
	assert.Equal(t, backoffCap, Backoff(5000, rng))
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := New(Config{}, memory.NewMetricsRepo(), discardLogger())
	h := f.HealthHandler()

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code, "not ready before Run")

	f.setReady(true)
	assert.Equal(t, http.StatusOK, get("/readyz").Code)

	w := get("/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OK    bool                       `json:"ok"`
		Stats observability.FeedSnapshot `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)

	down := New(Config{}, failingStore{}, discardLogger())
	down.setReady(true)
	w = httptest.NewRecorder()
	down.HealthHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
