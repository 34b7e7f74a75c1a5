package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/gin-gonic/gin"
)

// 2024-03-14 is a Thursday.
var fixedNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type envelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
	Details   json.RawMessage `json:"details"`
}

// halfRandom always sits in the middle of every range.
type halfRandom struct{}

func (halfRandom) Float64() float64 { return 0.5 }
func (halfRandom) IntN(int) int     { return 0 }

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to unmarshal response: %v body=%s", err, w.Body.String())
	}
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()

	env := decode(t, w)
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("failed to unmarshal data: %v data=%s", err, string(env.Data))
	}
	return env
}

func day(t *testing.T, s string) metric.Day {
	t.Helper()
	d, err := metric.ParseDay(s)
	if err != nil {
		t.Fatalf("ParseDay(%q): %v", s, err)
	}
	return d
}

func rec(t *testing.T, date string, revenue, profit float64, category, region string) metric.Record {
	t.Helper()
	return metric.Record{
		Date:        day(t, date),
		Revenue:     metric.Money(revenue),
		UnitsSold:   1,
		CostOfGoods: metric.Money(revenue - profit),
		Profit:      metric.Money(profit),
		Category:    metric.StringPtr(category),
		Region:      metric.StringPtr(region),
	}
}
