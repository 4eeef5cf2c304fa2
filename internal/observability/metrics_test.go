package observability

import (
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSeries(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordSeries("arbitrum", "volume", 12, 0.01, nil)
	m.RecordSeries("arbitrum", "volume", 0, 0.01, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SeriesComputed.WithLabelValues("volume", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SeriesComputed.WithLabelValues("volume", "error")))
	// A failed computation leaves the last point count untouched
	assert.Equal(t, 12.0, testutil.ToFloat64(m.SeriesPoints.WithLabelValues("arbitrum", "volume")))
}

func TestRecordSuppressed(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordSuppressed("avalanche", 0)
	m.RecordSuppressed("avalanche", 3)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RatiosSuppressed.WithLabelValues("avalanche")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordHTTPRequest("/api/fees", http.StatusOK, 0.002)
	m.RecordHTTPRequest("/api/fees", http.StatusOK, 0.004)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/fees", "OK")))
}

func TestRecordDBQuery(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordDBQuery("postgres", "get_by_series", 0.1, nil)
	m.RecordDBQuery("postgres", "get_by_series", 0.1, errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "get_by_series")))
}
