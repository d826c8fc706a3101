package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordRequest(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordRequest("/api/tickets", "GET", 200, 40*time.Millisecond)
	metrics.RecordRequest("/api/tickets", "GET", 200, 60*time.Millisecond)
	metrics.RecordRequest("/api/tickets", "POST", 201, 25*time.Millisecond)

	assert.Equal(t, int64(3), metrics.RequestTotal())
	assert.Equal(t, 125*time.Millisecond, metrics.LatencyTotal())
}

func TestMetricsNilReceiver(t *testing.T) {
	var metrics *Metrics

	// A nil Metrics is a no-op sink.
	metrics.RecordRequest("/api/tickets", "GET", 200, time.Millisecond)
	metrics.RecordError("/api/tickets", "GET", "NOT_FOUND")
	assert.Zero(t, metrics.RequestTotal())
	assert.Zero(t, metrics.LatencyTotal())
}
