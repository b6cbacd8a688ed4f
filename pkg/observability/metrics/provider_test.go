package metrics

import (
	"testing"

	appconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMeterProvider_DurationBuckets(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp, err := newMeterProvider(t.Context(), reader, appconfig.AppConfig{ServiceName: "notification-service"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(t.Context()) })

	meter := mp.Meter("test")
	handled, err := meter.Float64Histogram("consumer.message.duration")
	require.NoError(t, err)
	other, err := meter.Float64Histogram("http.server.request.duration")
	require.NoError(t, err)
	handled.Record(t.Context(), 0.02)
	other.Record(t.Context(), 0.02)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))

	bounds := map[string][]float64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok, m.Name)
			require.Len(t, hist.DataPoints, 1)
			bounds[m.Name] = hist.DataPoints[0].Bounds
		}
	}
	assert.Equal(t, HandlerDurationBuckets, bounds["consumer.message.duration"])
	assert.NotEqual(t, HandlerDurationBuckets, bounds["http.server.request.duration"], "other histograms keep SDK defaults")
}
