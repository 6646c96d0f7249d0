package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}
	return byName
}

func TestRegisterExposesAllInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry()
	m.Register(reg)

	m.UpstreamRequests.WithLabelValues("token_pairs", "fetch").Inc()
	m.CacheHits.Inc()
	m.CacheHits.Inc()
	m.ItemsDropped.WithLabelValues("veto").Inc()
	m.ListSize.WithLabelValues("all_signals").Set(12)
	m.VetoTotal.Inc()
	m.BuySignals.WithLabelValues("smart_money").Inc()
	m.Flushes.WithLabelValues("veto", "ok").Inc()

	byName := gather(t, reg)

	hits := byName["dexpulse_cache_hits_total"]
	require.NotNil(t, hits)
	assert.Equal(t, dto.MetricType_COUNTER, hits.GetType())
	assert.Equal(t, float64(2), hits.GetMetric()[0].GetCounter().GetValue())

	size := byName["dexpulse_list_size"]
	require.NotNil(t, size)
	assert.Equal(t, dto.MetricType_GAUGE, size.GetType())
	require.Len(t, size.GetMetric(), 1)
	assert.Equal(t, "all_signals", size.GetMetric()[0].GetLabel()[0].GetValue())
	assert.Equal(t, float64(12), size.GetMetric()[0].GetGauge().GetValue())

	for _, name := range []string{
		"dexpulse_upstream_requests_total",
		"dexpulse_items_dropped_total",
		"dexpulse_veto_total",
		"dexpulse_buy_signals_total",
		"dexpulse_store_flushes_total",
	} {
		assert.Contains(t, byName, name)
	}
}

func TestDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry()
	m.Register(reg)
	assert.Panics(t, func() { m.Register(reg) })
}
