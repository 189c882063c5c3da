package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	reg := NewRegistry()
	SideLogFailures.WithLabelValues(LogAudit).Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `fieldops_side_log_failures_total{log="audit"}`))
	require.GreaterOrEqual(t, testutil.ToFloat64(SideLogFailures.WithLabelValues(LogAudit)), 1.0)
}

func TestPoolCollector(t *testing.T) {
	c := NewPoolCollector(func() []PoolStat {
		return []PoolStat{
			{Name: "general", Running: 3, Free: 97, Cap: 100},
			{Name: "feed", Running: 0, Free: 20, Cap: 20, Waiting: 2},
		}
	})

	require.Equal(t, 6, testutil.CollectAndCount(c))
	expected := `
# HELP fieldops_worker_pool_waiting Submitters blocked waiting for a free worker.
# TYPE fieldops_worker_pool_waiting gauge
fieldops_worker_pool_waiting{pool="feed"} 2
fieldops_worker_pool_waiting{pool="general"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "fieldops_worker_pool_waiting"))
}
