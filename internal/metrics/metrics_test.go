package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCompany(StatusSuccess, 2*time.Second)
	m.ObserveCompany(StatusTimeout, 180*time.Second)
	m.ObserveStrategy("greenhouse", 12)
	m.ObserveStrategy("greenhouse", 3)
	m.ObserveDetail("fetched")
	m.ObserveReconcile("insert", 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompaniesCrawled.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompaniesCrawled.WithLabelValues(StatusTimeout)))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.JobsExtracted.WithLabelValues("greenhouse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DetailFetches.WithLabelValues("fetched")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ReconcileOps.WithLabelValues("insert")))
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveReconcile("delete", 2)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `careercrawl_reconcile_operations_total{kind="delete"} 2`))
}
