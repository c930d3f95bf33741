package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHelpers(t *testing.T) {
	m := New()

	m.RecordRecompute("rating", ResultOK)
	m.RecordRecompute("rating", ResultOK)
	m.RecordRecompute("shelved", ResultQueued)
	m.RecordCompensation("add-following", nil)
	m.RecordCompensation("add-following", errors.New("boom"))
	m.RecordRecommendation("discovery")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecomputeTotal.WithLabelValues("rating", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecomputeTotal.WithLabelValues("shelved", ResultQueued)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SagaCompensations.WithLabelValues("add-following", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SagaCompensations.WithLabelValues("add-following", ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recommendations.WithLabelValues("discovery")))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.QueueDepth.Set(5)
	assert.Equal(t, 5.0, testutil.ToFloat64(a.QueueDepth))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.QueueDepth))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordRecommendation("personalized")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `shelfwise_recommendations_total{mode="personalized"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
