package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrementPerLabel(t *testing.T) {
	before := testutil.ToFloat64(reportsBuiltTotal.WithLabelValues("history"))
	IncReportBuilt("history")
	IncReportBuilt("history")
	assert.Equal(t, before+2, testutil.ToFloat64(reportsBuiltTotal.WithLabelValues("history")))

	beforeFailed := testutil.ToFloat64(reportsFailedTotal.WithLabelValues("annotators"))
	IncReportFailed("annotators")
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(reportsFailedTotal.WithLabelValues("annotators")))
}

func TestHandlerServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)

	IncExportDelivered("csv")
	ObserveReportDuration("disagreement", 120*time.Millisecond)

	r := gin.New()
	r.GET("/metrics", Handler())

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.True(t, strings.Contains(body, `exports_delivered_total{format="csv"}`), body)
	assert.True(t, strings.Contains(body, `report_build_duration_seconds_count{kind="disagreement"}`), body)
}
