package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	r := NewPrometheusRecorder("tf")
	ctx := context.Background()

	r.RecordOperationAttempt(ctx, "Register", "TournamentService")
	r.RecordOperationAttempt(ctx, "Register", "TournamentService")
	r.RecordOperationFailure(ctx, "Register", "TournamentService", "MAX_PARTICIPANTS_REACHED")
	r.RecordRegistration(ctx, "success")
	r.RecordGeoLookup(ctx, "cache_hit")
	r.RecordHTTPRequest(http.MethodGet, "/api/tournaments", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operationAttempts.WithLabelValues("TournamentService", "Register")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operationFailures.WithLabelValues("TournamentService", "Register", "MAX_PARTICIPANTS_REACHED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.registrations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.geoLookups.WithLabelValues("cache_hit")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tf_registrations_total"))
}
