package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/x", 200, time.Millisecond)
		m.TokenIssued("access")
		m.TokenRevoked()
		m.UploadRejected("too_large")
		m.EventPublished("plant.created", nil)
	})
	assert.Nil(t, m.Registry())
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCountersRecord(t *testing.T) {
	m := New()
	m.TokenIssued("refresh")
	m.TokenIssued("refresh")
	m.TokenRevoked()
	m.UploadRejected("extension")
	m.EventPublished("diary.created", errors.New("broker down"))

	body := scrape(t, m)
	assert.Contains(t, body, `pland_auth_tokens_issued_total{type="refresh"} 2`)
	assert.Contains(t, body, `pland_auth_refresh_tokens_revoked_total 1`)
	assert.Contains(t, body, `pland_media_uploads_rejected_total{reason="extension"} 1`)
	assert.Contains(t, body, `pland_events_published_total{event="diary.created",result="error"} 1`)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/v1/plants", 200, 5*time.Millisecond)

	assert.Contains(t, scrape(t, m), `pland_http_requests_total{method="GET",route="/api/v1/plants",status="200"} 1`)
}
