package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRead(t *testing.T) {
	m := New()

	m.ObserveRead("ok", 1)
	m.ObserveRead("ok", 5)
	m.ObserveRead("not_found", 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reads.WithLabelValues("not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.readAttempts))
}

func TestGauges(t *testing.T) {
	m := New()
	at := time.Unix(1_700_000_000, 0)

	m.ObserveSnapshot(at, 4)
	m.SetCatalogSize("Cumulative", 7)
	m.RefreshDropped()
	m.SettingsSaved()

	assert.Equal(t, 1_700_000_000.0, testutil.ToFloat64(m.lastSuccess))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.members))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.catalogKeys.WithLabelValues("Cumulative")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedTrigger))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settingsSaves))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRead("parse_failed", 5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `battle_tracker_reads_total{outcome="parse_failed"} 1`), body)
}
