package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"garage-backend/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/vehicles/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/vehicles/a", "/vehicles/b", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/vehicles/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.latency))
}

func TestObserveSave(t *testing.T) {
	m := New()

	m.ObserveSave(3, nil)
	m.ObserveSave(5, errors.New("quota"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.vehicles))
}

func TestNotify(t *testing.T) {
	m := New()
	var n notify.Notifier = m

	n.Notify("a", notify.SeverityWarning, notify.Persistent)
	n.Notify("b", notify.SeverityWarning, 0)
	n.Notify("c", notify.SeverityInfo, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("info")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveSave(1, nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `garage_saves_total{result="ok"} 1`)
	assert.Contains(t, string(body), "garage_vehicles 1")
	assert.Contains(t, string(body), "go_goroutines")
}
