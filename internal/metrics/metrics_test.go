package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/service"
)

func TestHookCountsEvents(t *testing.T) {
	m := New(prometheus.NewRegistry(), nil)
	d := service.NewDispatcher(0, m.Hook())

	d.Publish(service.Event{Kind: service.EventFollowed})
	d.Publish(service.Event{Kind: service.EventFollowed})
	d.Publish(service.Event{Kind: service.EventPostCreated})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("followed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("post_created")))
}

func TestCollectLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, nil)
	d := service.NewDispatcher(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.CollectLatency(ctx, d)

	d.Publish(service.Event{Kind: service.EventPostEdited})

	assert.Eventually(t, func() bool {
		mfs, err := reg.Gather()
		if err != nil {
			return false
		}
		for _, mf := range mfs {
			if mf.GetName() == "yatube_event_delivery_seconds" {
				return mf.GetMetric()[0].GetHistogram().GetSampleCount() == 1
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry(), service.NewDispatcher(4))
	m.ObserveCache(true)
	m.ObserveCache(false)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/metrics", m.Handler())
	r.GET("/posts/:post_id/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/7/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `yatube_page_cache_requests_total{result="hit"} 1`))
	assert.True(t, strings.Contains(body, `yatube_http_requests_total{code="200",route="/posts/:post_id/"} 1`))
	assert.True(t, strings.Contains(body, "yatube_event_queue_length 0"))
}
