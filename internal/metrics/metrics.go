package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/d60-Lab/yatube/internal/service"
)

type Metrics struct {
	Requests      *prometheus.CounterVec
	Events        *prometheus.CounterVec
	PageCache     *prometheus.CounterVec
	EventLatency  prometheus.Histogram
	EventQueueLen prometheus.GaugeFunc

	gatherer prometheus.Gatherer
}

// New 在 reg 上注册全部指标；events 可为空
func New(reg *prometheus.Registry, events *service.Dispatcher) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_events_total",
				Help: "Delivered domain events (posts, comments, follows)",
			},
			[]string{"kind"},
		),
		PageCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_page_cache_requests_total",
				Help: "Index page cache lookups by result",
			},
			[]string{"result"},
		),
		EventLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "yatube_event_delivery_seconds",
			Help:    "Time from publishing an event to all hooks finishing",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		gatherer: reg,
	}
	m.EventQueueLen = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "yatube_event_queue_length",
		Help: "Pending events in the dispatcher queue",
	}, func() float64 { return float64(events.QueueLen()) })

	reg.MustRegister(m.Requests, m.Events, m.PageCache, m.EventLatency, m.EventQueueLen)
	return m
}

// Hook 统计事件数量，注册到 Dispatcher
func (m *Metrics) Hook() service.Hook {
	return func(_ context.Context, ev service.Event) {
		m.Events.WithLabelValues(ev.Kind.String()).Inc()
	}
}

// ObserveCache 作为页面缓存中间件的 observe 回调
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.PageCache.WithLabelValues("hit").Inc()
		return
	}
	m.PageCache.WithLabelValues("miss").Inc()
}

// CollectLatency 持续读取 Dispatcher 的耗时样本，直到 ctx 结束
func (m *Metrics) CollectLatency(ctx context.Context, d *service.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case dur := <-d.Metrics():
			m.EventLatency.Observe(dur.Seconds())
		}
	}
}

// Middleware 按路由模板计数，避免把 id 当作标签
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{Timeout: 5 * time.Second})
	return gin.WrapH(h)
}
