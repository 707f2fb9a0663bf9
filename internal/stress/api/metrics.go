package api

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const PrometheusMetricsPath = "/metrics"

type PrometheusMetrics struct {
	handler fasthttp.RequestHandler
}

func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{handler: fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())}
}

func (m *PrometheusMetrics) Get(ctx *fasthttp.RequestCtx) {
	m.handler(ctx)
}

func (m *PrometheusMetrics) AddRoute(router *router.Router) {
	router.GET(PrometheusMetricsPath, m.Get)
}
