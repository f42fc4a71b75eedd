// Package apiserver exposes an engine run's Prometheus metrics and
// liveness probe over HTTP, the same fasthttp-based transport the engine's
// teacher stack uses for its own request path.
package apiserver

import (
	"bytes"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/jshook/engineblock/pkg/health"
	enginemetrics "github.com/jshook/engineblock/pkg/metrics"
)

// Server serves /metrics (Prometheus exposition of every registered
// activity's metrics.Set) and /healthz (the engine's liveness probe).
type Server struct {
	addr   string
	sets   map[string]*enginemetrics.Set
	probe  *health.Probe
	server *fasthttp.Server
}

// New builds a Server bound to addr, scraping sets (keyed by activity
// alias) and probe on request.
func New(addr string, sets map[string]*enginemetrics.Set, probe *health.Probe) *Server {
	s := &Server{addr: addr, sets: sets, probe: probe}

	r := router.New()
	r.GET("/metrics", s.handleMetrics)
	r.GET("/healthz", s.handleHealthz)

	s.server = &fasthttp.Server{Handler: r.Handler}
	return s
}

// ListenAndServe blocks serving HTTP until the listener fails or Shutdown
// is called from another goroutine.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe(s.addr)
}

// Shutdown gracefully stops the server, letting in-flight requests finish.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

func (s *Server) handleMetrics(ctx *fasthttp.RequestCtx) {
	var buf bytes.Buffer
	for _, set := range s.sets {
		set.WritePrometheus(&buf)
	}
	ctx.SetContentType("text/plain; version=0.0.4")
	ctx.SetStatusCode(fasthttp.StatusOK)
	_, _ = ctx.Write(buf.Bytes())
}

func (s *Server) handleHealthz(ctx *fasthttp.RequestCtx) {
	if s.probe == nil || s.probe.IsAlive() {
		ctx.SetStatusCode(fasthttp.StatusOK)
		_, _ = ctx.WriteString("ok")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	_, _ = ctx.WriteString("not alive")
}
