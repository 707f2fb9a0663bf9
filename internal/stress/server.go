package stress

import (
	"context"
	"errors"
	"sync"

	"github.com/Borislavv/atomic-list/internal/stress/config"
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type httpController interface {
	AddRoute(r *router.Router)
}

// httpServer exposes the run to the outside: /status for the progress
// snapshot and /metrics for Prometheus. It lives and dies with the run
// context.
type httpServer struct {
	ctx    context.Context
	cfg    *config.Config
	server *fasthttp.Server
}

func newHTTPServer(ctx context.Context, cfg *config.Config, controllers []httpController) *httpServer {
	r := router.New()
	for _, contr := range controllers {
		contr.AddRoute(r)
	}
	return &httpServer{ctx: ctx, cfg: cfg, server: &fasthttp.Server{Handler: r.Handler}}
}

func (s *httpServer) ListenAndServe() {
	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Add(1)
	go s.serve(wg)

	wg.Add(1)
	go s.shutdown(wg)
}

func (s *httpServer) serve(wg *sync.WaitGroup) {
	defer wg.Done()

	port := s.cfg.ServerPort
	log.Info().Msgf("[fasthttp] status server was started (port: %v)", port)
	defer log.Info().Msgf("[fasthttp] status server was stopped (port: %v)", port)

	if err := s.server.ListenAndServe(port); err != nil {
		log.Err(err).Msgf("[fasthttp] status server failed to listen and serve port %v: %v", port, err.Error())
	}
}

func (s *httpServer) shutdown(wg *sync.WaitGroup) {
	defer wg.Done()

	<-s.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ServerShutdownTimeout)
	defer cancel()

	if err := s.server.ShutdownWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Msgf("[fasthttp] status server shutdown failed: %v", err.Error())
	}
}
