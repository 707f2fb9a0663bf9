package api

import (
	"encoding/json"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// StatusReporter is implemented by the app: a snapshot of the run the
// controller can serialize without touching worker internals.
type StatusReporter interface {
	Status() (body any, healthy bool)
}

type StatusController struct {
	reporter StatusReporter
}

func NewStatusController(reporter StatusReporter) *StatusController {
	return &StatusController{reporter: reporter}
}

func (c *StatusController) Get(ctx *fasthttp.RequestCtx) {
	body, healthy := c.reporter.Status()
	if healthy {
		ctx.SetStatusCode(fasthttp.StatusOK)
	} else {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(body); err != nil {
		log.Err(err).Msg("[status-controller] failed to write response into *fasthttp.RequestCtx")
	}
}

func (c *StatusController) AddRoute(router *router.Router) {
	router.GET("/status", c.Get)
}
