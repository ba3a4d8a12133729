package main

import (
	rxgin "github.com/fwojciec/revex/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Run executes the serve command. It blocks until the context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	gin.SetMode(gin.ReleaseMode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := rxgin.NewServer(c.Addr, deps.Scraper,
		rxgin.WithMaxSessions(c.MaxSessions),
		rxgin.WithRegistry(reg),
		rxgin.WithLogger(deps.Logger),
	)
	return srv.Run(deps.Ctx)
}
