package main

import (
	"context"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"blogfeed/internal/metrics"
	"blogfeed/internal/server"
	"blogfeed/internal/service"
	"blogfeed/internal/source/cms"
	"blogfeed/internal/storage/postgres"
)

type ServeCmd struct {
	Compile bool `help:"Also compile static content on start and on the configured interval"`
	Watch   bool `help:"Recompile when files under the content directory change; implies --compile"`
}

func (c *ServeCmd) Run(a *app) error {
	db, err := a.connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheusRecorder(reg)

	if !a.cfg.CMS.Configured() {
		a.logger.Warn("cms base url or token missing, remote blog endpoints will fail")
	}
	cmsClient := cms.New(cms.Config{
		BaseURL:         a.cfg.CMS.BaseURL,
		Token:           a.cfg.CMS.Token,
		AssetsURL:       a.cfg.CMS.AssetsURL,
		Timeout:         a.cfg.CMS.Timeout,
		PostsCollection: a.cfg.CMS.PostsCollection,
		TagsCollection:  a.cfg.CMS.TagsCollection,
	}, recorder, a.logger)

	blog := service.NewBlogService(cmsClient, postgres.NewPostStore(db), a.cfg.Site, a.cfg.Content, a.logger)
	srv := server.New(a.cfg.Server, a.cfg.Site, blog, reg, a.logger)

	compile := c.Compile || c.Watch
	runners := []func(context.Context) error{srv.Run}

	// everything is connected before the first runner starts
	if compile {
		pub, closePub, err := a.publisher()
		if err != nil {
			return err
		}
		defer closePub()

		runners = append(runners, a.compileRunners(a.compiler(db, pub, recorder), c.Watch)...)
	}

	a.logger.Info("starting blogfeed server",
		"addr", a.cfg.Server.Addr,
		"cms_configured", a.cfg.CMS.Configured(),
		"compile", compile,
		"watch", c.Watch,
	)

	return runGroup(a.ctx, runners...)
}
