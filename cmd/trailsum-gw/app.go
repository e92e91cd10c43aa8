package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/trailsum/trailsum/api"
	"github.com/trailsum/trailsum/api/proxy"
)

type (
	App struct {
		log *zap.Logger
		cfg *viper.Viper
		web *http.Server

		healthy *atomic.Error

		webDone chan struct{}
	}
)

func newApp(l *zap.Logger, v *viper.Viper) *App {
	prx, err := proxy.New(&proxy.Config{
		Upstream: v.GetString(cfgUpstream),
		Logger:   l,
	})
	if err != nil {
		l.Fatal("could not prepare proxy",
			zap.String("upstream", v.GetString(cfgUpstream)),
			zap.Error(err))
	}

	healthy := atomic.NewError(nil)

	// Initialize router. `SkipClean(true)` stops gorilla/mux from
	// normalizing URL path minio/minio#3256
	// avoid URL path encoding minio/minio#8950
	r := mux.NewRouter().SkipClean(true).UseEncodedPath()

	attachHealthy(r, healthy)
	attachMetrics(v, r)
	attachProfiler(v, r)

	api.Attach(r, prx, l)

	return &App{
		log: l,
		cfg: v,

		healthy: healthy,

		web: &http.Server{
			Addr:    v.GetString(cfgListenAddress),
			Handler: r,
		},

		webDone: make(chan struct{}, 1),
	}
}

func (a *App) Wait() {
	defer a.log.Info("application finished")
	a.log.Info("application started",
		zap.String("listen_address", a.web.Addr),
		zap.String("upstream", a.cfg.GetString(cfgUpstream)))

	<-a.webDone // wait for web-server is stopped
}

func (a *App) Server(ctx context.Context) {
	defer close(a.webDone)

	go func() {
		<-ctx.Done()
		a.log.Info("stopping server")

		shutdown, cancel := context.WithTimeout(context.Background(), a.cfg.GetDuration(cfgShutdownTimeout))
		defer cancel()

		if err := a.web.Shutdown(shutdown); err != nil {
			a.log.Error("could not stop server gracefully", zap.Error(err))
			_ = a.web.Close()
		}
	}()

	if err := a.web.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.healthy.Store(err)
		a.log.Error("listen and serve", zap.Error(err))
	}
}
