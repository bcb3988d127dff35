package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	dig_container "github.com/nxtwiseedu/nxtwise-lms/apps/api/di/dig"
	echoapi "github.com/nxtwiseedu/nxtwise-lms/apps/api/echo"
	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
	"github.com/nxtwiseedu/nxtwise-lms/storage"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		backend *storage.Backend,
		sessions *progress.Sessions,
		server echoapi.Server,
		shutdown dig_container.Shutdown,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : %s", conf))

		dbLogger := dbLoggerParam.Logger
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()
			if err := backend.Close(ctx); err != nil {
				dbLogger.Error(fmt.Sprintf("closing storage: %v", err), err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("storage").Set(conf.Storage)
		expvar.Publish("sessions", expvar.Func(func() interface{} { return sessions.Len() }))

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Evict idle trackers

		sweepCtx, stopSweep := context.WithCancel(context.Background())
		defer stopSweep()
		go sweep(sweepCtx, sessions, conf.Session, apiLogger)

		// =========================================================================
		// Start API Service

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-serverErrors:
			apiLogger.Error(fmt.Sprintf("server error: %v", err), err)

		case sig := <-shutdown:
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Stop(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			}
		}

		stopSweep()

		// flush pending progress writes
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		if err := sessions.Close(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("flushing progress writes: %v", err), err)
		}
	}))
}

func sweep(ctx context.Context, sessions *progress.Sessions, conf core.SessionConfig, logger core.Logger) {
	if conf.SweepInterval <= 0 || conf.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(conf.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(ctx, conf.IdleTimeout); n > 0 {
				logger.Debug(fmt.Sprintf("evicted %d idle trackers", n))
			}
		}
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
