package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/9seconds/rangegeo/rangelib"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func makeRootContext() (context.Context, context.CancelFunc) {
	rootCtx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)

	go func() {
		for range sigChan {
			cancel()
		}
	}()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return rootCtx, cancel
}

func makeLocator(conf *config, log *logger) (*rangelib.Locator, error) {
	return rangelib.NewLocator(rangelib.LocatorOpts{
		Source:         conf.GetDataset(),
		CountryFilter:  conf.GetCountryFilter(),
		HasHeader:      conf.HasHeader,
		StrictLoad:     conf.StrictLoad,
		Logger:         log,
		WorkerPoolSize: conf.GetWorkerPoolSize(),
	})
}

func makeRegistry(locator *rangelib.Locator) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	registry.MustRegister(locator.UsageStats(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return registry
}

func makeHTTPHandler(conf *config, locator *rangelib.Locator, registry *prometheus.Registry) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(conf.GetRequestTimeout()))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Mount("/", rangelib.NewHTTPHandler(locator))

	if !conf.BasicAuth.Enabled() {
		return router
	}

	return &basicAuthMiddleware{
		handler:  router,
		user:     []byte(conf.BasicAuth.User),
		password: []byte(conf.BasicAuth.Password),
	}
}

// countriesOrNil makes absent command line filter a 'no filter'
// instead of an empty one.
func countriesOrNil(countries []string) []string {
	if len(countries) == 0 {
		return nil
	}

	return countries
}
