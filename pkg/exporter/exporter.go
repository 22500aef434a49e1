// Package exporter serves the latest published snapshot to prometheus
// scrapers. It never triggers collection: scrape cadence and poll cadence
// are fully decoupled.
package exporter

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FelipeRosa/lnd-exporter/pkg/registry"
)

// Exporter is responsible for bringing up the web server that answers
// scrape requests out of the metric registry's current snapshot.
type Exporter struct {
	// listenAddress is the full address used to listen for scraping
	// requests, e.g. ":29090" or "127.0.0.1:1313".
	listenAddress string

	// telemetryPath configures the path under which the metrics are
	// reported, e.g. "/metrics".
	telemetryPath string

	// registry is where published snapshots are read from.
	registry *registry.Registry

	// listener is the TCP listener used by the webserver. `nil` if no
	// server is running.
	listener net.Listener

	log logr.Logger
}

// Option is a type used by functional arguments to override the exporter's
// default behavior.
type Option func(e *Exporter)

// WithBindAddress overrides the default address to listen on.
func WithBindAddress(v string) Option {
	return func(e *Exporter) {
		e.listenAddress = v
	}
}

// WithTelemetryPath overrides the default path under which metrics are
// served.
func WithTelemetryPath(v string) Option {
	return func(e *Exporter) {
		e.telemetryPath = v
	}
}

// WithLogger overrides the default development logger.
func WithLogger(v logr.Logger) Option {
	return func(e *Exporter) {
		e.log = v
	}
}

func New(reg *registry.Registry, opts ...Option) (*Exporter, error) {
	defaultLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("zap new development: %w", err)
	}

	e := &Exporter{
		listenAddress: ":29090",
		telemetryPath: "/metrics",
		registry:      reg,
		log:           zapr.NewLogger(defaultLogger.Named("exporter")),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// handler assembles the full request mux: the telemetry path rendered by a
// private prometheus registry holding the snapshot bridge, plus a liveness
// endpoint.
func (e *Exporter) handler() http.Handler {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(&snapshotCollector{
		registry: e.registry,
		log:      e.log,
	})

	mux := http.NewServeMux()

	mux.Handle(e.telemetryPath, e.guarded(promhttp.HandlerFor(
		promRegistry, promhttp.HandlerOpts{},
	)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return e.logged(mux)
}

// guarded answers 503 with an empty body until the first snapshot has been
// published, so scrapers can tell "exporter not ready" apart from "node with
// no metrics".
func (e *Exporter) guarded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := e.registry.Current(); !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (e *Exporter) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		e.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"status", rec.status,
			"took", time.Since(started).Seconds(),
		)
	})
}

// Run initiates the HTTP server to serve the metrics.
//
// ps.: this is a BLOCKING method - make sure you either make use of
// goroutines to not block if needed.
func (e *Exporter) Run(ctx context.Context) error {
	var err error

	e.listener, err = net.Listen("tcp", e.listenAddress)
	if err != nil {
		return fmt.Errorf("listen on '%s': %w", e.listenAddress, err)
	}

	doneChan := make(chan error, 1)

	go func() {
		defer close(doneChan)

		e.log.WithValues(
			"addr", e.listenAddress,
			"path", e.telemetryPath,
		).Info("listening")

		if err := http.Serve(e.listener, e.handler()); err != nil {
			doneChan <- fmt.Errorf(
				"failed listening on address %s: %w",
				e.listenAddress, err,
			)
		}
	}()

	select {
	case err = <-doneChan:
		if err != nil {
			return fmt.Errorf("donechan err: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("ctx err: %w", ctx.Err())
	}

	return nil
}

// Close gracefully closes the tcp listener associated with it.
func (e *Exporter) Close() error {
	if e.listener == nil {
		return nil
	}

	e.log.Info("closing")
	if err := e.listener.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}
