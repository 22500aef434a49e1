package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/FelipeRosa/lnd-exporter/pkg/collector"
	"github.com/FelipeRosa/lnd-exporter/pkg/exporter"
	"github.com/FelipeRosa/lnd-exporter/pkg/lndclient"
	"github.com/FelipeRosa/lnd-exporter/pkg/registry"
	"github.com/FelipeRosa/lnd-exporter/pkg/scheduler"
)

type command struct {
	lndEndpoint   string
	tlsCertPath   string
	macaroonPath  string
	bindAddr      string
	telemetryPath string
	pollInterval  time.Duration
	rpcTimeout    time.Duration
}

func (c *command) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lnd-exporter",
		Short:        "Prometheus exporter for lnd metrics",
		RunE:         c.RunE,
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&c.lndEndpoint, "lnd-endpoint",
		"localhost:10009", "grpc address of the lnd node to "+
			"collect info from")

	cmd.Flags().StringVar(&c.tlsCertPath, "tls-cert-path",
		"", "filepath of the node's tls certificate")
	_ = cmd.MarkFlagFilename("tls-cert-path")
	_ = cmd.MarkFlagRequired("tls-cert-path")

	cmd.Flags().StringVar(&c.macaroonPath, "macaroon-path",
		"", "filepath of a readonly macaroon authorizing the "+
			"rpc calls")
	_ = cmd.MarkFlagFilename("macaroon-path")
	_ = cmd.MarkFlagRequired("macaroon-path")

	cmd.Flags().StringVar(&c.bindAddr, "bind-addr",
		":29090", "address to bind the prometheus server to")

	cmd.Flags().StringVar(&c.telemetryPath, "telemetry-path",
		"/metrics", "endpoint at which prometheus metrics are served")

	cmd.Flags().DurationVar(&c.pollInterval, "poll-interval",
		30*time.Second, "how often the node is polled for metrics")

	cmd.Flags().DurationVar(&c.rpcTimeout, "rpc-timeout",
		10*time.Second, "timeout applied to each individual rpc call")

	return cmd
}

// validate checks every recognized option before any rpc call is attempted.
func (c *command) validate() error {
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive, got %s", c.pollInterval)
	}

	if c.rpcTimeout <= 0 {
		return fmt.Errorf("rpc-timeout must be positive, got %s", c.rpcTimeout)
	}

	if c.bindAddr == "" {
		return fmt.Errorf("bind-addr must not be empty")
	}

	if c.telemetryPath == "" || c.telemetryPath[0] != '/' {
		return fmt.Errorf("telemetry-path must start with '/', got %q", c.telemetryPath)
	}

	return nil
}

func (c *command) RunE(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.validate(); err != nil {
		return fmt.Errorf("validate flags: %w", err)
	}

	creds, err := lndclient.LoadCredentials(
		c.lndEndpoint, c.tlsCertPath, c.macaroonPath,
	)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	conn, err := lndclient.Dial(dialCtx, creds)
	if err != nil {
		return fmt.Errorf("dial '%s': %w", creds.Endpoint, err)
	}
	defer conn.Close()

	lndCollector, err := collector.New(lnrpc.NewLightningClient(conn),
		collector.WithTimeout(c.rpcTimeout),
	)
	if err != nil {
		return fmt.Errorf("new collector: %w", err)
	}

	metricRegistry := registry.New()

	sched, err := scheduler.New(lndCollector, metricRegistry,
		scheduler.WithInterval(c.pollInterval),
	)
	if err != nil {
		return fmt.Errorf("new scheduler: %w", err)
	}

	prometheusExporter, err := exporter.New(metricRegistry,
		exporter.WithBindAddress(c.bindAddr),
		exporter.WithTelemetryPath(c.telemetryPath),
	)
	if err != nil {
		return fmt.Errorf("new exporter: %w", err)
	}
	defer prometheusExporter.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})

	g.Go(func() error {
		return prometheusExporter.Run(gctx)
	})

	// a shutdown signal cancels the context, which both loops report as
	// context.Canceled - that is a clean exit, not a failure.
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
