package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/rask/internal/demo"
	"github.com/vango-dev/rask/internal/inspect"
	"github.com/vango-dev/rask/pkg/metrics"
)

func serveCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inspector",
		Long: `Mount a demo app and serve it over HTTP.

The page at / shows the live tree; a websocket at /ws forwards browser
events to the runtime and pushes the new markup after every commit.
Prometheus metrics are served at /metrics and snapshots can be taken
with POST /snapshots?name=...

Examples:
  rask serve
  rask serve --app todo --addr 0.0.0.0:7070
  RASK_SNAPSHOT_S3_BUCKET=snaps RASK_SNAPSHOT_S3_REGION=eu-west-1 rask serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runServe(ctx)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "Listen address (default from config)")
	flags.String("app", "", "Demo app to mount: "+joinNames())
	flags.Bool("pretty", false, "Indent the HTML output")
	flags.Bool("metrics", true, "Serve Prometheus metrics at /metrics")
	c.v.BindPFlag("inspector.addr", flags.Lookup("addr"))
	c.v.BindPFlag("inspector.app", flags.Lookup("app"))
	c.v.BindPFlag("inspector.pretty", flags.Lookup("pretty"))
	c.v.BindPFlag("metrics.enabled", flags.Lookup("metrics"))

	return cmd
}

func (c *cli) runServe(ctx context.Context) error {
	cfg := c.cfg
	app, err := demo.Lookup(cfg.Inspector.App)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	opts := inspect.Options{
		Title:  "rask · " + cfg.Inspector.App,
		Pretty: cfg.Inspector.Pretty,
		Logger: c.logger,
		Store:  store,
	}
	if cfg.Metrics.Enabled {
		opts.Collector = metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace))
	}

	srv, err := inspect.New(app, opts)
	if err != nil {
		return err
	}
	success("Serving %s on http://%s", cfg.Inspector.App, cfg.Inspector.Addr)
	if cfg.UseS3() {
		info("Snapshots: s3://%s/%s", cfg.Snapshot.S3.Bucket, cfg.Snapshot.S3.Prefix)
	} else {
		info("Snapshots: %s", cfg.Snapshot.Dir)
	}
	return srv.ListenAndServe(ctx, cfg.Inspector.Addr)
}

func joinNames() string {
	names := demo.Names()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
