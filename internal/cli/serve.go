package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/api"
	"github.com/matzehuels/kintree/pkg/observability/prom"
	"github.com/matzehuels/kintree/pkg/service"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		seedMembers int
		noCache     bool
		noMetrics   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted.

The relation masters (SPOUSE, FATHER, MOTHER, CHILD) are installed on start.
With the memory store, --seed-members fills the tree with a demo family.
Prometheus metrics are served at /metrics unless --no-metrics is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, seedMembers, noCache, noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().IntVar(&seedMembers, "seed-members", 0, "generate a demo family of this size on start")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout caching")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, seedMembers int, noCache, noMetrics bool) error {
	a, err := c.open(ctx, noCache)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr != "" {
		a.cfg.Server.Addr = addr
	}

	n, err := a.svc.InstallMasters(ctx)
	if err != nil {
		return fmt.Errorf("install relation masters: %w", err)
	}
	c.Logger.Debug("relation masters installed", "count", n)

	if seedMembers > 0 {
		prog := newProgress(c.Logger)
		res, err := a.svc.Seed(ctx, service.SeedOptions{Members: seedMembers, Seed: uint64(time.Now().UnixNano())})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		prog.done(fmt.Sprintf("Seeded %d members and %d edges", res.Members, res.Edges))
	}

	opts := api.Options{
		Addr:         a.cfg.Server.Addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		CORSOrigin:   a.cfg.Server.CORSOrigin,
		Layout:       layoutOptions(a.cfg),
	}
	if !noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom.New(reg).Register()
		opts.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	c.Logger.Info("starting kintree",
		"store", a.cfg.Store.Driver,
		"cache", a.cfg.Cache.Backend,
		"metrics", !noMetrics,
	)
	return api.New(a.svc, opts, c.Logger).ListenAndServe(ctx)
}
