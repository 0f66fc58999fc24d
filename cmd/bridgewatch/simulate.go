package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/bridgewatch/bridgewatch/pkg/simulator"
	"github.com/bridgewatch/bridgewatch/pkg/surface"
)

type simulateOpts struct {
	ticks    int
	interval time.Duration
	seed     uint64
}

func newSimulateCmd(g *globalOpts) *cobra.Command {
	var opts simulateOpts

	cmd := &cobra.Command{
		Use:   "simulate <id>",
		Short: "Run a live sensor simulation for one structure",
		Long: `Perturbs condition rating and traffic load on a fixed clock and prints the
recomputed risk and health on every tick. Interrupting (or reaching --ticks)
stops the clock and prints the restored original readings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runSimulate(ctx, cmd.OutOrStdout(), g, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.ticks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	f.DurationVar(&opts.interval, "interval", 0, "Tick interval (default from config, 3s)")
	f.Uint64Var(&opts.seed, "seed", 0, "Random seed (default from config, 0 for random)")
	return cmd
}

func runSimulate(ctx context.Context, w io.Writer, g *globalOpts, id string, opts simulateOpts) error {
	e, err := loadEnv(g)
	if err != nil {
		return err
	}
	rec, err := e.catalog.ByID(ctx, id)
	if err != nil {
		return err
	}

	if opts.interval <= 0 {
		opts.interval = e.cfg.SimulationInterval()
	}
	if opts.seed == 0 {
		opts.seed = e.cfg.Simulation.Seed
	}
	sim := simulator.New(rec, simulator.Options{
		Interval: opts.interval,
		Seed:     opts.seed,
		Engine:   e.catalog.Engine(),
	})

	ticks := make(chan simulator.State, 16)
	unsubscribe := sim.Subscribe(simulator.ObserverFunc(func(st simulator.State) {
		if !st.Active {
			return
		}
		select {
		case ticks <- st:
		default:
		}
	}))
	defer unsubscribe()

	surface.RenderState(w, sim.CurrentState())
	sim.Activate(ctx)

	for n := 0; opts.ticks <= 0 || n < opts.ticks; {
		select {
		case st := <-ticks:
			surface.RenderState(w, st)
			n++
		case <-ctx.Done():
			sim.Deactivate()
			surface.RenderState(w, sim.CurrentState())
			return nil
		}
	}
	sim.Deactivate()
	surface.RenderState(w, sim.CurrentState())
	return nil
}
