package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"advos/boot"
	"advos/hal"
	"advos/internal/buildinfo"
	"advos/internal/config"
)

func newRunCmd() *cobra.Command {
	var (
		cfgPath string
		ticks   uint64
		hz      int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the kernel on this terminal",
		Long: `Boot the kernel with the console on stdin/stdout. Lines starting
with ADVICE: are routed to the advisory injection process; everything
else reaches the shell. Snapshot blocks are emitted on stdout between
SCHED_LOG_START and SCHED_LOG_END markers. Diagnostics go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if hz > 0 {
				cfg.TickHz = hz
			}

			zcfg := zap.NewDevelopmentConfig()
			zcfg.OutputPaths = []string{"stderr"}
			log, err := zcfg.Build()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			runID := uuid.NewString()
			log.Info("booting",
				zap.String("run_id", runID),
				zap.String("build", buildinfo.Short()),
				zap.Int("tick_hz", cfg.TickHz),
				zap.Uint64("snapshot_interval", cfg.SnapshotInterval),
				zap.Uint64("staleness_window", cfg.StalenessWindow),
			)

			sys, err := boot.New(cfg, os.Stdout)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			// The stdin pump is deliberately not part of the group: a
			// terminal read cannot be interrupted, so the process must
			// be able to exit while it is still parked in Read.
			in := sys.Input.Writer()
			go func() {
				defer in.Close()
				_, _ = io.Copy(in, os.Stdin)
			}()

			clk := hal.NewTicker(cfg.TickHz, ticks)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer clk.Stop()
				return sys.Kernel.Run(ctx, clk.Ticks())
			})

			err = g.Wait()
			pid, advised := sys.Kernel.LastScheduled()
			log.Info("halted",
				zap.String("run_id", runID),
				zap.Uint64("tick", sys.Kernel.Now()),
				zap.Int("last_pid", int(pid)),
				zap.Bool("last_advised", advised),
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "YAML config file")
	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "stop after N ticks (0 = run until no live process)")
	cmd.Flags().IntVar(&hz, "hz", 0, "override tick rate")
	return cmd
}
