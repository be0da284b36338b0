// Command pulse samples host resource usage and shows it as a terminal
// preview, a one-shot JSON document or an NDJSON stream.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/pulse/internal/config"
	"github.com/Dicklesworthstone/pulse/internal/logging"
	"github.com/Dicklesworthstone/pulse/internal/sampler"
	"github.com/Dicklesworthstone/pulse/internal/store"
	"github.com/Dicklesworthstone/pulse/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg     config.Config
	log     *zap.Logger
	state   *store.SQLite
	sampler *sampler.Sampler
}

func (a *app) close() {
	if a.state != nil {
		_ = a.state.Close()
	}
	_ = a.log.Sync()
}

func setup(cmd *cobra.Command, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	st, err := store.OpenSQLite(cfg.StatePath, cfg.Namespace)
	if err != nil {
		return nil, err
	}
	probes := sampler.SystemProbes(sampler.SystemOptions{
		Volume:            cfg.Volume,
		InterfacePrefixes: cfg.InterfacePrefixes,
		PowerSupplyDir:    cfg.PowerSupplyDir,
		EnableBattery:     cfg.EnableBattery,
		EnableApps:        cfg.EnableApps,
	}, st)
	log.Debug("sampler ready",
		zap.Duration("interval", cfg.Interval),
		zap.String("state", cfg.StatePath),
		zap.Strings("interfaces", cfg.InterfacePrefixes))
	return &app{
		cfg:     cfg,
		log:     log,
		state:   st,
		sampler: sampler.New(cfg.Interval, probes, log.Named("sampler")),
	}, nil
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		oneShot    bool
		stream     bool
	)
	root := &cobra.Command{
		Use:          "pulse",
		Short:        "Live CPU, memory, storage, battery and network usage",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, configPath)
			if err != nil {
				return err
			}
			defer a.close()

			switch {
			case oneShot:
				return writeJSON(cmd.OutOrStdout(), a.sampler)
			case stream:
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return streamJSON(ctx, cmd.OutOrStdout(), a.sampler)
			default:
				return ui.RunTUI(a.sampler, hostname())
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "YAML config file")
	config.BindFlags(root.PersistentFlags())
	root.Flags().BoolVar(&oneShot, "json", false, "output one-shot JSON and exit")
	root.Flags().BoolVar(&stream, "json-stream", false, "stream NDJSON until interrupted")
	root.MarkFlagsMutuallyExclusive("json", "json-stream")

	root.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the stored network baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, configPath)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.sampler.ResetNetwork(); err != nil {
				return fmt.Errorf("reset network baseline: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "network baseline cleared")
			return nil
		},
	})
	return root
}

func writeJSON(w io.Writer, s *sampler.Sampler) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Sample())
}

func streamJSON(ctx context.Context, w io.Writer, s *sampler.Sampler) error {
	enc := json.NewEncoder(w)
	for snap := range s.Stream(ctx) {
		if err := enc.Encode(snap); err != nil {
			return err
		}
	}
	return nil
}

func hostname() string {
	info, err := host.Info()
	if err != nil || info.Hostname == "" {
		return "localhost"
	}
	return info.Hostname
}
