package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petems/airpods-monitor/internal/app"
	"github.com/petems/airpods-monitor/internal/config"
	"github.com/petems/airpods-monitor/internal/monitor"
	"github.com/petems/airpods-monitor/internal/probe"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll for AirPods and print the status on every update",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		application := app.New(app.Config{
			Config:        cfg,
			Runner:        probe.New(log.With().Str("component", "probe").Logger()),
			Logger:        log,
			StatusUpdater: &titlePrinter{out: cmd.OutOrStdout()},
		})

		if err := application.Start(); err != nil {
			return err
		}

		loader.Watch(func(next *config.Config, err error) {
			if err != nil {
				log.Error().Err(err).Msg("Ignoring invalid config change")
				return
			}
			log.Info().Str("path", next.Path).Msg("Config changed")
			application.Reload(next)
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return application.Shutdown(shutdownCtx)
	},
}

// titlePrinter writes one status line per publication
type titlePrinter struct {
	out io.Writer
}

func (p *titlePrinter) SetStatus(title, tooltip string, st monitor.State) {
	fmt.Fprintf(p.out, "%s\t%s\n", title, tooltip)
}
