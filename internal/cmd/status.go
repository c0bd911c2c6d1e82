package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/petems/airpods-monitor/internal/app"
	"github.com/petems/airpods-monitor/internal/audio"
	"github.com/petems/airpods-monitor/internal/device"
	"github.com/petems/airpods-monitor/internal/probe"
	"github.com/petems/airpods-monitor/internal/status"
	"github.com/spf13/cobra"
)

const statusTimeout = 30 * time.Second

type statusReport struct {
	Device       *device.Device      `json:"device"`
	Connected    bool                `json:"connected"`
	Title        string              `json:"title"`
	Tooltip      string              `json:"tooltip"`
	AudioDevices []audio.AudioDevice `json:"audio_devices"`
	AudioError   string              `json:"audio_error,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Detect once and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		application := app.New(app.Config{
			Config: cfg,
			Runner: probe.New(log.With().Str("component", "probe").Logger()),
			Logger: log,
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		defer cancel()

		d := application.DetectOnce(ctx)
		out := cmd.OutOrStdout()

		if asJSON, _ := cmd.Flags().GetBool("json"); !asJSON {
			for _, line := range status.Lines(d) {
				fmt.Fprintln(out, line)
			}
			return nil
		}

		report := statusReport{
			Device:       d,
			Connected:    d != nil,
			Title:        status.Title(d, cfg.ShowText),
			Tooltip:      status.Tooltip(d),
			AudioDevices: []audio.AudioDevice{},
		}
		if devices, err := application.AudioDevices(ctx); err != nil {
			report.AudioError = err.Error()
		} else if len(devices) > 0 {
			report.AudioDevices = devices
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "Output the result and audio devices as JSON")
}
