package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}

		out := cmd.OutOrStdout()
		if cfg.Path != "" {
			fmt.Fprintf(out, "# %s\n", cfg.Path)
		} else {
			fmt.Fprintln(out, "# defaults (no config file)")
		}
		_, err = out.Write(data)
		return err
	},
}
