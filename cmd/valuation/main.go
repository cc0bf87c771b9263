// Command valuation is the DCF valuation server and calculator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"company_valuation/pkg/config"
	"company_valuation/pkg/logging"
)

var cfg *config.Config

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "valuation",
	Short:         "DCF valuation engine: WACC, projections and sensitivity scenarios",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Log.Level = lvl
		}
		return logging.Initialize(cfg.Log)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/app.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(waccCmd)
	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(scenariosCmd)
}
