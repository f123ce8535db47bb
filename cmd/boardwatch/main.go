package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envOnly    bool
)

var rootCmd = &cobra.Command{
	Use:           "boardwatch",
	Short:         "Daily board and stock-news acquisition pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultPath := os.Getenv("BW_CONFIG")
	if defaultPath == "" {
		defaultPath = "config/config.yaml"
	}
	defaultEnvOnly := false
	if raw := os.Getenv("BW_ENV_ONLY"); raw != "" {
		defaultEnvOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&envOnly, "env-only", defaultEnvOnly, "ignore the config file and read defaults plus BW_* env vars")

	rootCmd.AddCommand(newRunCmd(), newServeCmd(), newMigrateCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
