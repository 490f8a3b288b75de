package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systemshift/unreplied/internal/server/config"
)

var (
	envFile   string
	serverURL string
	mockMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "unreplied",
	Short: "Unreplied conversation feed and reputation cache",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: .env if present)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of a running server")
	rootCmd.PersistentFlags().BoolVar(&mockMode, "mock", false, "Serve reputation from fixtures instead of the network")

	rootCmd.AddCommand(serveCmd, feedCmd, reputationCmd, seedCmd)
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if mockMode {
		cfg.MockMode = true
	}
	return cfg, nil
}
