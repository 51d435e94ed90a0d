// Package main provides the pncp-vagas command line: the HTTP API server and
// the offline snapshot, query and scoring tools.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/pncp-vagas/internal/config"
	"github.com/nexconsult/pncp-vagas/internal/logger"
)

// @title PNCP Medical Hiring API
// @version 1.0
// @description Medical hiring opportunities from the Brazilian public procurement portal (PNCP), grouped by municipality

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

var rootCmd = &cobra.Command{
	Use:          "pncp",
	Short:        "Medical hiring opportunities from PNCP",
	Long:         "pncp serves the opportunities API and builds the notices snapshot it answers from.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and a logger writing to out
func setup(out io.Writer) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logger.NewWithOutput(cfg.Log.Level, cfg.Log.Format, out), nil
}
