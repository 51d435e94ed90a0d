package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/pncp-vagas/internal/services"
)

var buildCacheOut string

var buildCacheCmd = &cobra.Command{
	Use:   "build-cache",
	Short: "Build the notices snapshot file",
	Long:  "Fetch the open proposals of every configured modality, keep the medical hiring ones and write them to the snapshot file the server answers from.",
	RunE:  runBuildCache,
}

func init() {
	buildCacheCmd.Flags().StringVarP(&buildCacheOut, "out", "o", "", "Output file (defaults to SNAPSHOT_PATH)")
	rootCmd.AddCommand(buildCacheCmd)
}

func runBuildCache(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := buildCacheOut
	if out == "" {
		out = cfg.Snapshot.Path
	}

	scorer, err := services.ScorerFrom(cfg)
	if err != nil {
		return err
	}
	builder := services.NewSnapshotBuilder(services.ClientFrom(cfg, logger), scorer, services.SnapshotBuildConfigFrom(cfg), logger)

	snap, err := builder.Build(cmd.Context(), func(p services.BuildProgress) {
		logger.WithFields(logrus.Fields{
			"modality": p.Modality,
			"found":    p.Found,
			"total":    p.Total,
			"errors":   p.Errors,
		}).Info("Modality done")
	})
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	if err := services.WriteSnapshotFile(out, snap); err != nil {
		return err
	}

	for _, e := range snap.Errors {
		logger.Warn(e)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d items written to %s\n", len(snap.Items), out)
	if len(snap.Items) == 0 && len(snap.Errors) > 0 {
		return fmt.Errorf("snapshot is empty after %d upstream errors", len(snap.Errors))
	}
	return nil
}
