package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
	"github.com/nexconsult/pncp-vagas/internal/services"
)

var (
	queryUF        string
	queryDays      int
	queryOpenOnly  bool
	querySecondary bool
	queryRaw       bool
	querySnapshot  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query one state and print the grouped opportunities",
	Long:  "Run the same aggregated query as GET /api/v1/opportunities and print the result as JSON.",
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryUF, "uf", "", "State code, e.g. SP (required)")
	queryCmd.Flags().IntVar(&queryDays, "days", 0, "Window in days (defaults to QUERY_DEFAULT_RANGE_DAYS)")
	queryCmd.Flags().BoolVar(&queryOpenOnly, "open-only", false, "Only notices still open")
	queryCmd.Flags().BoolVar(&querySecondary, "secondary", false, "Include minutes and contracts")
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "Include the raw records")
	queryCmd.Flags().StringVar(&querySnapshot, "snapshot", "", "Answer from this snapshot file when it covers the query")
	_ = queryCmd.MarkFlagRequired("uf")
	rootCmd.AddCommand(queryCmd)
}

// staticSnapshot serves a snapshot read once from disk
type staticSnapshot struct {
	snap *models.Snapshot
}

func (s staticSnapshot) Current() *models.Snapshot { return s.snap }

func runQuery(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	scorer, err := services.ScorerFrom(cfg)
	if err != nil {
		return err
	}

	aggCfg := services.AggregatorConfigFrom(cfg)
	var snapshots services.SnapshotProvider
	if querySnapshot != "" {
		snap, err := services.ReadSnapshotFile(querySnapshot)
		if err != nil {
			return err
		}
		snapshots = staticSnapshot{snap: snap}
		aggCfg.UseSnapshot = true
	} else {
		aggCfg.UseSnapshot = false
	}

	agg := services.NewAggregator(services.ClientFrom(cfg, logger), scorer, snapshots, aggCfg, logger)
	res, err := agg.Query(cmd.Context(), services.QueryRequest{
		UF:               queryUF,
		Days:             queryDays,
		OpenOnly:         queryOpenOnly,
		IncludeSecondary: querySecondary,
		IncludeRaw:       queryRaw,
		OnProgress: func(p pncp.Progress) {
			logger.WithFields(logrus.Fields{
				"endpoint": p.Endpoint,
				"page":     p.Page,
				"pages":    p.TotalPages,
				"records":  p.Records,
			}).Debug("Page fetched")
		},
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
