package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metro-research/venuescout/internal/pipeline"
	"github.com/metro-research/venuescout/internal/snapshot"
)

var reportXLSX string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Rebuild the report from the enriched snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		enriched, err := snapshot.ReadEnriched(cfg.Snapshot.EnrichedPath)
		if err != nil {
			return eris.Wrap(err, "read enriched snapshot")
		}

		// Coordinates for the high-rated table come from the dataset.
		src := initSource()
		nbhds, err := src.List(ctx)
		if err != nil {
			return eris.Wrap(err, "list neighborhoods")
		}

		report := pipeline.BuildReport(nbhds, enriched, cfg.Pipeline.MinAvgRating, cfg.Pipeline.TopN)

		if reportXLSX != "" {
			if err := pipeline.ExportXLSX(report, reportXLSX); err != nil {
				return eris.Wrap(err, "export xlsx")
			}
			zap.L().Info("workbook written", zap.String("path", reportXLSX))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "also write an XLSX workbook to this path")
	rootCmd.AddCommand(reportCmd)
}
