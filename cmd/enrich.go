package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metro-research/venuescout/internal/pipeline"
	"github.com/metro-research/venuescout/internal/snapshot"
)

var enrichConcurrency int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a previously saved candidate snapshot",
	Long: `Reads the candidate CSV written by a prior run and performs only the
per-venue detail stage, writing the enriched CSV. Useful for resuming after
a partial failure without re-running the search stage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		candidates, err := snapshot.ReadCandidates(cfg.Snapshot.CandidatesPath)
		if err != nil {
			return eris.Wrap(err, "read candidates snapshot")
		}
		zap.L().Info("candidates loaded",
			zap.String("path", cfg.Snapshot.CandidatesPath),
			zap.Int("count", len(candidates)),
		)

		venues, err := initVenues()
		if err != nil {
			return err
		}

		pcfg := pipelineConfig()
		if enrichConcurrency > 0 {
			pcfg.Concurrency = enrichConcurrency
		}

		p := pipeline.New(initSource(), venues, pcfg)
		enriched, err := p.Enrich(ctx, candidates)
		if err != nil {
			return eris.Wrap(err, "enrich candidates")
		}

		if err := snapshot.WriteEnriched(cfg.Snapshot.EnrichedPath, enriched); err != nil {
			return eris.Wrap(err, "write enriched snapshot")
		}

		incomplete := 0
		for _, row := range enriched {
			if !row.HadData {
				incomplete++
			}
		}
		zap.L().Info("enrichment complete",
			zap.String("path", cfg.Snapshot.EnrichedPath),
			zap.Int("enriched", len(enriched)),
			zap.Int("incomplete", incomplete),
		)
		return nil
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "parallel detail lookups (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
