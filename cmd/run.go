package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metro-research/venuescout/internal/model"
	"github.com/metro-research/venuescout/internal/pipeline"
	"github.com/metro-research/venuescout/internal/snapshot"
	"github.com/metro-research/venuescout/internal/store"
)

var (
	runCategory    string
	runConcurrency int
	runNoSnapshot  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full neighborhood venue pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Init store
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		// Init clients
		venues, err := initVenues()
		if err != nil {
			return err
		}
		src := initSource()

		pcfg := pipelineConfig()
		if runCategory != "" {
			pcfg.TargetCategory = runCategory
		}
		if runConcurrency > 0 {
			pcfg.Concurrency = runConcurrency
		}

		run, err := st.CreateRun(ctx, model.RunParams{
			TargetCategory: pcfg.TargetCategory,
			RadiusM:        pcfg.RadiusM,
			Limit:          pcfg.Limit,
			DatasetURL:     cfg.Dataset.URL,
		})
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		zap.L().Info("run started",
			zap.String("run_id", run.ID),
			zap.String("category", pcfg.TargetCategory),
		)

		p := pipeline.New(src, venues, pcfg)
		result, err := p.Run(ctx)
		if err != nil {
			if failErr := st.FailRun(ctx, run.ID, err.Error()); failErr != nil {
				zap.L().Error("mark run failed", zap.Error(failErr))
			}
			return eris.Wrap(err, "pipeline run")
		}

		if err := recordResult(ctx, st, run.ID, result); err != nil {
			return err
		}

		if !runNoSnapshot {
			if err := snapshot.WriteCandidates(cfg.Snapshot.CandidatesPath, result.Candidates); err != nil {
				return eris.Wrap(err, "write candidates snapshot")
			}
			if err := snapshot.WriteEnriched(cfg.Snapshot.EnrichedPath, result.Enriched); err != nil {
				return eris.Wrap(err, "write enriched snapshot")
			}
		}

		zap.L().Info("run complete",
			zap.String("run_id", run.ID),
			zap.Int("neighborhoods", len(result.Neighborhoods)),
			zap.Int("candidates", len(result.Candidates)),
			zap.Int("enriched", len(result.Enriched)),
			zap.Int("incomplete", result.Report.IncompleteRows),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Report)
	},
}

// recordResult persists the enriched table and the report for one run.
func recordResult(ctx context.Context, st store.Store, runID string, result *pipeline.Result) error {
	if err := st.SaveEnriched(ctx, runID, result.Enriched); err != nil {
		return eris.Wrap(err, "save enriched venues")
	}
	report, err := json.Marshal(result.Report)
	if err != nil {
		return eris.Wrap(err, "marshal report")
	}
	if err := st.CompleteRun(ctx, runID, report); err != nil {
		return eris.Wrap(err, "complete run")
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&runCategory, "category", "", "venue category to keep (default from config)")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "parallel detail lookups (default from config)")
	runCmd.Flags().BoolVar(&runNoSnapshot, "no-snapshot", false, "skip writing CSV snapshots")
	rootCmd.AddCommand(runCmd)
}
