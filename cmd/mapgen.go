package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metro-research/venuescout/internal/pipeline"
	"github.com/metro-research/venuescout/internal/render"
	"github.com/metro-research/venuescout/pkg/nominatim"
)

var (
	mapgenRunID string
	mapgenOut   string
)

var mapgenCmd = &cobra.Command{
	Use:   "mapgen",
	Short: "Render the high-rated neighborhoods as an HTML map",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		run, err := loadRun(ctx, st, mapgenRunID)
		if err != nil {
			return err
		}
		if len(run.Report) == 0 {
			return eris.Errorf("run %s has no report", run.ID)
		}

		var report pipeline.Report
		if err := json.Unmarshal(run.Report, &report); err != nil {
			return eris.Wrap(err, "unmarshal report")
		}

		// Geocode the map center. Falls back to the marker centroid when
		// the geocoder has no match or is unreachable.
		var centerLat, centerLng float64
		geocoder := nominatim.NewClient(cfg.Nominatim.UserAgent, nominatim.WithBaseURL(cfg.Nominatim.BaseURL))
		place, err := geocoder.Search(ctx, cfg.Nominatim.CenterLabel)
		switch {
		case err != nil:
			zap.L().Warn("geocode failed, using marker centroid", zap.Error(err))
		case place == nil:
			zap.L().Warn("geocode returned no match, using marker centroid",
				zap.String("query", cfg.Nominatim.CenterLabel))
		default:
			centerLat, centerLng = place.Latitude, place.Longitude
		}

		if err := render.WriteMap(&report, centerLat, centerLng, mapgenOut); err != nil {
			return eris.Wrap(err, "write map")
		}

		zap.L().Info("map written",
			zap.String("run_id", run.ID),
			zap.String("path", mapgenOut),
			zap.Int("markers", len(report.HighRatedNeighborhoods)),
		)
		return nil
	},
}

func init() {
	mapgenCmd.Flags().StringVar(&mapgenRunID, "run-id", "", "run to render (default: latest complete run)")
	mapgenCmd.Flags().StringVar(&mapgenOut, "out", "map.html", "output HTML path")
	rootCmd.AddCommand(mapgenCmd)
}
