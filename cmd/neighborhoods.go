package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var neighborhoodsJSON bool

var neighborhoodsCmd = &cobra.Command{
	Use:   "neighborhoods",
	Short: "List the neighborhoods in the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src := initSource()
		nbhds, err := src.List(ctx)
		if err != nil {
			return eris.Wrap(err, "list neighborhoods")
		}

		zap.L().Info("neighborhoods loaded", zap.Int("count", len(nbhds)))

		if neighborhoodsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(nbhds)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BOROUGH\tNEIGHBORHOOD\tLATITUDE\tLONGITUDE")
		for _, n := range nbhds {
			fmt.Fprintf(w, "%s\t%s\t%.6f\t%.6f\n", n.Borough, n.Name, n.Latitude, n.Longitude)
		}
		return w.Flush()
	},
}

func init() {
	neighborhoodsCmd.Flags().BoolVar(&neighborhoodsJSON, "json", false, "output JSON instead of a table")
	rootCmd.AddCommand(neighborhoodsCmd)
}
