package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"busmap.dev/busmap"
)

var asGeoJSON bool

func init() {
	networkCmd.Flags().BoolVarP(&asGeoJSON, "geojson", "", false, "Emit a GeoJSON FeatureCollection")
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Derive the consolidated route network",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}

		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		features := busmap.NewNetwork(snap, opts).Features()
		slog.Info("network derived", "features", len(features))

		if asGeoJSON {
			return printJSON(busmap.FeatureCollection(features))
		}
		return printJSON(features)
	},
}
