package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"busmap.dev/busmap"
)

var (
	nearbyRadiusKm float64
	nearbyLimit    int
)

func init() {
	nearbyCmd.Flags().Float64VarP(&nearbyRadiusKm, "radius", "", 0, "Radius in km, 0 for unbounded")
	nearbyCmd.Flags().IntVarP(&nearbyLimit, "limit", "", 10, "Max stops to list, 0 for all")
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby <lat> <lon>",
	Short: "List stops near a coordinate with the routes serving them",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}

		opts, err := loadOptions()
		if err != nil {
			return err
		}

		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		planner, err := busmap.NewPlanner(snap, opts)
		if err != nil {
			return err
		}

		return printJSON(planner.NearbyStops(lat, lon, nearbyRadiusKm, nearbyLimit))
	},
}
