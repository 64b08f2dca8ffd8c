package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"busmap.dev/busmap"
)

var planCmd = &cobra.Command{
	Use:   "plan <origin place> <destination place>",
	Short: "Find itineraries between two places",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, destination := args[0], args[1]
		if origin == destination {
			return fmt.Errorf("origin and destination are the same place")
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

		if !planner.HasPlace(origin) {
			return fmt.Errorf("unknown place %q", origin)
		}
		if !planner.HasPlace(destination) {
			return fmt.Errorf("unknown place %q", destination)
		}

		return printJSON(planner.FindItineraries(origin, destination))
	},
}
