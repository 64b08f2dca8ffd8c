package main

import (
	"github.com/spf13/cobra"

	"busmap.dev/busmap"
)

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "List the places derivable from the feed's stop names",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		return printJSON(planner.Places())
	},
}
