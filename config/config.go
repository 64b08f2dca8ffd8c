// Package config loads the tunable constants of the consolidation
// engine and journey planner from an optional YAML file. Every field
// is optional; absent fields keep their defaults.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"busmap.dev/busmap"
)

type File struct {
	// Jaccard overlap above which a route's directions merge.
	MergeThreshold *float64 `yaml:"mergeThreshold" validate:"omitempty,gte=0,lte=1"`

	TransferLookahead       *int `yaml:"transferLookahead" validate:"omitempty,gt=0"`
	TransferPenaltyMinutes  *int `yaml:"transferPenaltyMinutes" validate:"omitempty,gte=0"`
	MaxDirectBeforeTransfer *int `yaml:"maxDirectBeforeTransfer" validate:"omitempty,gt=0"`
	MaxItineraries          *int `yaml:"maxItineraries" validate:"omitempty,gt=0"`

	FallbackSegmentMinutes *int `yaml:"fallbackSegmentMinutes" validate:"omitempty,gt=0"`
	MinSegmentMinutes      *int `yaml:"minSegmentMinutes" validate:"omitempty,gt=0"`
	MaxSegmentMinutes      *int `yaml:"maxSegmentMinutes" validate:"omitempty,gt=0"`

	DirectionalSuffixPattern *string `yaml:"directionalSuffixPattern"`
}

// Load reads a YAML tunables file and applies it over the defaults.
// An empty path returns the defaults untouched.
func Load(path string) (busmap.Options, error) {
	opts := busmap.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return opts, fmt.Errorf("parsing %s: %w", path, err)
	}

	v := validator.New()
	if err := v.Struct(file); err != nil {
		return opts, fmt.Errorf("validating %s: %w", path, err)
	}

	apply(&opts, file)

	if opts.MinSegmentMinutes > opts.MaxSegmentMinutes {
		return opts, fmt.Errorf("minSegmentMinutes %d exceeds maxSegmentMinutes %d",
			opts.MinSegmentMinutes, opts.MaxSegmentMinutes)
	}
	if _, err := regexp.Compile(opts.DirectionalSuffixPattern); err != nil {
		return opts, fmt.Errorf("directionalSuffixPattern: %w", err)
	}

	return opts, nil
}

func apply(opts *busmap.Options, file File) {
	if file.MergeThreshold != nil {
		opts.MergeThreshold = *file.MergeThreshold
	}
	if file.TransferLookahead != nil {
		opts.TransferLookahead = *file.TransferLookahead
	}
	if file.TransferPenaltyMinutes != nil {
		opts.TransferPenaltyMinutes = *file.TransferPenaltyMinutes
	}
	if file.MaxDirectBeforeTransfer != nil {
		opts.MaxDirectBeforeTransfer = *file.MaxDirectBeforeTransfer
	}
	if file.MaxItineraries != nil {
		opts.MaxItineraries = *file.MaxItineraries
	}
	if file.FallbackSegmentMinutes != nil {
		opts.FallbackSegmentMinutes = *file.FallbackSegmentMinutes
	}
	if file.MinSegmentMinutes != nil {
		opts.MinSegmentMinutes = *file.MinSegmentMinutes
	}
	if file.MaxSegmentMinutes != nil {
		opts.MaxSegmentMinutes = *file.MaxSegmentMinutes
	}
	if file.DirectionalSuffixPattern != nil {
		opts.DirectionalSuffixPattern = *file.DirectionalSuffixPattern
	}
}
