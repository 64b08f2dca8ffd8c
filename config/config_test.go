package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busmap.dev/busmap"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "busmap.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	opts, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, busmap.DefaultOptions(), opts)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mergeThreshold: 0.5
transferPenaltyMinutes: 10
maxItineraries: 3
`)

	opts, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, opts.MergeThreshold)
	assert.Equal(t, 10, opts.TransferPenaltyMinutes)
	assert.Equal(t, 3, opts.MaxItineraries)

	// Untouched fields keep their defaults.
	defaults := busmap.DefaultOptions()
	assert.Equal(t, defaults.TransferLookahead, opts.TransferLookahead)
	assert.Equal(t, defaults.DirectionalSuffixPattern, opts.DirectionalSuffixPattern)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, content := range map[string]string{
		"threshold above one":  "mergeThreshold: 1.5",
		"zero lookahead":       "transferLookahead: 0",
		"negative penalty":     "transferPenaltyMinutes: -1",
		"inverted clamp":       "minSegmentMinutes: 31",
		"broken suffix regexp": `directionalSuffixPattern: "("`,
		"not yaml":             "{{{",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
