package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, name string) bool {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"migrate", "import", "serve", "export", "cities", "placements", "runs"} {
		assert.True(t, findCommand(t, name), "command %s not registered", name)
	}
}

func TestImportFlags(t *testing.T) {
	require.NotNil(t, importCmd.Flags().Lookup("file"))
	require.NotNil(t, importCmd.Flags().Lookup("sheet"))
	require.NotNil(t, importCmd.Flags().Lookup("threshold"))
	require.NotNil(t, importCmd.Flags().Lookup("mirror"))
}

func TestExportRequiresOutput(t *testing.T) {
	assert.NotNil(t, exportCmd.Flags().Lookup("csv"))
	assert.NotNil(t, exportCmd.Flags().Lookup("xlsx"))
	assert.NotNil(t, exportCmd.Flags().Lookup("geojson"))
}

func TestCitiesSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range citiesCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["set"])
	assert.True(t, names["suggest"])
}
