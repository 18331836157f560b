package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownRejectsNonPositiveSteps(t *testing.T) {
	app := newApp("postgres://unused")
	err := app.Run([]string{"migrate", "down", "--steps", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps must be positive")
}

func TestCommands(t *testing.T) {
	app := newApp("")
	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"up", "down", "status"}, names)
}
