package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/cli"
	"github.com/rshade/carbonledger/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.String())
		require.NotNil(t, root)
		assert.Equal(t, "carbonledger", root.Use)
		assert.Equal(t, version.String(), root.Version)

		names := map[string]bool{}
		for _, c := range root.Commands() {
			names[c.Name()] = true
		}
		for _, want := range []string{"log", "footprint", "streak", "compare", "dashboard"} {
			assert.True(t, names[want], "missing %s command", want)
		}
	})
}
