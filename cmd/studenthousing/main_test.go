package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"auth", "housing", "booking", "notification"})
}

func TestApplyEnv(t *testing.T) {
	t.Run("defaults fill unset variables", func(t *testing.T) {
		t.Setenv("APP_ENV", "")
		t.Setenv("APP_SERVICE_VERSION", "")
		t.Setenv("CONFIG_FILE", "")
		flags := &rootFlags{env: "standalone"}
		require.NoError(t, flags.applyEnv(newRootCmd()))

		assert.Equal(t, "standalone", os.Getenv("APP_ENV"))
		assert.Equal(t, version, os.Getenv("APP_SERVICE_VERSION"))
		assert.Empty(t, os.Getenv("CONFIG_FILE"))
	})

	t.Run("environment wins over default flag", func(t *testing.T) {
		t.Setenv("APP_ENV", "pro")
		t.Setenv("APP_SERVICE_VERSION", "1.2.3")

		flags := &rootFlags{env: "standalone"}
		require.NoError(t, flags.applyEnv(newRootCmd()))

		assert.Equal(t, "pro", os.Getenv("APP_ENV"))
		assert.Equal(t, "1.2.3", os.Getenv("APP_SERVICE_VERSION"))
	})

	t.Run("explicit flag wins over environment", func(t *testing.T) {
		t.Setenv("APP_ENV", "pro")
		root := newRootCmd()
		require.NoError(t, root.PersistentFlags().Set("env", "dev"))

		flags := &rootFlags{env: "dev"}
		require.NoError(t, flags.applyEnv(root))

		assert.Equal(t, "dev", os.Getenv("APP_ENV"))
	})
}

func TestServiceGraphs(t *testing.T) {
	for _, sc := range services {
		t.Run(sc.use, func(t *testing.T) {
			assert.NoError(t, fx.ValidateApp(newApp(sc, &rootFlags{port: 9999})))
		})
	}
}
