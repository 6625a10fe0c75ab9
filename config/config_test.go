package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/config"
)

type serverConfig struct {
	Addr    string `env:"TEST_SERVER_ADDR" envDefault:":8080"`
	Debug   bool   `env:"TEST_SERVER_DEBUG" envDefault:"false"`
	Workers int    `env:"TEST_SERVER_WORKERS" envDefault:"4"`
}

type requiredConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET_UNSET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults_apply_when_env_is_empty", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.False(t, cfg.Debug)
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("second_load_returns_cached_value", func(t *testing.T) {
		var first serverConfig
		require.NoError(t, config.Load(&first))

		// Environment changes after the first load are not observed.
		t.Setenv("TEST_SERVER_ADDR", ":9999")

		var second serverConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first, second)
	})

	t.Run("missing_required_variable_fails", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
	})

	t.Run("must_load_panics_on_failure", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})

	t.Run("nil_target_is_an_error", func(t *testing.T) {
		err := config.Load[serverConfig](nil)
		require.Error(t, err)
	})
}
