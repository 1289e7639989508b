package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/pkg/config"
)

type testConfig struct {
	Name    string `env:"TEST_CFG_NAME" envDefault:"stackdek"`
	Port    int    `env:"TEST_CFG_PORT" envDefault:"8080"`
	Debug   bool   `env:"TEST_CFG_DEBUG" envDefault:"false"`
	Missing string `env:"TEST_CFG_MISSING"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_REQUIRED_SECRET,required"`
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "stackdek", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.Missing)
}

func TestLoad_FromEnvironment(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_CFG_NAME", "custom")
	t.Setenv("TEST_CFG_PORT", "9090")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "custom", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoad_Cached(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_CFG_NAME", "first")

	var first testConfig
	require.NoError(t, config.Load(&first))

	// Changing the environment after the first load must not change the
	// cached value other components observe.
	t.Setenv("TEST_CFG_NAME", "second")

	var second testConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Name)
}

func TestLoad_RequiredMissing(t *testing.T) {
	config.ResetCache()

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	config.ResetCache()

	err := config.Load[testConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	config.ResetCache()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}
