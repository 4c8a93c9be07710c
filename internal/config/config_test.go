package config_test

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrpc-binder/internal/config"
	"xmlrpc-binder/internal/scalar"
	"xmlrpc-binder/rpcbind"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.Config{
		LogLevel:  "info",
		LogFormat: config.FormatText,
		CacheSize: 0,
		Coerce:    "safe-number",
	}, cfg)

	cats, err := cfg.Categories()
	require.NoError(t, err)
	assert.Equal(t, scalar.CategorySafeNumber, cats)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("XMLRPC_BINDER_LOG_LEVEL", "debug")
	t.Setenv("XMLRPC_BINDER_LOG_FORMAT", "json")
	t.Setenv("XMLRPC_BINDER_CACHE_SIZE", "32")
	t.Setenv("XMLRPC_BINDER_COERCE", "safe-number, textual-bool")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.CacheSize)

	cats, err := cfg.Categories()
	require.NoError(t, err)
	assert.Equal(t, scalar.CategorySafeNumber|scalar.CategoryTextualBool, cats)

	logger := log.New()
	require.NoError(t, cfg.Configure(logger))
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"level", "XMLRPC_BINDER_LOG_LEVEL", "loud", "invalid log level"},
		{"format", "XMLRPC_BINDER_LOG_FORMAT", "xml", "invalid log format"},
		{"cache size", "XMLRPC_BINDER_CACHE_SIZE", "-1", "invalid cache size"},
		{"coercion", "XMLRPC_BINDER_COERCE", "safe-number,magic", "unknown coercion category"},
		{"not a number", "XMLRPC_BINDER_CACHE_SIZE", "many", "decode environment"},
		{"fractional", "XMLRPC_BINDER_CACHE_SIZE", "2.5", "decode environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	cfg := config.Config{LogLevel: "debug", Coerce: "text-number", CacheSize: 4}

	opts, err := cfg.Options(logger)
	require.NoError(t, err)

	type answer struct {
		_ struct{} `xmlrpc:"response"`

		N int `xmlrpc:"index=0"`
	}

	eng := rpcbind.New(opts...)

	src := rpcbind.NewSliceSource(
		rpcbind.ParameterStartEvent(0),
		rpcbind.ValueEvent("42", rpcbind.TypeString),
		rpcbind.ParameterEvent(0, "42", rpcbind.TypeString),
		rpcbind.ParameterEndEvent(),
	)

	var out answer
	require.NoError(t, eng.Bind(t.Context(), src, &out))
	assert.Equal(t, 42, out.N)
	assert.NotEmpty(t, hook.AllEntries(), "engine logs through the configured logger")

	_, err = config.Config{Coerce: "magic"}.Options(logger)
	assert.Error(t, err)
}
