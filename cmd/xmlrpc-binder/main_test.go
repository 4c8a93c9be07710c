package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrpc-binder/internal/decl"
)

func newLogger() (*log.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	return logger, hook
}

func TestRun_Commands(t *testing.T) {
	logger, _ := newLogger()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"help"}, &out, logger))
	assert.Contains(t, out.String(), "analyze")

	assert.ErrorContains(t, run(context.Background(), []string{"generate"}, &out, logger), `unknown command "generate"`)
	assert.Error(t, run(context.Background(), nil, &out, logger))
	assert.ErrorContains(t, run(context.Background(), []string{"check", "./store"}, &out, logger), "-decl is required")
}

func TestRun_Schema(t *testing.T) {
	logger, _ := newLogger()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"schema"}, &out, logger))

	var schema map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &schema))
	assert.Equal(t, "xmlrpc-binder declarations", schema["title"])
}

func TestRun_AnalyzeThenCheck(t *testing.T) {
	logger, hook := newLogger()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"analyze", "-dir", "../..", "./store"}, &out, logger))

	f, err := decl.Parse(out.Bytes())
	require.NoError(t, err)
	assert.NotEmpty(t, f.Types)

	// Price declares final fields without a constructor.
	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || e.Level == log.WarnLevel
	}

	assert.True(t, warned)

	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o600))

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"check", "-dir", "../..", "-decl", path, "./store"}, &out, logger))
	assert.Contains(t, out.String(), "types ok")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
version: "1"
types:
  - type: Custmer
    shape: struct
`), 0o600))

	err = run(context.Background(), []string{"check", "-dir", "../..", "-decl", bad, "./store"}, &out, logger)
	assert.ErrorIs(t, err, errFailed)
}

func TestRun_AnalyzePaths(t *testing.T) {
	logger, _ := newLogger()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"analyze", "-dir", "../..", "-paths", "./store"}, &out, logger))

	assert.Contains(t, out.String(), "store.PlaceOrder (request)")
	assert.Contains(t, out.String(), "store.OrderReceipt (response)")
	assert.NotContains(t, out.String(), "store.Customer (")
}

func TestWatchFile(t *testing.T) {
	logger, _ := newLogger()

	path := filepath.Join(t.TempDir(), "decl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)

	go func() {
		done <- watchFile(ctx, logger, path, func() { calls.Add(1) })
	}()

	// The watcher starts asynchronously, so keep touching the file.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("version: \"1\"\ntypes: []\n"), 0o600)
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
