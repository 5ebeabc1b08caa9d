package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestServe_RejectsUnknownHop(t *testing.T) {
	t.Parallel()

	_, err := run(t, context.Background(), "serve", "payments")
	assert.ErrorContains(t, err, "invalid argument")
}

func TestServe_RequiresHop(t *testing.T) {
	t.Parallel()

	_, err := run(t, context.Background(), "serve")
	assert.Error(t, err)
}

func TestServe_BadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: xml\n"), 0o644))

	_, err := run(t, context.Background(), "--config", path, "serve", "tracking")
	assert.ErrorContains(t, err, "log.format")
}

func TestServe_LogLevelFlagIsValidated(t *testing.T) {
	t.Parallel()

	_, err := run(t, context.Background(), "--log-level", "chatty", "serve", "tracking")
	assert.ErrorContains(t, err, "log.level")
}

// serve returns cleanly once its context is canceled.
func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := run(t, ctx, "--log-level", "error", "serve", "tracking", "--listen", "127.0.0.1:0")
	assert.NoError(t, err)
}

func TestStack_PrintsAddresses(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chain.yaml")
	cfg := `
log:
  level: error
hops:
  customers: {listen: "127.0.0.1:0"}
  orders: {listen: "127.0.0.1:0"}
  tracking: {listen: "127.0.0.1:0"}
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out, err := run(t, ctx, "--config", path, "stack")
	require.NoError(t, err)
	for _, hop := range []string{"customers", "orders", "tracking"} {
		assert.True(t, strings.Contains(out, hop+" "), "missing %s in %q", hop, out)
	}
}
