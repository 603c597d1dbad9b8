package main

import (
	"os"
	"strings"
	"testing"
	"time"

	"priofix/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv drops any PRIOFIX_* variable inherited from the host for the
// duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, "PRIOFIX_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	clearEnv(t)
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--target", "moonraker", "--interval", "2s", "--match", "first"}))

	cfg, err := config.Load()
	require.NoError(t, err)

	var opts options
	opts.target, _ = cmd.Flags().GetString("target")
	opts.interval, _ = cmd.Flags().GetDuration("interval")
	opts.match, _ = cmd.Flags().GetString("match")
	applyFlags(cmd, &cfg, opts)

	assert.Equal(t, "moonraker", cfg.TargetName)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, config.MatchFirst, cfg.MatchPolicy)
	assert.Equal(t, -20, cfg.NiceValue, "unset flags keep the environment value")
	require.NoError(t, cfg.Validate())
}

func TestTooManyArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"nice", "realtime"})
	assert.Error(t, cmd.Execute())
}

func TestApplyFlagsNormalizesKeywords(t *testing.T) {
	clearEnv(t)
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--match", " First", "--escalation", "NEVER"}))

	cfg, err := config.Load()
	require.NoError(t, err)

	var opts options
	opts.match, _ = cmd.Flags().GetString("match")
	opts.escalation, _ = cmd.Flags().GetString("escalation")
	applyFlags(cmd, &cfg, opts)

	assert.Equal(t, config.MatchFirst, cfg.MatchPolicy)
	assert.Equal(t, config.EscalateNever, cfg.Escalation)
	require.NoError(t, cfg.Validate())
}
