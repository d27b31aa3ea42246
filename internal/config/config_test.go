// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes to dir for the duration of the test, restoring the
// original working directory on cleanup (testing.T.Chdir needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HttpListenAddr)
	assert.Equal(t, "test_results", cfg.ResultsDir)
	assert.Equal(t, "test_evidences", cfg.EvidenceDir)
	assert.Equal(t, 10, cfg.MaxConcurrentAgents)
	assert.Equal(t, time.Hour, cfg.ExecutionTimeout)
	assert.Empty(t, cfg.Schedules)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("QF_HTTP_LISTEN_ADDR", ":9090")
	t.Setenv("QF_MAX_CONCURRENT_AGENTS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HttpListenAddr)
	assert.Equal(t, 3, cfg.MaxConcurrentAgents)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
http_listen_addr: ":7070"
results_dir: "/var/lib/qualityforce/results"
max_concurrent_agents: 25
execution_timeout: "45m"
schedules:
  - name: nightly-regression
    cron_expr: "0 0 2 * * *"
    agent_type: regression_testing
    inputs:
      source_code: "func main() {}"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HttpListenAddr)
	assert.Equal(t, "/var/lib/qualityforce/results", cfg.ResultsDir)
	assert.Equal(t, 25, cfg.MaxConcurrentAgents)
	assert.Equal(t, 45*time.Minute, cfg.ExecutionTimeout)

	require.Len(t, cfg.Schedules, 1)
	schedule := cfg.Schedules[0]
	assert.Equal(t, "nightly-regression", schedule.Name)
	assert.Equal(t, "0 0 2 * * *", schedule.CronExpr)
	assert.Equal(t, "regression_testing", schedule.AgentType)
	assert.Equal(t, "func main() {}", schedule.Inputs["source_code"])
}
