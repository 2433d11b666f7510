// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intellidrug/internal/secrets"
	"github.com/pdiddy/intellidrug/pkg/types"
)

const sampleConfig = `
orchestrator:
  worker_timeout: 5s
  strategy: Optimistic
  worker_timeouts:
    web_analysis: 45s
workers:
  - name: patent_analysis
    kind: http
    url: http://localhost:9001/analyze
    timeout: 10s
  - name: clinical_analysis
    fixture_path: fixtures.yaml
store:
  driver: postgres
log:
  level: debug
`

func TestDecodeConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(sampleConfig)))

	c, err := decodeConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, c.Orchestrator.WorkerTimeout)
	assert.Equal(t, types.StrategyOptimistic, c.Orchestrator.Strategy)
	assert.Equal(t, 45*time.Second, c.Orchestrator.WorkerTimeouts["web_analysis"])
	require.Len(t, c.Workers, 2)
	assert.Equal(t, types.WorkerKindHTTP, c.Workers[0].Kind)
	assert.Equal(t, 10*time.Second, c.Workers[0].Timeout)
	assert.Equal(t, types.DefaultUserAgent, c.Workers[0].UserAgent)
	assert.Equal(t, "fixtures.yaml", c.Workers[1].FixturePath)
	assert.Equal(t, "postgres", c.Store.Driver)
	assert.Empty(t, c.Store.DSN, "no default dsn for postgres")
	assert.Equal(t, types.DefaultServerAddr, c.Server.Addr)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestDecodeConfig_Defaults(t *testing.T) {
	c, err := decodeConfig(viper.New())
	require.NoError(t, err)

	assert.Equal(t, types.StrategyStandard, c.Orchestrator.Strategy)
	assert.Equal(t, types.DefaultWorkerTimeout, c.Orchestrator.WorkerTimeout)
	assert.Len(t, c.Workers, len(types.CanonicalWorkers))
	assert.Equal(t, types.DefaultStoreDSN, c.Store.DSN)
	assert.Equal(t, types.ReportXLSX, c.Report.Format)
}

func TestDecodeConfig_BadStrategy(t *testing.T) {
	v := viper.New()
	v.Set("orchestrator.strategy", "reckless")
	_, err := decodeConfig(v)
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestApplySecrets(t *testing.T) {
	base := types.Config{}.WithDefaults()
	s := map[string]string{
		secrets.APIToken:        "tok",
		secrets.ResponderAPIKey: "rk",
		secrets.DatabaseDSN:     "postgres://localhost/intellidrug",
	}

	c := applySecrets(base, s)
	assert.Equal(t, "tok", c.Server.APIToken)
	assert.Equal(t, "rk", c.Responder.APIKey)
	assert.Equal(t, "postgres://localhost/intellidrug", c.Store.DSN)

	base.Server.APIToken = "from-config"
	base.Store.DSN = "custom.db"
	c = applySecrets(base, s)
	assert.Equal(t, "from-config", c.Server.APIToken, "config wins over secrets")
	assert.Equal(t, "custom.db", c.Store.DSN)
}

const fixtureFile = `
patent_analysis:
  "*":
    confidence: 0.8
    patent_status: active
clinical_analysis:
  "*":
    confidence: 0.7
    active_trials: 2
`

func TestCLI_AnalyzeThenHistory(t *testing.T) {
	dir := t.TempDir()
	fixtures := filepath.Join(dir, "workers.yaml")
	require.NoError(t, os.WriteFile(fixtures, []byte(fixtureFile), 0o644))

	config := filepath.Join(dir, "intellidrug.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
workers:
  - name: patent_analysis
    fixture_path: `+fixtures+`
  - name: clinical_analysis
    fixture_path: `+fixtures+`
report:
  output_dir: `+filepath.Join(dir, "reports")+`
  format: markdown
store:
  dsn: `+filepath.Join(dir, "data", "intellidrug.db")+`
log:
  level: error
`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", config, "analyze", "Aspirin", "--context", "pain", "--json"})
	require.NoError(t, rootCmd.Execute())

	var a types.Analysis
	require.NoError(t, json.Unmarshal(out.Bytes(), &a))
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Aspirin", a.Subject)
	assert.Contains(t, a.Recommendation.Strengths, "Active patent protection")
	require.NotEmpty(t, a.ReportPath)
	assert.FileExists(t, a.ReportPath)

	out.Reset()
	rootCmd.SetArgs([]string{"--config", config, "history"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), a.ID)
	assert.Contains(t, out.String(), "1 analyses")

	out.Reset()
	rootCmd.SetArgs([]string{"--config", config, "strategies", a.ID})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Conservative")
}
