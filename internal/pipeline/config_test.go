package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secgate-io/secgate/pkg/shared/errors"
	"github.com/secgate-io/secgate/pkg/types"
)

const gatesYAML = `
gates:
  - id: custom-sast
    name: Custom SAST
    stage: pre-build
    enabled: true
    blocking: true
    checks:
      - id: code-scan
        name: Code Scan
        type: scan
        enabled: true
    thresholds:
      max_critical: 0
      max_high: 1
      max_medium: 3
      min_security_score: 80
`

func writeGatesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gates.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultGatesAreValid(t *testing.T) {
	defaults := DefaultGates()
	require.NotEmpty(t, defaults)

	stages := make(map[types.Stage]bool)
	for _, g := range defaults {
		require.NoError(t, validateGate(g))
		assert.True(t, g.Enabled)
		stages[g.Stage] = true
	}

	// Every pipeline stage is covered out of the box.
	for _, stage := range types.Stages() {
		assert.True(t, stages[stage], "no default gate for stage %s", stage)
	}
}

func TestLoadFileReplacesGates(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.LoadFile(writeGatesFile(t, gatesYAML)))

	gates := store.Gates()
	require.Len(t, gates, 1)
	assert.Equal(t, "custom-sast", gates[0].ID)
	assert.Equal(t, types.StagePreBuild, gates[0].Stage)
	assert.Equal(t, 80.0, gates[0].Thresholds.MinSecurityScore)
	require.Len(t, gates[0].Checks, 1)
	assert.Equal(t, types.CheckTypeScan, gates[0].Checks[0].Type)
}

func TestLoadFileRejectsEmptyGateSet(t *testing.T) {
	store := NewStore()
	err := store.LoadFile(writeGatesFile(t, "gates: []\n"))

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "secgate.gates_file", cfgErr.Field)

	// Defaults survive a failed load.
	assert.Equal(t, len(DefaultGates()), len(store.Gates()))
}

func TestLoadFileRejectsInvalidStage(t *testing.T) {
	content := `
gates:
  - id: broken
    name: Broken
    stage: mid-flight
    enabled: true
    checks: []
`
	store := NewStore()
	err := store.LoadFile(writeGatesFile(t, content))

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "gate.stage", cfgErr.Field)
}

func TestReloadPreservesToggles(t *testing.T) {
	path := writeGatesFile(t, gatesYAML)

	store := NewStore()
	require.NoError(t, store.LoadFile(path))
	require.NoError(t, store.SetEnabled("custom-sast", false))

	require.NoError(t, store.Reload(path))

	gate, err := store.Get("custom-sast")
	require.NoError(t, err)
	assert.False(t, gate.Enabled)
}

func TestConfigureReplacesInPlace(t *testing.T) {
	store := NewStore()
	original := store.Gates()

	replacement := original[1]
	replacement.Thresholds.MaxHigh = 99
	require.NoError(t, store.Configure(replacement))

	gates := store.Gates()
	require.Equal(t, len(original), len(gates))
	assert.Equal(t, original[1].ID, gates[1].ID)
	assert.Equal(t, 99, gates[1].Thresholds.MaxHigh)
}

func TestConfigureAppendsNewGate(t *testing.T) {
	store := NewStore()
	before := len(store.Gates())

	gate := types.Gate{
		ID:      "extra",
		Name:    "Extra",
		Stage:   types.StagePostDeploy,
		Enabled: true,
		Checks:  []types.Check{{ID: "compliance", Type: types.CheckTypeCompliance, Enabled: true}},
	}
	require.NoError(t, store.Configure(gate))

	gates := store.Gates()
	require.Len(t, gates, before+1)
	assert.Equal(t, "extra", gates[len(gates)-1].ID)
}

func TestConfigureRejectsDuplicateCheckIDs(t *testing.T) {
	gate := types.Gate{
		ID:    "dupes",
		Stage: types.StagePreCommit,
		Checks: []types.Check{
			{ID: "code-scan", Type: types.CheckTypeScan},
			{ID: "code-scan", Type: types.CheckTypeScan},
		},
	}

	err := NewStore().Configure(gate)
	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "gate.checks", cfgErr.Field)
}

func TestSetEnabledUnknownGate(t *testing.T) {
	err := NewStore().SetEnabled("ghost", true)
	assert.ErrorContains(t, err, "unknown gate")
}

func TestGatesForStageFiltersDisabled(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.SetEnabled("pre-commit-security", false))

	assert.Empty(t, store.GatesForStage(types.StagePreCommit))
	assert.NotEmpty(t, store.GatesForStage(types.StagePreBuild))
}
