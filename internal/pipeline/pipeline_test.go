package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secgate-io/secgate/internal/executor"
	"github.com/secgate-io/secgate/internal/notify"
	"github.com/secgate-io/secgate/internal/report"
	"github.com/secgate-io/secgate/pkg/shared/config"
	"github.com/secgate-io/secgate/pkg/types"
)

// scriptedGates returns a pre-scripted result per gate id and records the
// execution order.
type scriptedGates struct {
	results  map[string]types.GateResult
	executed []string
	lastCtx  executor.Context
	lastOpts executor.Options
}

func (s *scriptedGates) Execute(g types.Gate, ctx executor.Context, opts executor.Options) types.GateResult {
	s.executed = append(s.executed, g.ID)
	s.lastCtx = ctx
	s.lastOpts = opts

	if result, ok := s.results[g.ID]; ok {
		result.GateID = g.ID
		result.Name = g.Name
		result.Blocking = g.Blocking
		return result
	}
	return types.GateResult{
		GateID:   g.ID,
		Name:     g.Name,
		Status:   types.GateStatusPassed,
		Blocking: g.Blocking,
		Checks:   []types.CheckResult{},
	}
}

type recordingNotifier struct {
	messages []notify.Message
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.messages = append(n.messages, msg)
	return n.err
}

func testGate(id string, stage types.Stage, blocking bool) types.Gate {
	return types.Gate{
		ID:       id,
		Name:     id,
		Stage:    stage,
		Enabled:  true,
		Blocking: blocking,
		Checks: []types.Check{
			{ID: "code-scan", Name: "Code Scan", Type: types.CheckTypeScan, Enabled: true},
		},
	}
}

func testOrchestrator(t *testing.T, gates []types.Gate, exec GateExecutor, notifier notify.Notifier) *Orchestrator {
	t.Helper()

	cfg := &config.Config{}
	cfg.Secgate.ProjectPath = t.TempDir()

	store := NewStore()
	store.mu.Lock()
	store.gates = gates
	store.mu.Unlock()

	generator := report.NewGenerator(report.NewMemoryRepository(), hclog.NewNullLogger())
	return New(cfg, store, exec, generator, notifier, hclog.NewNullLogger())
}

func TestRunStageWithoutGatesPasses(t *testing.T) {
	exec := &scriptedGates{}
	o := testOrchestrator(t, nil, exec, &recordingNotifier{})

	rep := o.RunStage(context.Background(), types.StagePreCommit, Options{})

	assert.Equal(t, types.GateStatusPassed, rep.Status)
	assert.Empty(t, rep.Gates)
	assert.Equal(t, 100.0, rep.Summary.SecurityScore)
	assert.Empty(t, exec.executed)
}

func TestRunStageSequentialOrder(t *testing.T) {
	gates := []types.Gate{
		testGate("first", types.StagePreBuild, true),
		testGate("second", types.StagePreBuild, true),
		testGate("other-stage", types.StagePreDeploy, true),
	}
	exec := &scriptedGates{}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	rep := o.RunStage(context.Background(), types.StagePreBuild, Options{})

	assert.Equal(t, []string{"first", "second"}, exec.executed)
	assert.Equal(t, types.GateStatusPassed, rep.Status)
	require.Len(t, rep.Gates, 2)
}

func TestRunStageBlockingFailureStops(t *testing.T) {
	gates := []types.Gate{
		testGate("first", types.StagePreBuild, true),
		testGate("second", types.StagePreBuild, true),
		testGate("third", types.StagePreBuild, false),
	}
	exec := &scriptedGates{results: map[string]types.GateResult{
		"first": {Status: types.GateStatusFailed, Checks: []types.CheckResult{}},
	}}
	notifier := &recordingNotifier{}
	o := testOrchestrator(t, gates, exec, notifier)

	rep := o.RunStage(context.Background(), types.StagePreBuild, Options{})

	assert.Equal(t, []string{"first"}, exec.executed)
	assert.Equal(t, types.GateStatusFailed, rep.Status)

	// Gates that never ran do not appear in the report.
	require.Len(t, rep.Gates, 1)
	assert.Equal(t, "first", rep.Gates[0].GateID)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "secgate: gate first failed at pre-build", notifier.messages[0].Subject)
}

func TestRunStageContinueOnFailure(t *testing.T) {
	gates := []types.Gate{
		testGate("first", types.StagePreBuild, true),
		testGate("second", types.StagePreBuild, true),
	}
	exec := &scriptedGates{results: map[string]types.GateResult{
		"first": {Status: types.GateStatusFailed, Checks: []types.CheckResult{}},
	}}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	rep := o.RunStage(context.Background(), types.StagePreBuild, Options{ContinueOnFailure: true})

	assert.Equal(t, []string{"first", "second"}, exec.executed)
	assert.Equal(t, types.GateStatusFailed, rep.Status)
	require.Len(t, rep.Gates, 2)
	assert.Equal(t, types.GateStatusPassed, rep.Gates[1].Status)
}

func TestRunStageNonBlockingFailureIsAdvisory(t *testing.T) {
	gates := []types.Gate{
		testGate("advisory", types.StagePostDeploy, false),
		testGate("next", types.StagePostDeploy, false),
	}
	exec := &scriptedGates{results: map[string]types.GateResult{
		"advisory": {Status: types.GateStatusFailed, Checks: []types.CheckResult{}},
	}}
	notifier := &recordingNotifier{}
	o := testOrchestrator(t, gates, exec, notifier)

	rep := o.RunStage(context.Background(), types.StagePostDeploy, Options{})

	// A non-blocking failure is advisory: the run continues and the overall
	// status stays untouched, though the failure is still reported.
	assert.Equal(t, []string{"advisory", "next"}, exec.executed)
	assert.Equal(t, types.GateStatusPassed, rep.Status)
	require.Len(t, rep.Gates, 2)
	assert.Equal(t, types.GateStatusFailed, rep.Gates[0].Status)
	require.Len(t, notifier.messages, 1)
}

// panickingGates blows up for one gate id and passes everything else.
type panickingGates struct {
	panicOn  string
	executed []string
}

func (p *panickingGates) Execute(g types.Gate, _ executor.Context, _ executor.Options) types.GateResult {
	p.executed = append(p.executed, g.ID)
	if g.ID == p.panicOn {
		panic("producer binary vanished")
	}
	return types.GateResult{
		GateID:   g.ID,
		Name:     g.Name,
		Status:   types.GateStatusPassed,
		Blocking: g.Blocking,
		Checks:   []types.CheckResult{},
	}
}

func TestRunStageGatePanicYieldsFailedResult(t *testing.T) {
	gates := []types.Gate{
		testGate("broken", types.StagePreBuild, false),
		testGate("healthy", types.StagePreBuild, true),
	}
	exec := &panickingGates{panicOn: "broken"}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	rep := o.RunStage(context.Background(), types.StagePreBuild, Options{})

	// The crash becomes a synthetic failed result and the stage still
	// produces a full report.
	assert.Equal(t, []string{"broken", "healthy"}, exec.executed)
	require.Len(t, rep.Gates, 2)
	assert.Equal(t, types.GateStatusFailed, rep.Gates[0].Status)
	assert.Contains(t, rep.Gates[0].Message, `gate "broken" execution failed`)
	assert.Contains(t, rep.Gates[0].Message, "producer binary vanished")
	assert.Equal(t, types.GateStatusPassed, rep.Gates[1].Status)
	assert.Equal(t, types.GateStatusPassed, rep.Status)
}

func TestRunStageBlockingGatePanicStopsStage(t *testing.T) {
	gates := []types.Gate{
		testGate("broken", types.StagePreBuild, true),
		testGate("never-runs", types.StagePreBuild, true),
	}
	exec := &panickingGates{panicOn: "broken"}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	rep := o.RunStage(context.Background(), types.StagePreBuild, Options{})

	assert.Equal(t, []string{"broken"}, exec.executed)
	assert.Equal(t, types.GateStatusFailed, rep.Status)
	require.Len(t, rep.Gates, 1)
}

func TestRunStageSkipNonBlocking(t *testing.T) {
	gates := []types.Gate{
		testGate("blocking", types.StagePreDeploy, true),
		testGate("advisory", types.StagePreDeploy, false),
	}
	exec := &scriptedGates{}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	o.RunStage(context.Background(), types.StagePreDeploy, Options{SkipNonBlocking: true})

	assert.Equal(t, []string{"blocking"}, exec.executed)
}

func TestRunStageSkipsDisabledGates(t *testing.T) {
	enabled := testGate("enabled", types.StagePreCommit, true)
	disabled := testGate("disabled", types.StagePreCommit, true)
	disabled.Enabled = false

	exec := &scriptedGates{}
	o := testOrchestrator(t, []types.Gate{disabled, enabled}, exec, &recordingNotifier{})

	o.RunStage(context.Background(), types.StagePreCommit, Options{})

	assert.Equal(t, []string{"enabled"}, exec.executed)
}

func TestRunStageNotificationFailureIsSwallowed(t *testing.T) {
	gates := []types.Gate{testGate("first", types.StagePreBuild, true)}
	exec := &scriptedGates{results: map[string]types.GateResult{
		"first": {Status: types.GateStatusFailed, Checks: []types.CheckResult{}},
	}}
	notifier := &recordingNotifier{err: fmt.Errorf("sink unavailable")}
	o := testOrchestrator(t, gates, exec, notifier)

	rep := o.RunStage(context.Background(), types.StagePreBuild, Options{})

	assert.Equal(t, types.GateStatusFailed, rep.Status)
	assert.Len(t, notifier.messages, 1)
}

func TestRunStagePassedRunSendsNoNotification(t *testing.T) {
	gates := []types.Gate{testGate("first", types.StagePreBuild, true)}
	exec := &scriptedGates{}
	notifier := &recordingNotifier{}
	o := testOrchestrator(t, gates, exec, notifier)

	o.RunStage(context.Background(), types.StagePreBuild, Options{})

	assert.Empty(t, notifier.messages)
}

func TestRunStageTargetOverride(t *testing.T) {
	gates := []types.Gate{testGate("first", types.StagePreCommit, true)}
	exec := &scriptedGates{}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	override := t.TempDir()
	o.RunStage(context.Background(), types.StagePreCommit, Options{Target: override})

	assert.Equal(t, override, exec.lastCtx.Target)
}

func TestGateConfigurationOperations(t *testing.T) {
	o := testOrchestrator(t, DefaultGates(), &scriptedGates{}, &recordingNotifier{})

	require.NoError(t, o.DisableGate("pre-commit-security"))
	require.NoError(t, o.EnableGate("pre-commit-security"))
	assert.Error(t, o.DisableGate("ghost"))

	extra := types.Gate{
		ID:      "extra",
		Name:    "Extra",
		Stage:   types.StagePostDeploy,
		Enabled: true,
		Checks:  []types.Check{{ID: "compliance", Type: types.CheckTypeCompliance, Enabled: true}},
	}
	require.NoError(t, o.ConfigureGate(extra))

	gates := o.GetConfiguredGates()
	assert.Equal(t, "extra", gates[len(gates)-1].ID)
}

func TestReloadConfigurationRequiresProjectPath(t *testing.T) {
	o := testOrchestrator(t, DefaultGates(), &scriptedGates{}, &recordingNotifier{})
	o.cfg.Secgate.ProjectPath = ""

	err := o.ReloadConfiguration("gates.yml")
	assert.ErrorContains(t, err, "project path")
}

func TestRunStageDryRunPropagates(t *testing.T) {
	gates := []types.Gate{testGate("first", types.StagePreCommit, true)}
	exec := &scriptedGates{}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	o.RunStage(context.Background(), types.StagePreCommit, Options{DryRun: true})

	assert.True(t, exec.lastOpts.DryRun)
}

func TestEscalate(t *testing.T) {
	blocking := func(status types.GateStatus) types.GateResult {
		return types.GateResult{Status: status, Blocking: true}
	}
	advisory := func(status types.GateStatus) types.GateResult {
		return types.GateResult{Status: status, Blocking: false}
	}

	tests := []struct {
		name    string
		overall types.GateStatus
		result  types.GateResult
		want    types.GateStatus
	}{
		{"passed stays passed", types.GateStatusPassed, blocking(types.GateStatusPassed), types.GateStatusPassed},
		{"blocking failure fails", types.GateStatusPassed, blocking(types.GateStatusFailed), types.GateStatusFailed},
		{"advisory failure leaves overall", types.GateStatusPassed, advisory(types.GateStatusFailed), types.GateStatusPassed},
		{"advisory failure leaves warning", types.GateStatusWarning, advisory(types.GateStatusFailed), types.GateStatusWarning},
		{"warning escalates passed", types.GateStatusPassed, blocking(types.GateStatusWarning), types.GateStatusWarning},
		{"failed is terminal", types.GateStatusFailed, blocking(types.GateStatusPassed), types.GateStatusFailed},
		{"warning does not downgrade failed", types.GateStatusFailed, blocking(types.GateStatusWarning), types.GateStatusFailed},
		{"skipped leaves overall", types.GateStatusWarning, blocking(types.GateStatusSkipped), types.GateStatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escalate(tt.overall, tt.result))
		})
	}
}

func TestRunFullStopsAfterFailedStage(t *testing.T) {
	gates := []types.Gate{
		testGate("commit-gate", types.StagePreCommit, true),
		testGate("build-gate", types.StagePreBuild, true),
		testGate("deploy-gate", types.StagePreDeploy, true),
	}
	exec := &scriptedGates{results: map[string]types.GateResult{
		"build-gate": {Status: types.GateStatusFailed, Checks: []types.CheckResult{}},
	}}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	reports := o.RunFull(context.Background(), Options{})

	require.Len(t, reports, 2)
	assert.Equal(t, types.StagePreCommit, reports[0].Stage)
	assert.Equal(t, types.GateStatusPassed, reports[0].Status)
	assert.Equal(t, types.StagePreBuild, reports[1].Stage)
	assert.Equal(t, types.GateStatusFailed, reports[1].Status)
	assert.NotContains(t, exec.executed, "deploy-gate")
}

func TestRunFullAllStagesPass(t *testing.T) {
	gates := []types.Gate{
		testGate("commit-gate", types.StagePreCommit, true),
		testGate("build-gate", types.StagePreBuild, true),
		testGate("deploy-gate", types.StagePreDeploy, true),
	}
	exec := &scriptedGates{}
	o := testOrchestrator(t, gates, exec, &recordingNotifier{})

	reports := o.RunFull(context.Background(), Options{})

	require.Len(t, reports, 3)
	for _, rep := range reports {
		assert.Equal(t, types.GateStatusPassed, rep.Status)
	}
}
