// Package pipeline orchestrates stage runs: it selects the configured gates
// of a stage, executes them sequentially, escalates the overall status and
// produces the persisted report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/secgate-io/secgate/internal/executor"
	"github.com/secgate-io/secgate/internal/git"
	"github.com/secgate-io/secgate/internal/notify"
	"github.com/secgate-io/secgate/pkg/shared/config"
	"github.com/secgate-io/secgate/pkg/shared/errors"
	"github.com/secgate-io/secgate/pkg/types"
)

// GateExecutor runs one gate. The production implementation is the gate
// executor; tests substitute a double.
type GateExecutor interface {
	Execute(g types.Gate, ctx executor.Context, opts executor.Options) types.GateResult
}

// ReportGenerator builds and persists the report of one stage run.
type ReportGenerator interface {
	Generate(stage types.Stage, status types.GateStatus, duration time.Duration, gates []types.GateResult, artifacts []types.Artifact) types.Report
}

// Options control one pipeline run.
type Options struct {
	// Target overrides the configured project path for this run.
	Target string
	// DryRun validates the configuration and reports what would run without
	// executing any check.
	DryRun bool
	// ContinueOnFailure keeps executing gates after a blocking gate failed.
	ContinueOnFailure bool
	// SkipNonBlocking restricts the run to blocking gates.
	SkipNonBlocking bool
}

// Orchestrator drives stage runs over the configured gate set.
type Orchestrator struct {
	cfg      *config.Config
	store    *Store
	gates    GateExecutor
	reports  ReportGenerator
	notifier notify.Notifier
	logger   hclog.Logger
}

// New creates an orchestrator.
func New(cfg *config.Config, store *Store, gates GateExecutor, reports ReportGenerator, notifier notify.Notifier, logger hclog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		gates:    gates,
		reports:  reports,
		notifier: notifier,
		logger:   logger,
	}
}

// fullRunStages are the stages RunFull walks through, in delivery order.
// Post-deploy verification runs on demand, not as part of a full run.
var fullRunStages = []types.Stage{types.StagePreCommit, types.StagePreBuild, types.StagePreDeploy}

// RunStage executes all enabled gates of one stage sequentially and persists
// a report. A stage with no matching gates yields a passed report.
func (o *Orchestrator) RunStage(ctx context.Context, stage types.Stage, opts Options) types.Report {
	start := time.Now()
	o.logger.Info("running stage", "stage", stage, "dry_run", opts.DryRun)

	gates := o.store.GatesForStage(stage)
	if opts.SkipNonBlocking {
		gates = filterBlocking(gates)
	}

	target := o.targetPath(opts)
	execCtx := executor.Context{
		Target:      target,
		Environment: o.cfg.Secgate.Environment,
	}
	execOpts := executor.Options{DryRun: opts.DryRun}

	overall := types.GateStatusPassed
	results := make([]types.GateResult, 0, len(gates))

	for _, g := range gates {
		result := o.runGate(g, execCtx, execOpts)
		results = append(results, result)
		overall = escalate(overall, result)

		if result.Status == types.GateStatusFailed {
			o.notifyGateFailure(ctx, stage, result)
		}

		if result.Status == types.GateStatusFailed && g.Blocking && !opts.ContinueOnFailure {
			// Unexecuted gates are left out of the report entirely.
			o.logger.Warn("blocking gate failed, stopping stage", "gate", g.ID, "stage", stage)
			break
		}
	}

	rep := o.reports.Generate(stage, overall, time.Since(start), results, o.collectArtifacts(target))

	o.logger.Info("stage finished", "stage", stage, "status", overall, "gates", len(results))
	return rep
}

func (o *Orchestrator) targetPath(opts Options) string {
	if opts.Target != "" {
		return opts.Target
	}
	return o.cfg.Secgate.ProjectPath
}

// RunFull walks the delivery stages in order, stopping at the first failed
// stage. It returns one report per executed stage.
func (o *Orchestrator) RunFull(ctx context.Context, opts Options) []types.Report {
	var reports []types.Report
	for _, stage := range fullRunStages {
		rep := o.RunStage(ctx, stage, opts)
		reports = append(reports, rep)
		if rep.Status == types.GateStatusFailed {
			o.logger.Warn("stopping full run after failed stage", "stage", stage)
			break
		}
	}
	return reports
}

// runGate executes one gate, absorbing a panicking executor into a synthetic
// failed result so the stage can still produce a report.
func (o *Orchestrator) runGate(g types.Gate, execCtx executor.Context, execOpts executor.Options) (result types.GateResult) {
	defer func() {
		if rec := recover(); rec != nil {
			execErr := &errors.GateExecutionError{GateID: g.ID, Err: fmt.Errorf("%v", rec)}
			o.logger.Error("gate execution panicked", "gate", g.ID, "error", execErr)
			result = types.GateResult{
				GateID:   g.ID,
				Name:     g.Name,
				Status:   types.GateStatusFailed,
				Blocking: g.Blocking,
				Checks:   []types.CheckResult{},
				Message:  execErr.Error(),
			}
		}
	}()
	return o.gates.Execute(g, execCtx, execOpts)
}

// escalate folds one gate outcome into the overall run status. A failed
// blocking gate fails the run; a warning degrades a passing run. A failed
// non-blocking gate is advisory and leaves the overall status alone.
func escalate(overall types.GateStatus, result types.GateResult) types.GateStatus {
	if overall == types.GateStatusFailed {
		return overall
	}
	switch result.Status {
	case types.GateStatusFailed:
		if result.Blocking {
			return types.GateStatusFailed
		}
	case types.GateStatusWarning:
		if overall == types.GateStatusPassed {
			return types.GateStatusWarning
		}
	}
	return overall
}

func filterBlocking(gates []types.Gate) []types.Gate {
	var out []types.Gate
	for _, g := range gates {
		if g.Blocking {
			out = append(out, g)
		}
	}
	return out
}

// collectArtifacts attaches best-effort repository metadata to the report.
func (o *Orchestrator) collectArtifacts(target string) []types.Artifact {
	md := git.CollectMetadata(target)

	var artifacts []types.Artifact
	if md.Branch != "" {
		artifacts = append(artifacts, types.Artifact{Name: "git.branch", Value: md.Branch})
	}
	if md.CommitHash != "" {
		artifacts = append(artifacts, types.Artifact{Name: "git.commit", Value: md.CommitHash})
	}
	if md.RemoteURL != "" {
		artifacts = append(artifacts, types.Artifact{Name: "git.remote", Value: md.RemoteURL})
	}
	return artifacts
}

// notifyGateFailure delivers a fire-and-forget notification about one failed
// gate. Delivery failures are logged and swallowed.
func (o *Orchestrator) notifyGateFailure(ctx context.Context, stage types.Stage, result types.GateResult) {
	if o.notifier == nil {
		return
	}

	msg := notify.Message{
		Subject: fmt.Sprintf("secgate: gate %s failed at %s", result.GateID, stage),
		Body: fmt.Sprintf("Gate %q failed at stage %s: %s (%d critical findings)",
			result.Name, stage, result.Message, result.CountBySeverity(types.SeverityCritical)),
	}
	if err := o.notifier.Notify(ctx, msg); err != nil {
		o.logger.Warn("failed to deliver notification", "subject", msg.Subject, "error", err)
	}
}

// ConfigureGate adds or replaces a gate definition.
func (o *Orchestrator) ConfigureGate(g types.Gate) error {
	return o.store.Configure(g)
}

// EnableGate enables a gate by id.
func (o *Orchestrator) EnableGate(id string) error {
	return o.store.SetEnabled(id, true)
}

// DisableGate disables a gate by id without removing its definition.
func (o *Orchestrator) DisableGate(id string) error {
	return o.store.SetEnabled(id, false)
}

// GetConfiguredGates returns all configured gates in declaration order.
func (o *Orchestrator) GetConfiguredGates() []types.Gate {
	return o.store.Gates()
}

// ReloadConfiguration re-reads the gates file, keeping each surviving
// gate's current enabled toggle. The project path must still be valid.
func (o *Orchestrator) ReloadConfiguration(path string) error {
	if o.cfg.Secgate.ProjectPath == "" {
		return errors.NewConfigurationError("secgate.project_path", "project path must be configured")
	}
	return o.store.Reload(path)
}
