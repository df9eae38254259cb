// Package gate evaluates one gate: it runs the gate's checks in declaration
// order and derives a deterministic pass/warn/fail status from the severity
// distribution and the gate's thresholds.
package gate

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/secgate-io/secgate/internal/executor"
	"github.com/secgate-io/secgate/pkg/types"
)

// CheckRunner executes one configured check. The production implementation
// is the check executor; tests substitute a double.
type CheckRunner interface {
	Execute(check types.Check, ctx executor.Context, opts executor.Options) types.CheckResult
}

// Executor runs gates.
type Executor struct {
	runner CheckRunner
	logger hclog.Logger
}

// New creates a gate executor over the given check runner.
func New(runner CheckRunner, logger hclog.Logger) *Executor {
	return &Executor{runner: runner, logger: logger}
}

// Execute runs the gate's enabled checks in declaration order and evaluates
// the aggregate against the gate's thresholds.
func (e *Executor) Execute(g types.Gate, ctx executor.Context, opts executor.Options) types.GateResult {
	start := time.Now()

	result := types.GateResult{
		GateID:   g.ID,
		Name:     g.Name,
		Blocking: g.Blocking,
		Checks:   []types.CheckResult{},
	}

	for _, check := range g.Checks {
		if !check.Enabled {
			continue
		}
		result.Checks = append(result.Checks, e.runCheck(check, ctx, opts))
	}

	result.Status, result.Message = evaluate(result.Checks, g.Thresholds)
	result.Duration = time.Since(start)

	e.logger.Info("gate evaluated", "gate", g.ID, "status", result.Status, "checks", len(result.Checks))
	return result
}

// runCheck shields the gate from a check execution that throws: the failure
// is captured as a synthetic error result with zero contribution.
func (e *Executor) runCheck(check types.Check, ctx executor.Context, opts executor.Options) (result types.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("check execution failed", "check", check.ID, "panic", r)
			result = types.CheckResult{
				CheckID:  check.ID,
				Name:     check.Name,
				Status:   types.CheckStatusError,
				Findings: []types.Finding{},
				Details:  fmt.Sprintf("check execution failed: %v", r),
			}
		}
	}()
	return e.runner.Execute(check, ctx, opts)
}

// evaluate derives the gate status in a deterministic, first-match-wins
// order and names the breached threshold for audit traceability.
func evaluate(checks []types.CheckResult, thresholds types.Thresholds) (types.GateStatus, string) {
	var criticals, highs, mediums int
	for _, check := range checks {
		criticals += check.CountBySeverity(types.SeverityCritical)
		highs += check.CountBySeverity(types.SeverityHigh)
		mediums += check.CountBySeverity(types.SeverityMedium)
	}

	avgScore := AverageScore(checks)

	switch {
	case criticals > thresholds.MaxCritical:
		return types.GateStatusFailed,
			fmt.Sprintf("Critical findings (%d) exceed threshold (%d)", criticals, thresholds.MaxCritical)
	case highs > thresholds.MaxHigh:
		return types.GateStatusFailed,
			fmt.Sprintf("High findings (%d) exceed threshold (%d)", highs, thresholds.MaxHigh)
	case avgScore < thresholds.MinSecurityScore:
		return types.GateStatusFailed,
			fmt.Sprintf("Average security score (%.1f) is below threshold (%.1f)", avgScore, thresholds.MinSecurityScore)
	case mediums > thresholds.MaxMedium:
		return types.GateStatusWarning,
			fmt.Sprintf("Medium findings (%d) exceed threshold (%d)", mediums, thresholds.MaxMedium)
	default:
		return types.GateStatusPassed, "All thresholds satisfied"
	}
}

// AverageScore computes the mean score over non-error checks. Error results
// are excluded from the denominator so a broken integration never moves the
// aggregate; with no scorable checks the gate is healthy by definition (100).
func AverageScore(checks []types.CheckResult) float64 {
	var sum float64
	var count int
	for _, check := range checks {
		if check.Status == types.CheckStatusError {
			continue
		}
		sum += check.Score
		count++
	}
	if count == 0 {
		return 100
	}
	return sum / float64(count)
}
