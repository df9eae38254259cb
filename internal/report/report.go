// Package report converts gate results into persisted reports, recomputes
// historical statistics over the stored history and exports reports in
// multiple formats.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/secgate-io/secgate/internal/gate"
	"github.com/secgate-io/secgate/pkg/types"
)

// Generator assembles reports and appends them to the history repository.
type Generator struct {
	repo   Repository
	logger hclog.Logger
}

// NewGenerator creates a Generator over the given history repository.
func NewGenerator(repo Repository, logger hclog.Logger) *Generator {
	return &Generator{repo: repo, logger: logger}
}

// Generate builds an immutable report for one stage run and appends it to
// the history.
func (g *Generator) Generate(stage types.Stage, status types.GateStatus, duration time.Duration, gates []types.GateResult, artifacts []types.Artifact) types.Report {
	rep := types.Report{
		ReportID:        uuid.NewString(),
		Timestamp:       time.Now().UTC(),
		Stage:           stage,
		Status:          status,
		Duration:        duration,
		Gates:           gates,
		Summary:         summarize(status, gates),
		Recommendations: recommend(status, gates),
		Artifacts:       artifacts,
	}

	if err := g.repo.Append(rep); err != nil {
		g.logger.Error("failed to persist report", "report", rep.ReportID, "error", err)
	}

	return rep
}

// summarize flattens all findings from all checks of all gates into
// per-severity counts; each finding is counted exactly once.
func summarize(status types.GateStatus, gates []types.GateResult) types.Summary {
	summary := types.Summary{Compliance: status == types.GateStatusPassed}

	var allChecks []types.CheckResult
	for _, gateResult := range gates {
		for _, check := range gateResult.Checks {
			allChecks = append(allChecks, check)
			for _, f := range check.Findings {
				summary.TotalIssues++
				switch f.Severity {
				case types.SeverityCritical:
					summary.CriticalIssues++
				case types.SeverityHigh:
					summary.HighIssues++
				case types.SeverityMedium:
					summary.MediumIssues++
				case types.SeverityLow:
					summary.LowIssues++
				}
			}
		}
	}

	summary.SecurityScore = gate.AverageScore(allChecks)
	return summary
}

// recommend derives deterministic, order-preserving, de-duplicated
// recommendations from the run.
func recommend(status types.GateStatus, gates []types.GateResult) []string {
	summary := summarize(status, gates)

	var recommendations []string
	seen := make(map[string]bool)
	add := func(r string) {
		if !seen[r] {
			seen[r] = true
			recommendations = append(recommendations, r)
		}
	}

	if summary.CriticalIssues > 0 {
		add("Address critical security findings immediately")
	}
	if summary.SecurityScore < 80 {
		add("Improve overall security posture")
	}
	for _, gateResult := range gates {
		if gateResult.Status == types.GateStatusFailed {
			add(fmt.Sprintf("Review and remediate failed gate: %s", gateResult.Name))
		}
	}

	return recommendations
}
