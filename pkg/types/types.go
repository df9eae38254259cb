// Package types provides the shared domain model used across secgate:
// findings, check and gate configuration, execution results and reports.
package types

import (
	"fmt"
	"time"
)

// CheckType identifies the kind of detection work a check performs.
type CheckType string

const (
	CheckTypeScan          CheckType = "scan"
	CheckTypeReview        CheckType = "review"
	CheckTypeDependency    CheckType = "dependency"
	CheckTypeConfiguration CheckType = "configuration"
	CheckTypeSecrets       CheckType = "secrets"
	CheckTypeCompliance    CheckType = "compliance"
)

// Stage is a delivery-pipeline phase to which gates are scoped.
type Stage string

const (
	StagePreCommit  Stage = "pre-commit"
	StagePreBuild   Stage = "pre-build"
	StagePreDeploy  Stage = "pre-deploy"
	StagePostDeploy Stage = "post-deploy"
)

// Stages lists all pipeline stages in delivery order.
func Stages() []Stage {
	return []Stage{StagePreCommit, StagePreBuild, StagePreDeploy, StagePostDeploy}
}

// ParseStage validates a raw stage name.
func ParseStage(raw string) (Stage, error) {
	for _, s := range Stages() {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", raw)
}

// Finding represents a single detected issue. A Finding is immutable and
// owned by the CheckResult that produced it.
type Finding struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"` // 1-based
	Snippet     string   `json:"snippet,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	RuleID      string   `json:"rule_id,omitempty"` // taxonomy id, e.g. a CWE
}

// Check is the declarative, stateless configuration of one unit of detection
// work within a gate.
type Check struct {
	ID      string            `json:"id" yaml:"id"`
	Name    string            `json:"name" yaml:"name"`
	Type    CheckType         `json:"type" yaml:"type"`
	Enabled bool              `json:"enabled" yaml:"enabled"`
	Timeout time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Retries int               `json:"retries,omitempty" yaml:"retries,omitempty"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Thresholds define the pass/fail policy of a gate.
type Thresholds struct {
	MaxCritical      int     `json:"max_critical" yaml:"max_critical"`
	MaxHigh          int     `json:"max_high" yaml:"max_high"`
	MaxMedium        int     `json:"max_medium" yaml:"max_medium"`
	MinSecurityScore float64 `json:"min_security_score" yaml:"min_security_score"`
}

// Gate is a named, stage-scoped policy unit containing an ordered set of
// checks and pass/fail thresholds.
type Gate struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Stage      Stage      `json:"stage" yaml:"stage"`
	Enabled    bool       `json:"enabled" yaml:"enabled"`
	Blocking   bool       `json:"blocking" yaml:"blocking"`
	Checks     []Check    `json:"checks" yaml:"checks"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
	Exceptions []string   `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
}

// CheckStatus is the outcome of a single check execution.
type CheckStatus string

const (
	CheckStatusPassed  CheckStatus = "passed"
	CheckStatusWarning CheckStatus = "warning"
	CheckStatusFailed  CheckStatus = "failed"
	CheckStatusError   CheckStatus = "error"
)

// GateStatus is the outcome of a gate evaluation.
type GateStatus string

const (
	GateStatusPassed  GateStatus = "passed"
	GateStatusWarning GateStatus = "warning"
	GateStatusFailed  GateStatus = "failed"
	GateStatusSkipped GateStatus = "skipped"
)

// CheckResult is created once per check execution and never mutated
// afterward.
type CheckResult struct {
	CheckID  string        `json:"check_id"`
	Name     string        `json:"name"`
	Status   CheckStatus   `json:"status"`
	Duration time.Duration `json:"duration"`
	Findings []Finding     `json:"findings"`
	Details  string        `json:"details,omitempty"`
	Score    float64       `json:"score"` // 0-100
}

// CountBySeverity returns the number of findings with the given severity.
func (r CheckResult) CountBySeverity(sev Severity) int {
	count := 0
	for _, f := range r.Findings {
		if f.Severity == sev {
			count++
		}
	}
	return count
}

// GateResult is deterministically derived from the CheckResults and the
// gate's thresholds.
type GateResult struct {
	GateID   string        `json:"gate_id"`
	Name     string        `json:"name"`
	Status   GateStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Checks   []CheckResult `json:"checks"`
	Blocking bool          `json:"blocking"`
	Message  string        `json:"message,omitempty"`
}

// CountBySeverity returns the number of findings with the given severity
// across all checks of the gate.
func (r GateResult) CountBySeverity(sev Severity) int {
	count := 0
	for _, check := range r.Checks {
		count += check.CountBySeverity(sev)
	}
	return count
}

// Summary aggregates finding counts and health of one pipeline run.
type Summary struct {
	TotalIssues    int     `json:"total_issues"`
	CriticalIssues int     `json:"critical_issues"`
	HighIssues     int     `json:"high_issues"`
	MediumIssues   int     `json:"medium_issues"`
	LowIssues      int     `json:"low_issues"`
	SecurityScore  float64 `json:"security_score"`
	Compliance     bool    `json:"compliance"`
}

// Artifact is a named reference attached to a report, e.g. an export file
// or repository metadata.
type Artifact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Report is the persisted result of one stage run. Immutable once created;
// appended to an ordered report history.
type Report struct {
	ReportID        string        `json:"report_id"`
	Timestamp       time.Time     `json:"timestamp"`
	Stage           Stage         `json:"stage"`
	Status          GateStatus    `json:"status"`
	Duration        time.Duration `json:"duration"`
	Gates           []GateResult  `json:"gates"`
	Summary         Summary       `json:"summary"`
	Recommendations []string      `json:"recommendations,omitempty"`
	Artifacts       []Artifact    `json:"artifacts,omitempty"`
}
