// Package executor runs one configured check, delegates to the right
// producer, normalizes results and isolates producer failures.
package executor

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/secgate-io/secgate/internal/producers"
	"github.com/secgate-io/secgate/internal/review"
	"github.com/secgate-io/secgate/internal/scanner"
	"github.com/secgate-io/secgate/pkg/shared/errors"
	"github.com/secgate-io/secgate/pkg/types"
)

// CodeScanner is the pattern-based finding producer contract.
type CodeScanner interface {
	Scan(target string) (*scanner.Result, error)
}

// CodeReviewer is the code-review producer contract.
type CodeReviewer interface {
	Review(target string, opts review.Options) (*review.Result, error)
}

// Context carries the run-scoped inputs of a check execution.
type Context struct {
	Target      string
	Environment string
}

// Options tune one execution.
type Options struct {
	DryRun bool
}

// Severity deductions applied when deriving a check score from findings.
const (
	deductionCritical = 25
	deductionHigh     = 10
	deductionMedium   = 5
	deductionLow      = 2
)

// degradedScoreCeiling caps the score of a check whose producer failed.
const degradedScoreCeiling = 90

// Executor executes configured checks against their producers.
type Executor struct {
	scanner   CodeScanner
	reviewer  CodeReviewer
	producers producers.Set
	logger    hclog.Logger

	// lastScores remembers the most recent legitimate score per check so a
	// producer failure can degrade relative to it.
	lastScores map[string]float64
}

// New creates an Executor over the given producers.
func New(codeScanner CodeScanner, codeReviewer CodeReviewer, set producers.Set, logger hclog.Logger) *Executor {
	return &Executor{
		scanner:    codeScanner,
		reviewer:   codeReviewer,
		producers:  set,
		logger:     logger,
		lastScores: make(map[string]float64),
	}
}

// Execute runs one check and always returns a well-formed CheckResult. A
// collaborator failure is absorbed into a warning result; only legitimate
// severity data drives pass/fail.
func (e *Executor) Execute(check types.Check, ctx Context, opts Options) types.CheckResult {
	if opts.DryRun {
		return types.CheckResult{
			CheckID:  check.ID,
			Name:     check.Name,
			Status:   types.CheckStatusPassed,
			Findings: []types.Finding{},
			Details:  "dry run",
			Score:    100,
		}
	}

	start := time.Now()
	findings, details, err := e.produceWithRetry(check, ctx)
	duration := time.Since(start)

	if err != nil {
		e.logger.Warn("producer failure absorbed", "check", check.ID, "error", err)
		return types.CheckResult{
			CheckID:  check.ID,
			Name:     check.Name,
			Status:   types.CheckStatusWarning,
			Duration: duration,
			Findings: []types.Finding{},
			Details:  err.Error(),
			Score:    e.degradedScore(check.ID),
		}
	}

	if findings == nil {
		findings = []types.Finding{}
	}

	score := scoreFromFindings(findings)
	e.lastScores[check.ID] = score

	return types.CheckResult{
		CheckID:  check.ID,
		Name:     check.Name,
		Status:   statusFromFindings(findings),
		Duration: duration,
		Findings: findings,
		Details:  details,
		Score:    score,
	}
}

// produceWithRetry re-attempts the producer call up to retries+1 times,
// racing each attempt against the configured timeout.
func (e *Executor) produceWithRetry(check types.Check, ctx Context) ([]types.Finding, string, error) {
	attempts := check.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		findings, details, err := e.produceWithTimeout(check, ctx)
		if err == nil {
			return findings, details, nil
		}
		lastErr = err
		if attempt < attempts {
			e.logger.Debug("retrying check after producer failure", "check", check.ID, "attempt", attempt, "error", err)
		}
	}
	return nil, "", lastErr
}

type produceOutcome struct {
	findings []types.Finding
	details  string
	err      error
}

// produceWithTimeout races a single producer call against the check's
// timeout. A timed-out producer yields a distinct timeout error, never a
// silent pass.
func (e *Executor) produceWithTimeout(check types.Check, ctx Context) ([]types.Finding, string, error) {
	if check.Timeout <= 0 {
		return e.produce(check, ctx)
	}

	resultCh := make(chan produceOutcome, 1)
	go func() {
		findings, details, err := e.produce(check, ctx)
		resultCh <- produceOutcome{findings: findings, details: details, err: err}
	}()

	select {
	case outcome := <-resultCh:
		return outcome.findings, outcome.details, outcome.err
	case <-time.After(check.Timeout):
		return nil, "", errors.NewProducerTimeout(check.ID, check.Timeout)
	}
}

// produce dispatches to the producer matching the check type. A panicking
// collaborator is recovered into a ProducerError.
func (e *Executor) produce(check types.Check, ctx Context) (findings []types.Finding, details string, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings, details = nil, ""
			err = errors.NewProducerError(check.ID, fmt.Errorf("panic: %v", r))
		}
	}()

	switch check.Type {
	case types.CheckTypeScan:
		if e.scanner == nil {
			return []types.Finding{}, "", nil
		}
		result, scanErr := e.scanner.Scan(ctx.Target)
		if scanErr != nil {
			return nil, "", errors.NewProducerError(check.ID, scanErr)
		}
		if result == nil {
			return []types.Finding{}, "", nil
		}
		return result.Findings, fmt.Sprintf("scanned %d files", result.ScannedFiles), nil

	case types.CheckTypeReview:
		if e.reviewer == nil {
			return []types.Finding{}, "", nil
		}
		result, reviewErr := e.reviewer.Review(ctx.Target, review.Options{})
		if reviewErr != nil {
			return nil, "", errors.NewProducerError(check.ID, reviewErr)
		}
		if result == nil {
			return []types.Finding{}, "", nil
		}
		return result.Findings, fmt.Sprintf("reviewed %d files", result.ReviewedFiles), nil

	case types.CheckTypeDependency:
		return e.audit(check, func() (*producers.AuditResult, error) {
			if e.producers.Dependency == nil {
				return nil, nil
			}
			return e.producers.Dependency.Audit(ctx.Target, check.Params)
		})

	case types.CheckTypeSecrets:
		return e.audit(check, func() (*producers.AuditResult, error) {
			if e.producers.Secrets == nil {
				return nil, nil
			}
			return e.producers.Secrets.ScanSecrets(ctx.Target, check.Params)
		})

	case types.CheckTypeConfiguration:
		return e.audit(check, func() (*producers.AuditResult, error) {
			if e.producers.Config == nil {
				return nil, nil
			}
			return e.producers.Config.AuditConfig(ctx.Target, check.Params)
		})

	case types.CheckTypeCompliance:
		return e.audit(check, func() (*producers.AuditResult, error) {
			if e.producers.Compliance == nil {
				return nil, nil
			}
			return e.producers.Compliance.ValidateCompliance(ctx.Environment, check.Params)
		})

	default:
		return nil, "", errors.NewProducerError(check.ID, fmt.Errorf("unknown check type %q", check.Type))
	}
}

// audit normalizes an external producer call: a missing or malformed
// response is treated as zero findings, never a crash.
func (e *Executor) audit(check types.Check, call func() (*producers.AuditResult, error)) ([]types.Finding, string, error) {
	result, err := call()
	if err != nil {
		return nil, "", errors.NewProducerError(check.ID, err)
	}
	if result == nil {
		return []types.Finding{}, "", nil
	}
	if result.Findings == nil {
		return []types.Finding{}, result.Details, nil
	}
	return result.Findings, result.Details, nil
}

// degradedScore computes the warning score after a producer failure:
// min(last known score, 90).
func (e *Executor) degradedScore(checkID string) float64 {
	last, ok := e.lastScores[checkID]
	if !ok || last > degradedScoreCeiling {
		return degradedScoreCeiling
	}
	return last
}

// statusFromFindings derives the check status purely from severity counts.
// A critical or high finding can never yield a passed status.
func statusFromFindings(findings []types.Finding) types.CheckStatus {
	var criticals, highs int
	for _, f := range findings {
		switch f.Severity {
		case types.SeverityCritical:
			criticals++
		case types.SeverityHigh:
			highs++
		}
	}
	switch {
	case criticals > 0:
		return types.CheckStatusFailed
	case highs > 0:
		return types.CheckStatusWarning
	default:
		return types.CheckStatusPassed
	}
}

// scoreFromFindings maps the severity distribution to a 0-100 score.
func scoreFromFindings(findings []types.Finding) float64 {
	score := 100.0
	for _, f := range findings {
		switch f.Severity {
		case types.SeverityCritical:
			score -= deductionCritical
		case types.SeverityHigh:
			score -= deductionHigh
		case types.SeverityMedium:
			score -= deductionMedium
		case types.SeverityLow:
			score -= deductionLow
		}
	}
	if score < 0 {
		return 0
	}
	return score
}
