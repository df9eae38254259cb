// Package producers defines the collaborator interfaces for check types
// whose real integrations live outside this process (dependency auditing,
// secret scanning, configuration auditing, compliance validation), along
// with built-in no-op implementations and a plugin-backed resolver.
package producers

import (
	"github.com/secgate-io/secgate/pkg/types"
)

// AuditResult is the single canonical shape every external producer returns.
type AuditResult struct {
	Findings []types.Finding `json:"findings"`
	Details  string          `json:"details,omitempty"`
}

// Empty returns the zero-finding result used when a collaborator is absent.
func Empty() *AuditResult {
	return &AuditResult{Findings: []types.Finding{}}
}

// DependencyAuditor checks third-party dependencies for known
// vulnerabilities.
type DependencyAuditor interface {
	Audit(target string, params map[string]string) (*AuditResult, error)
}

// SecretsScanner performs dedicated secret detection beyond the built-in
// pattern rules.
type SecretsScanner interface {
	ScanSecrets(target string, params map[string]string) (*AuditResult, error)
}

// ConfigAuditor inspects configuration artifacts for insecure settings.
type ConfigAuditor interface {
	AuditConfig(target string, params map[string]string) (*AuditResult, error)
}

// ComplianceValidator validates an environment against a compliance
// baseline.
type ComplianceValidator interface {
	ValidateCompliance(environment string, params map[string]string) (*AuditResult, error)
}

// Set bundles one producer per external check type. Nil members degrade to
// zero findings at the executor boundary.
type Set struct {
	Dependency DependencyAuditor
	Secrets    SecretsScanner
	Config     ConfigAuditor
	Compliance ComplianceValidator
}

// NoopSet returns a Set whose members all yield empty results. It is the
// default when no plugins are configured.
func NoopSet() Set {
	noop := noopProducer{}
	return Set{
		Dependency: noop,
		Secrets:    noop,
		Config:     noop,
		Compliance: noop,
	}
}

type noopProducer struct{}

func (noopProducer) Audit(string, map[string]string) (*AuditResult, error) {
	return Empty(), nil
}

func (noopProducer) ScanSecrets(string, map[string]string) (*AuditResult, error) {
	return Empty(), nil
}

func (noopProducer) AuditConfig(string, map[string]string) (*AuditResult, error) {
	return Empty(), nil
}

func (noopProducer) ValidateCompliance(string, map[string]string) (*AuditResult, error) {
	return Empty(), nil
}
