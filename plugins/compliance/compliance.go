package main

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/secgate-io/secgate/pkg/shared"
	"github.com/secgate-io/secgate/pkg/types"
)

// Metadata of the plugin
var (
	Version       = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// ValidatorCompliance checks a project for the governance artifacts an
// auditable delivery pipeline expects.
type ValidatorCompliance struct {
	logger hclog.Logger
}

func newValidatorCompliance(logger hclog.Logger) *ValidatorCompliance {
	return &ValidatorCompliance{logger: logger}
}

// governanceFile is one required (or recommended) project artifact.
type governanceFile struct {
	names       []string
	severity    types.Severity
	description string
	remediation string
}

var governanceFiles = []governanceFile{
	{
		names:       []string{"LICENSE", "LICENSE.md", "LICENSE.txt"},
		severity:    types.SeverityMedium,
		description: "Project has no license file",
		remediation: "Add a LICENSE file stating the usage terms",
	},
	{
		names:       []string{"SECURITY.md", "SECURITY"},
		severity:    types.SeverityMedium,
		description: "Project has no security policy",
		remediation: "Add a SECURITY.md describing how to report vulnerabilities",
	},
	{
		names:       []string{".gitignore"},
		severity:    types.SeverityLow,
		description: "Project has no .gitignore",
		remediation: "Add a .gitignore so build output and secrets stay out of version control",
	},
	{
		names:       []string{"CODEOWNERS", ".github/CODEOWNERS", "docs/CODEOWNERS"},
		severity:    types.SeverityLow,
		description: "Project has no CODEOWNERS file",
		remediation: "Add a CODEOWNERS file so changes get mandatory review",
	},
}

// Scan validates the governance posture of the target. Production
// environments additionally must not carry local .env files.
func (v *ValidatorCompliance) Scan(args shared.ProducerScanRequest) (shared.ProducerScanResponse, error) {
	var resp shared.ProducerScanResponse
	v.logger.Info("compliance validation starting", "target", args.TargetPath, "environment", args.Environment)

	if args.TargetPath == "" {
		return resp, fmt.Errorf("target path must be specified")
	}
	if info, err := os.Stat(args.TargetPath); err != nil {
		return resp, fmt.Errorf("target path is not accessible: %w", err)
	} else if !info.IsDir() {
		return resp, fmt.Errorf("target path %q is not a directory", args.TargetPath)
	}

	for _, gf := range governanceFiles {
		if !anyExists(args.TargetPath, gf.names) {
			resp.Findings = append(resp.Findings, complianceFinding(gf.severity, gf.names[0], gf.description, gf.remediation))
		}
	}

	if strings.EqualFold(args.Environment, "production") {
		resp.Findings = append(resp.Findings, v.checkEnvFiles(args.TargetPath)...)
	}

	resp.Details = fmt.Sprintf("validated %d governance requirements", len(governanceFiles))
	v.logger.Info("compliance validation finished", "findings", len(resp.Findings))
	return resp, nil
}

// checkEnvFiles flags dotenv files shipped into a production deployment.
func (v *ValidatorCompliance) checkEnvFiles(target string) []types.Finding {
	var findings []types.Finding

	filepath.Walk(target, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if info.Name() == ".git" || info.Name() == "node_modules" || info.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() == ".env" || strings.HasPrefix(info.Name(), ".env.") {
			rel, relErr := filepath.Rel(target, path)
			if relErr != nil {
				rel = path
			}
			findings = append(findings, complianceFinding(types.SeverityHigh, rel,
				fmt.Sprintf("Environment file %q must not ship to production", rel),
				"Provision production configuration through the deployment platform"))
		}
		return nil
	})

	return findings
}

func anyExists(target string, names []string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(target, name)); err == nil {
			return true
		}
	}
	return false
}

func complianceFinding(sev types.Severity, file, description, remediation string) types.Finding {
	return types.Finding{
		ID:          fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("compliance|%s|%s", file, description))))[:16],
		Severity:    sev,
		Category:    "compliance",
		Description: description,
		File:        file,
		Remediation: remediation,
		RuleID:      "CWE-710",
	}
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			shared.PluginTypeProducer: &shared.ProducerPlugin{Impl: newValidatorCompliance(logger)},
		},
		Logger: logger,
	})
}
