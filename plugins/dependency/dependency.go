package main

import (
	"bufio"
	"crypto/md5"
	"encoding/json"
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

// AuditorDependency inspects dependency manifests for risky declarations:
// unpinned versions, insecure registries and local overrides.
type AuditorDependency struct {
	logger hclog.Logger
}

func newAuditorDependency(logger hclog.Logger) *AuditorDependency {
	return &AuditorDependency{logger: logger}
}

// manifestNames are the dependency manifests the auditor understands.
var manifestNames = map[string]func(*AuditorDependency, string, []byte) []types.Finding{
	"requirements.txt": (*AuditorDependency).auditRequirements,
	"package.json":     (*AuditorDependency).auditPackageJSON,
	"go.mod":           (*AuditorDependency).auditGoMod,
}

// Scan walks the target for known dependency manifests and audits each one.
func (a *AuditorDependency) Scan(args shared.ProducerScanRequest) (shared.ProducerScanResponse, error) {
	var resp shared.ProducerScanResponse
	a.logger.Info("dependency audit starting", "target", args.TargetPath)

	if args.TargetPath == "" {
		return resp, fmt.Errorf("target path must be specified")
	}
	if _, err := os.Stat(args.TargetPath); err != nil {
		return resp, fmt.Errorf("target path is not accessible: %w", err)
	}

	manifests := 0
	err := filepath.Walk(args.TargetPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != args.TargetPath {
				return filepath.SkipDir
			}
			if info.Name() == "node_modules" || info.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}

		audit, ok := manifestNames[info.Name()]
		if !ok {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			a.logger.Warn("failed to read manifest", "path", path, "error", err)
			return nil
		}

		manifests++
		rel, relErr := filepath.Rel(args.TargetPath, path)
		if relErr != nil {
			rel = path
		}
		resp.Findings = append(resp.Findings, audit(a, rel, content)...)
		return nil
	})
	if err != nil {
		return resp, fmt.Errorf("failed to walk target: %w", err)
	}

	resp.Details = fmt.Sprintf("audited %d dependency manifests", manifests)
	a.logger.Info("dependency audit finished", "manifests", manifests, "findings", len(resp.Findings))
	return resp, nil
}

// auditRequirements flags unpinned and insecurely sourced Python
// requirements.
func (a *AuditorDependency) auditRequirements(file string, content []byte) []types.Finding {
	var findings []types.Finding

	lineNo := 0
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		switch {
		case strings.Contains(line, "http://"):
			findings = append(findings, dependencyFinding(types.SeverityHigh, file, lineNo,
				fmt.Sprintf("Dependency %q is fetched over plain HTTP", line),
				"Use an HTTPS registry or mirror", line))
		case strings.HasPrefix(line, "git+"):
			findings = append(findings, dependencyFinding(types.SeverityLow, file, lineNo,
				fmt.Sprintf("Dependency %q is pulled directly from a git repository", line),
				"Pin to a released, registry-hosted version", line))
		case !strings.Contains(line, "=="):
			findings = append(findings, dependencyFinding(types.SeverityMedium, file, lineNo,
				fmt.Sprintf("Dependency %q is not pinned to an exact version", line),
				"Pin the dependency with == to make builds reproducible", line))
		}
	}

	return findings
}

// auditPackageJSON flags wildcard and latest version ranges in package.json.
func (a *AuditorDependency) auditPackageJSON(file string, content []byte) []types.Finding {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(content, &manifest); err != nil {
		a.logger.Warn("failed to parse package.json", "file", file, "error", err)
		return nil
	}

	var findings []types.Finding
	check := func(deps map[string]string) {
		for name, version := range deps {
			switch {
			case version == "*" || version == "latest":
				findings = append(findings, dependencyFinding(types.SeverityMedium, file, 0,
					fmt.Sprintf("Dependency %q uses the floating version %q", name, version),
					"Pin the dependency to a fixed version range", name+"@"+version))
			case strings.HasPrefix(version, "http://"):
				findings = append(findings, dependencyFinding(types.SeverityHigh, file, 0,
					fmt.Sprintf("Dependency %q is fetched over plain HTTP", name),
					"Use an HTTPS tarball URL or a registry version", name+"@"+version))
			}
		}
	}
	check(manifest.Dependencies)
	check(manifest.DevDependencies)

	return findings
}

// auditGoMod flags local replace directives that silently override module
// sources.
func (a *AuditorDependency) auditGoMod(file string, content []byte) []types.Finding {
	var findings []types.Finding

	lineNo := 0
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "replace ") {
			continue
		}
		if strings.Contains(line, "=> ./") || strings.Contains(line, "=> ../") {
			findings = append(findings, dependencyFinding(types.SeverityLow, file, lineNo,
				"Module is replaced with a local path",
				"Remove the local replace directive before release", line))
		}
	}

	return findings
}

func dependencyFinding(sev types.Severity, file string, line int, description, remediation, subject string) types.Finding {
	return types.Finding{
		ID:          fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("dependency|%s|%d|%s", file, line, subject))))[:16],
		Severity:    sev,
		Category:    "dependency",
		Description: description,
		File:        file,
		Line:        line,
		Remediation: remediation,
		RuleID:      "CWE-1104",
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
			shared.PluginTypeProducer: &shared.ProducerPlugin{Impl: newAuditorDependency(logger)},
		},
		Logger: logger,
	})
}
