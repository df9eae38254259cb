package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secgate-io/secgate/pkg/shared"
	"github.com/secgate-io/secgate/pkg/types"
)

func severities(findings []types.Finding) []types.Severity {
	out := make([]types.Severity, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Severity)
	}
	return out
}

func TestAuditRequirements(t *testing.T) {
	content := []byte(`# pinned is fine
requests==2.31.0
flask
git+https://github.com/org/lib.git
--index-url https://pypi.org/simple
http://mirror.internal/simple/legacy-1.0.tar.gz
`)

	auditor := newAuditorDependency(hclog.NewNullLogger())
	findings := auditor.auditRequirements("requirements.txt", content)

	require.Len(t, findings, 3)
	assert.ElementsMatch(t,
		[]types.Severity{types.SeverityMedium, types.SeverityLow, types.SeverityHigh},
		severities(findings))
	for _, f := range findings {
		assert.Equal(t, "dependency", f.Category)
		assert.Equal(t, "requirements.txt", f.File)
		assert.NotEmpty(t, f.Remediation)
	}
}

func TestAuditPackageJSON(t *testing.T) {
	content := []byte(`{
  "dependencies": {
    "left-pad": "*",
    "express": "4.18.2",
    "legacy": "http://registry.internal/legacy.tgz"
  },
  "devDependencies": {
    "jest": "latest"
  }
}`)

	auditor := newAuditorDependency(hclog.NewNullLogger())
	findings := auditor.auditPackageJSON("package.json", content)

	require.Len(t, findings, 3)
	assert.ElementsMatch(t,
		[]types.Severity{types.SeverityMedium, types.SeverityMedium, types.SeverityHigh},
		severities(findings))
}

func TestAuditPackageJSONMalformed(t *testing.T) {
	auditor := newAuditorDependency(hclog.NewNullLogger())
	assert.Empty(t, auditor.auditPackageJSON("package.json", []byte("{broken")))
}

func TestAuditGoMod(t *testing.T) {
	content := []byte(`module example.com/app

go 1.19

require github.com/spf13/cobra v1.7.0

replace github.com/spf13/cobra => ../cobra
`)

	auditor := newAuditorDependency(hclog.NewNullLogger())
	findings := auditor.auditGoMod("go.mod", content)

	require.Len(t, findings, 1)
	assert.Equal(t, types.SeverityLow, findings[0].Severity)
	assert.Equal(t, 7, findings[0].Line)
}

func TestScanWalksManifests(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "requirements.txt"), []byte("flask\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(target, "node_modules", "dep"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "node_modules", "dep", "package.json"), []byte(`{"dependencies":{"x":"*"}}`), 0644))

	auditor := newAuditorDependency(hclog.NewNullLogger())
	resp, err := auditor.Scan(shared.ProducerScanRequest{TargetPath: target})
	require.NoError(t, err)

	// node_modules is skipped; only the top-level manifest is audited.
	require.Len(t, resp.Findings, 1)
	assert.Equal(t, "requirements.txt", resp.Findings[0].File)
	assert.Contains(t, resp.Details, "1 dependency manifests")
}

func TestScanRejectsMissingTarget(t *testing.T) {
	auditor := newAuditorDependency(hclog.NewNullLogger())

	_, err := auditor.Scan(shared.ProducerScanRequest{TargetPath: ""})
	assert.Error(t, err)

	_, err = auditor.Scan(shared.ProducerScanRequest{TargetPath: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
