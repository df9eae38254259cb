package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"gopkg.in/yaml.v2"

	"github.com/secgate-io/secgate/pkg/shared/files"
	"github.com/secgate-io/secgate/pkg/types"
)

// Format is a supported report export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatSARIF    Format = "sarif"
)

const toolName = "secgate"
const toolInformationURI = "https://github.com/secgate-io/secgate"

// Formats lists all supported export formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatSARIF}
}

// ParseFormat validates a raw format name.
func ParseFormat(raw string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == raw {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", raw)
}

// Export renders the report in the requested format. JSON is the canonical
// representation; YAML and Markdown embed the full canonical payload so no
// field is lost in translation; SARIF carries the findings only.
func Export(rep types.Report, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return exportJSON(rep)
	case FormatYAML:
		return exportYAML(rep)
	case FormatMarkdown:
		return exportMarkdown(rep)
	case FormatSARIF:
		return exportSARIF(rep)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// WriteExport renders the report and writes it under path. A directory path
// gets a generated file name based on the report id and format.
func WriteExport(rep types.Report, format Format, path string) (string, error) {
	data, err := Export(rep, format)
	if err != nil {
		return "", err
	}

	nameTemplate := fmt.Sprintf("report_%s.%s", rep.ReportID, extensionFor(format))
	fullPath, folder, err := files.DetermineFileFullPath(path, nameTemplate)
	if err != nil {
		return "", err
	}
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return "", err
	}
	if err := files.WriteFileAtomic(fullPath, data); err != nil {
		return "", err
	}
	return fullPath, nil
}

func extensionFor(format Format) string {
	switch format {
	case FormatYAML:
		return "yaml"
	case FormatMarkdown:
		return "md"
	case FormatSARIF:
		return "sarif"
	default:
		return "json"
	}
}

func exportJSON(rep types.Report) ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}

// exportYAML round-trips the report through its canonical JSON form so the
// YAML document uses the same field names as the JSON export.
func exportYAML(rep types.Report) ([]byte, error) {
	canonical, err := json.Marshal(rep)
	if err != nil {
		return nil, err
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(canonical, &payload); err != nil {
		return nil, err
	}

	return yaml.Marshal(payload)
}

// exportMarkdown produces a human-readable summary followed by the full
// canonical payload in a fenced block.
func exportMarkdown(rep types.Report) ([]byte, error) {
	var out bytes.Buffer

	out.WriteString(fmt.Sprintf("# Security Gate Report %s\n\n", rep.ReportID))
	out.WriteString(fmt.Sprintf("- **Stage:** %s\n", rep.Stage))
	out.WriteString(fmt.Sprintf("- **Status:** %s\n", rep.Status))
	out.WriteString(fmt.Sprintf("- **Timestamp:** %s\n", rep.Timestamp.Format(time.RFC3339)))
	out.WriteString(fmt.Sprintf("- **Duration:** %s\n", rep.Duration))
	out.WriteString(fmt.Sprintf("- **Security score:** %.1f\n", rep.Summary.SecurityScore))
	out.WriteString(fmt.Sprintf("- **Issues:** %d total (%d critical, %d high, %d medium, %d low)\n\n",
		rep.Summary.TotalIssues, rep.Summary.CriticalIssues, rep.Summary.HighIssues,
		rep.Summary.MediumIssues, rep.Summary.LowIssues))

	if len(rep.Gates) > 0 {
		out.WriteString("## Gates\n\n")
		out.WriteString("| Gate | Status | Checks | Message |\n")
		out.WriteString("|------|--------|--------|---------|\n")
		for _, gateResult := range rep.Gates {
			out.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n",
				gateResult.Name, gateResult.Status, len(gateResult.Checks), gateResult.Message))
		}
		out.WriteString("\n")
	}

	if len(rep.Recommendations) > 0 {
		out.WriteString("## Recommendations\n\n")
		for _, rec := range rep.Recommendations {
			out.WriteString(fmt.Sprintf("- %s\n", rec))
		}
		out.WriteString("\n")
	}

	canonical, err := exportJSON(rep)
	if err != nil {
		return nil, err
	}
	out.WriteString("## Full Report\n\n")
	out.WriteString("```json\n")
	out.Write(canonical)
	out.WriteString("\n```\n")

	return out.Bytes(), nil
}

// exportSARIF converts the findings of all gates into a SARIF 2.1.0 log with
// one run for the whole pipeline stage.
func exportSARIF(rep types.Report) ([]byte, error) {
	sarifReport, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, err
	}

	run := sarif.NewRunWithInformationURI(toolName, toolInformationURI)

	seenRules := make(map[string]bool)
	for _, gateResult := range rep.Gates {
		for _, check := range gateResult.Checks {
			for _, finding := range check.Findings {
				ruleID := finding.RuleID
				if ruleID == "" {
					ruleID = finding.Category
				}

				if !seenRules[ruleID] {
					seenRules[ruleID] = true
					run.AddRule(ruleID).
						WithDescription(finding.Category).
						WithDefaultConfiguration(&sarif.ReportingConfiguration{
							Level: toSarifLevel(finding.Severity),
						})
				}

				location := sarif.NewLocation().
					WithPhysicalLocation(sarif.NewPhysicalLocation().
						WithArtifactLocation(sarif.NewArtifactLocation().
							WithUri(filepath.ToSlash(finding.File))).
						WithRegion(sarif.NewRegion().
							WithStartLine(findingLine(finding))))

				result := sarif.NewRuleResult(ruleID).
					WithMessage(sarif.NewTextMessage(findingMessage(finding))).
					WithLevel(toSarifLevel(finding.Severity)).
					WithLocations([]*sarif.Location{location})
				run.AddResult(result)
			}
		}
	}

	sarifReport.AddRun(run)

	var out bytes.Buffer
	if err := sarifReport.PrettyWrite(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// toSarifLevel maps finding severities onto the SARIF level vocabulary.
func toSarifLevel(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical, types.SeverityHigh:
		return "error"
	case types.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func findingLine(f types.Finding) int {
	if f.Line > 0 {
		return f.Line
	}
	return 1
}

func findingMessage(f types.Finding) string {
	msg := f.Description
	if f.Remediation != "" {
		msg = fmt.Sprintf("%s. Remediation: %s", strings.TrimSuffix(msg, "."), f.Remediation)
	}
	return msg
}
