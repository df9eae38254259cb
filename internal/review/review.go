// Package review implements the rule-based code-review producer. Unlike the
// vulnerability scanner it looks for maintainability smells that erode a
// codebase's security posture over time.
package review

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/secgate-io/secgate/pkg/types"
)

// Result is the single canonical shape a review returns. Callers never
// receive a bare slice or a loose map.
type Result struct {
	Findings      []types.Finding `json:"findings"`
	ReviewedFiles int             `json:"reviewed_files"`
}

// Options tune the review pass.
type Options struct {
	MaxLineLength int // 0 uses the default of 160
}

// reviewRule is one code-review heuristic applied per line.
type reviewRule struct {
	id          string
	severity    types.Severity
	pattern     *regexp.Regexp
	description string
	remediation string
}

var reviewRules = []reviewRule{
	{
		id:          "todo-marker",
		severity:    types.SeverityInfo,
		pattern:     regexp.MustCompile(`(?i)//\s*(TODO|FIXME|HACK|XXX)\b|#\s*(TODO|FIXME|HACK|XXX)\b`),
		description: "Unresolved TODO/FIXME marker",
		remediation: "Track the work in an issue and remove the marker",
	},
	{
		id:          "debug-print",
		severity:    types.SeverityLow,
		pattern:     regexp.MustCompile(`\b(console\.log|fmt\.Println|print\(|System\.out\.println)\s*\(?`),
		description: "Debug print statement committed to source",
		remediation: "Use the structured logger instead of ad hoc prints",
	},
	{
		id:          "swallowed-error",
		severity:    types.SeverityMedium,
		pattern:     regexp.MustCompile(`(catch\s*\([^)]*\)\s*\{\s*\}|except[^:]*:\s*pass\b|if err != nil\s*\{\s*\})`),
		description: "Error is caught and silently discarded",
		remediation: "Handle the error or log it with context",
	},
}

// Reviewer runs the code-review rule set over a target tree.
type Reviewer struct {
	maxLineLength int
	logger        hclog.Logger
}

// New creates a Reviewer.
func New(logger hclog.Logger) *Reviewer {
	return &Reviewer{maxLineLength: 160, logger: logger}
}

var sourceExts = map[string]bool{
	".go": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".py": true, ".rb": true, ".java": true, ".cs": true, ".php": true,
	".c": true, ".cc": true, ".cpp": true, ".h": true, ".rs": true,
}

// Review walks the target and returns one canonical Result. Unreadable
// paths are skipped; the review never aborts for one bad file.
func (r *Reviewer) Review(target string, opts Options) (*Result, error) {
	maxLine := opts.MaxLineLength
	if maxLine <= 0 {
		maxLine = r.maxLineLength
	}

	result := &Result{Findings: []types.Finding{}}

	info, err := os.Stat(target)
	if err != nil {
		r.logger.Warn("review target is not accessible", "target", target, "error", err)
		return result, nil
	}

	if !info.IsDir() {
		r.reviewFile(target, target, maxLine, result)
		return result, nil
	}

	walkErr := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != target && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, relErr := filepath.Rel(target, path)
		if relErr != nil {
			rel = path
		}
		r.reviewFile(path, rel, maxLine, result)
		return nil
	})
	if walkErr != nil {
		return result, fmt.Errorf("failed to walk target %q: %w", target, walkErr)
	}

	return result, nil
}

func (r *Reviewer) reviewFile(path, displayPath string, maxLine int, result *Result) {
	content, err := os.ReadFile(path)
	if err != nil {
		r.logger.Debug("skipping unreadable file", "path", path, "error", err)
		return
	}

	lineScanner := bufio.NewScanner(bytes.NewReader(content))
	lineScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for lineScanner.Scan() {
		lineNum++
		line := lineScanner.Text()

		for _, rule := range reviewRules {
			if rule.pattern.MatchString(line) {
				result.Findings = append(result.Findings, types.Finding{
					ID:          reviewFindingID(rule.id, displayPath, lineNum),
					Severity:    rule.severity,
					Category:    "review",
					Description: rule.description,
					File:        displayPath,
					Line:        lineNum,
					Snippet:     truncate(strings.TrimSpace(line), 120),
					Remediation: rule.remediation,
				})
			}
		}

		if len(line) > maxLine {
			result.Findings = append(result.Findings, types.Finding{
				ID:          reviewFindingID("long-line", displayPath, lineNum),
				Severity:    types.SeverityInfo,
				Category:    "review",
				Description: fmt.Sprintf("Line exceeds %d characters", maxLine),
				File:        displayPath,
				Line:        lineNum,
				Remediation: "Break the line up for readability",
			})
		}
	}

	result.ReviewedFiles++
}

func reviewFindingID(ruleID, path string, line int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("review|%s|%s|%d", ruleID, path, line)))
	return hex.EncodeToString(sum[:])[:16]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
