// Package scanner implements the pattern-based finding producer. It walks a
// target corpus, applies the detection rule catalog and emits one finding
// per match occurrence.
package scanner

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/secgate-io/secgate/pkg/shared/files"
	"github.com/secgate-io/secgate/pkg/types"
)

// Result is the canonical output of one scan run.
type Result struct {
	Findings     []types.Finding `json:"findings"`
	ScannedFiles int             `json:"scanned_files"`
	SkippedPaths []string        `json:"skipped_paths,omitempty"`
}

// Scanner applies the detection rule catalog to a file tree or a single
// artifact. Access to the corpus is read-only.
type Scanner struct {
	rules       []Rule
	maxFileSize int64
	ignoreDirs  map[string]bool
	logger      hclog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRules replaces the default rule catalog.
func WithRules(rules []Rule) Option {
	return func(s *Scanner) { s.rules = rules }
}

// WithMaxFileSize caps the size of files the scanner reads.
func WithMaxFileSize(n int64) Option {
	return func(s *Scanner) { s.maxFileSize = n }
}

// New creates a Scanner with the default rule catalog.
func New(logger hclog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		rules:       DefaultRules(),
		maxFileSize: 10 * 1024 * 1024,
		ignoreDirs: map[string]bool{
			".git":         true,
			"node_modules": true,
			"vendor":       true,
			"__pycache__":  true,
			".venv":        true,
			"venv":         true,
			"dist":         true,
			"build":        true,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".ico": true, ".pdf": true, ".zip": true, ".tar": true,
	".gz": true, ".exe": true, ".dll": true, ".so": true,
	".dylib": true, ".woff": true, ".woff2": true, ".ttf": true,
	".mp3": true, ".mp4": true, ".pyc": true, ".class": true, ".o": true,
}

// Scan walks the target (a directory tree or a single file) and returns all
// rule matches. Unreadable paths are skipped and recorded; a bad path never
// aborts the run.
func (s *Scanner) Scan(target string) (*Result, error) {
	result := &Result{Findings: []types.Finding{}}

	info, err := os.Stat(target)
	if err != nil {
		// Absence of access degrades to zero findings, not an error.
		s.logger.Warn("scan target is not accessible", "target", target, "error", err)
		result.SkippedPaths = append(result.SkippedPaths, target)
		return result, nil
	}

	if !info.IsDir() {
		s.scanPath(target, target, result)
		return result, nil
	}

	ignoreMatcher := s.loadGitignore(target)

	walkErr := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Debug("skipping unreadable path", "path", path, "error", err)
			result.SkippedPaths = append(result.SkippedPaths, path)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(target, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if path != target && (s.ignoreDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			if ignoreMatcher != nil && rel != "." && ignoreMatcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") && d.Name() != ".env" {
			return nil
		}
		if ignoreMatcher != nil && ignoreMatcher.MatchesPath(rel) {
			return nil
		}
		if binaryExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		s.scanPath(path, rel, result)
		return nil
	})
	if walkErr != nil {
		return result, fmt.Errorf("failed to walk target %q: %w", target, walkErr)
	}

	s.logger.Debug("scan finished", "target", target, "files", result.ScannedFiles, "findings", len(result.Findings))
	return result, nil
}

// scanPath reads and scans one file, recording unreadable files as skipped.
func (s *Scanner) scanPath(path, displayPath string, result *Result) {
	info, err := os.Stat(path)
	if err != nil {
		result.SkippedPaths = append(result.SkippedPaths, path)
		return
	}
	if s.maxFileSize > 0 && info.Size() > s.maxFileSize {
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Debug("skipping unreadable file", "path", path, "error", err)
		result.SkippedPaths = append(result.SkippedPaths, path)
		return
	}
	if !files.IsTextContent(content) {
		return
	}

	result.Findings = append(result.Findings, s.ScanContent(displayPath, content)...)
	result.ScannedFiles++
}

// ScanContent applies the rule catalog to a single artifact's content,
// emitting one finding per match occurrence with no duplicate merging.
func (s *Scanner) ScanContent(path string, content []byte) []types.Finding {
	var findings []types.Finding

	lineScanner := bufio.NewScanner(bytes.NewReader(content))
	lineScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for lineScanner.Scan() {
		lineNum++
		line := lineScanner.Text()

		for _, rule := range s.rules {
			matches := rule.Pattern.FindAllStringIndex(line, -1)
			for i, match := range matches {
				findings = append(findings, types.Finding{
					ID:          findingID(rule.ID, path, lineNum, i),
					Severity:    rule.Severity,
					Category:    rule.Category,
					Description: fmt.Sprintf("%s: %s", rule.Name, rule.Description),
					File:        path,
					Line:        lineNum,
					Snippet:     excerpt(line, match[0], match[1], rule.Category),
					Remediation: rule.Remediation,
					RuleID:      rule.TaxonomyID,
				})
			}
		}
	}

	return findings
}

// excerpt returns a short context excerpt around the match. Credential
// findings always carry the redaction placeholder instead so a secret is
// never re-leaked through reports or logs.
func excerpt(line string, start, end int, category string) string {
	if category == CategoryCredential {
		return RedactionPlaceholder
	}

	const contextRadius = 40
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

// findingID derives a stable identifier from the rule, location and match
// ordinal so identical input always yields an identical finding set.
func findingID(ruleID, path string, line, ordinal int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%d|%d", ruleID, path, line, ordinal)))
	return hex.EncodeToString(sum[:])[:16]
}

// loadGitignore compiles the target's .gitignore when present.
func (s *Scanner) loadGitignore(target string) *gitignore.GitIgnore {
	matcher, err := gitignore.CompileIgnoreFile(filepath.Join(target, ".gitignore"))
	if err != nil {
		return nil
	}
	return matcher
}

