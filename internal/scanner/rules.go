package scanner

import (
	"regexp"

	"github.com/secgate-io/secgate/pkg/types"
)

// Category names used by the built-in rule catalog.
const (
	CategoryCredential    = "credential"
	CategoryInjection     = "injection"
	CategoryCrypto        = "crypto"
	CategoryTransport     = "transport"
	CategoryConfiguration = "configuration"
)

// RedactionPlaceholder replaces the context excerpt of credential findings
// so a detected secret is never re-leaked into reports or logs.
const RedactionPlaceholder = "[REDACTED]"

// Rule is a single named detection rule of the catalog.
type Rule struct {
	ID          string
	Name        string
	Severity    types.Severity
	Category    string
	Pattern     *regexp.Regexp
	Description string
	Remediation string
	TaxonomyID  string // CWE identifier
}

// DefaultRules returns the built-in detection rule catalog.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "aws-access-key-id",
			Name:        "AWS Access Key ID",
			Severity:    types.SeverityCritical,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`\b(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}\b`),
			Description: "AWS Access Key ID used for programmatic access to AWS services",
			Remediation: "Revoke the key in IAM and load credentials from the environment or a secret manager",
			TaxonomyID:  "CWE-798",
		},
		{
			ID:          "aws-secret-access-key",
			Name:        "AWS Secret Access Key",
			Severity:    types.SeverityCritical,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`(?i)aws[_\-.]?secret[_\-.]?access[_\-.]?key\s*[=:]["']?\s*([A-Za-z0-9/+=]{40})`),
			Description: "AWS Secret Access Key provides full access to AWS resources",
			Remediation: "Rotate the secret immediately and remove it from source control history",
			TaxonomyID:  "CWE-798",
		},
		{
			ID:          "github-token",
			Name:        "GitHub Token",
			Severity:    types.SeverityCritical,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`\b(ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{36,}\b`),
			Description: "GitHub personal access token or OAuth token",
			Remediation: "Revoke the token and issue a fine-grained replacement stored outside the repository",
			TaxonomyID:  "CWE-798",
		},
		{
			ID:          "gitlab-token",
			Name:        "GitLab Token",
			Severity:    types.SeverityCritical,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`\bglpat-[A-Za-z0-9\-]{20,}\b`),
			Description: "GitLab personal access token",
			Remediation: "Revoke the token in GitLab and store a replacement in CI variables",
			TaxonomyID:  "CWE-798",
		},
		{
			ID:          "slack-token",
			Name:        "Slack Token",
			Severity:    types.SeverityHigh,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`\bxox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*\b`),
			Description: "Slack API token for bot or user access",
			Remediation: "Revoke the token in the Slack admin console",
			TaxonomyID:  "CWE-798",
		},
		{
			ID:          "private-key",
			Name:        "Private Key Material",
			Severity:    types.SeverityCritical,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`-----BEGIN\s+(RSA|DSA|EC|OPENSSH|PGP)\s+PRIVATE\s+KEY-----`),
			Description: "Private cryptographic key committed to the corpus",
			Remediation: "Treat the key as compromised: rotate it and purge it from history",
			TaxonomyID:  "CWE-321",
		},
		{
			ID:          "jwt-token",
			Name:        "JSON Web Token",
			Severity:    types.SeverityMedium,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`\beyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*\b`),
			Description: "JSON Web Token which may contain sensitive claims",
			Remediation: "Invalidate the token and avoid committing captured tokens",
			TaxonomyID:  "CWE-522",
		},
		{
			ID:          "generic-api-key",
			Name:        "Generic API Key",
			Severity:    types.SeverityMedium,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`(?i)(api[_\-.]?key|apikey|api[_\-.]?secret)\s*[=:]["']?\s*([A-Za-z0-9_\-]{20,})`),
			Description: "Generic API key assignment",
			Remediation: "Move the key to the environment or a secret manager",
			TaxonomyID:  "CWE-798",
		},
		{
			ID:          "hardcoded-password",
			Name:        "Hardcoded Password",
			Severity:    types.SeverityHigh,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*["'][^"']{6,}["']`),
			Description: "Password literal assigned in source",
			Remediation: "Read the password from configuration or a secret manager",
			TaxonomyID:  "CWE-259",
		},
		{
			ID:          "database-url-credentials",
			Name:        "Database URL With Credentials",
			Severity:    types.SeverityCritical,
			Category:    CategoryCredential,
			Pattern:     regexp.MustCompile(`(?i)(mysql|postgres|postgresql|mongodb|redis|amqp)://[^:\s]+:[^@\s]+@[^\s"']+`),
			Description: "Database connection URL with embedded credentials",
			Remediation: "Strip credentials from the URL and supply them at runtime",
			TaxonomyID:  "CWE-798",
		},
		{
			ID:          "sql-string-concat",
			Name:        "SQL Built By Concatenation",
			Severity:    types.SeverityHigh,
			Category:    CategoryInjection,
			Pattern:     regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE)\s+[^"']*["']\s*\+`),
			Description: "SQL statement assembled by string concatenation, a SQL injection vector",
			Remediation: "Use parameterized queries or prepared statements",
			TaxonomyID:  "CWE-89",
		},
		{
			ID:          "eval-call",
			Name:        "Dynamic Code Evaluation",
			Severity:    types.SeverityHigh,
			Category:    CategoryInjection,
			Pattern:     regexp.MustCompile(`\beval\s*\(`),
			Description: "Dynamic evaluation of code can execute attacker-controlled input",
			Remediation: "Replace eval with explicit parsing or dispatch",
			TaxonomyID:  "CWE-95",
		},
		{
			ID:          "shell-exec-interpolation",
			Name:        "Shell Command Interpolation",
			Severity:    types.SeverityHigh,
			Category:    CategoryInjection,
			Pattern:     regexp.MustCompile(`(?i)\b(exec|system|popen|spawn)\s*\([^)]*(\+|\$\{|%s|%v)`),
			Description: "Shell command built from interpolated values, a command injection vector",
			Remediation: "Pass arguments as a vector instead of building a shell string",
			TaxonomyID:  "CWE-78",
		},
		{
			ID:          "weak-hash-md5",
			Name:        "Weak Hash MD5",
			Severity:    types.SeverityMedium,
			Category:    CategoryCrypto,
			Pattern:     regexp.MustCompile(`(?i)\b(md5|crypto/md5)\b`),
			Description: "MD5 is cryptographically broken and unsuitable for integrity or credentials",
			Remediation: "Use SHA-256 or a dedicated password hash such as bcrypt",
			TaxonomyID:  "CWE-328",
		},
		{
			ID:          "weak-hash-sha1",
			Name:        "Weak Hash SHA-1",
			Severity:    types.SeverityMedium,
			Category:    CategoryCrypto,
			Pattern:     regexp.MustCompile(`(?i)\b(sha1|crypto/sha1)\b`),
			Description: "SHA-1 collisions are practical; it is unsuitable for security purposes",
			Remediation: "Use SHA-256 or stronger",
			TaxonomyID:  "CWE-328",
		},
		{
			ID:          "insecure-http-url",
			Name:        "Cleartext HTTP URL",
			Severity:    types.SeverityLow,
			Category:    CategoryTransport,
			Pattern:     regexp.MustCompile(`["']http://(?:[a-zA-Z0-9.-]+)(?::\d+)?[^"']*["']`),
			Description: "Hardcoded cleartext HTTP endpoint",
			Remediation: "Use HTTPS endpoints",
			TaxonomyID:  "CWE-319",
		},
		{
			ID:          "tls-verify-disabled",
			Name:        "TLS Verification Disabled",
			Severity:    types.SeverityHigh,
			Category:    CategoryTransport,
			Pattern:     regexp.MustCompile(`(?i)(InsecureSkipVerify\s*:\s*true|verify\s*=\s*False|rejectUnauthorized\s*:\s*false)`),
			Description: "TLS certificate verification is disabled",
			Remediation: "Enable certificate verification; pin internal CAs when needed",
			TaxonomyID:  "CWE-295",
		},
		{
			ID:          "debug-enabled",
			Name:        "Debug Mode Enabled",
			Severity:    types.SeverityLow,
			Category:    CategoryConfiguration,
			Pattern:     regexp.MustCompile(`(?i)\bdebug\s*[=:]\s*(true|1|"true"|'true')`),
			Description: "Debug mode left enabled, which can expose internals in production",
			Remediation: "Disable debug mode outside development environments",
			TaxonomyID:  "CWE-489",
		},
		{
			ID:          "bind-all-interfaces",
			Name:        "Bind To All Interfaces",
			Severity:    types.SeverityInfo,
			Category:    CategoryConfiguration,
			Pattern:     regexp.MustCompile(`["']0\.0\.0\.0["']`),
			Description: "Service bound to all network interfaces",
			Remediation: "Bind to the specific interface the service needs",
			TaxonomyID:  "CWE-1327",
		},
	}
}
