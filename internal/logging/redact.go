package logging

import "regexp"

// Redacted replaces every sensitive match.
const Redacted = "[REDACTED]"

// sensitivePatterns are applied in order.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-_=]+\.[A-Za-z0-9\-_=]+\.[A-Za-z0-9\-_.+/=]+`), // JWT bearer tokens
	regexp.MustCompile(`[a-z]{2}-[a-z]+-\d_[a-zA-Z0-9]{8,}`),                              // user pool IDs
	regexp.MustCompile(`[a-z]{2}-[a-z]+-\d:[a-f0-9\-]{36}`),                               // identity pool IDs
	regexp.MustCompile(`arn:aws:[a-zA-Z0-9\-]+(:[^\s"']*)?`),                              // ARNs
	regexp.MustCompile(`key-[a-zA-Z0-9]{32}`),                                             // API keys
	regexp.MustCompile(`sk-[a-zA-Z0-9]{32,}`),                                             // secret keys
	regexp.MustCompile(`(?i)password["']?\s*[:=]\s*["'][^"']+["']`),                       // password fields
	regexp.MustCompile(`[a-zA-Z0-9+/]{40,}={0,2}`),                                        // base64 tokens
	regexp.MustCompile(`[a-zA-Z0-9]{26,}`),                                                // client IDs
	regexp.MustCompile(`\b[0-9]{12}\b`),                                                   // account IDs
}

// Redact returns s with credentials and cloud identifiers replaced by
// Redacted. It is pure and safe for concurrent use.
func Redact(s string) string {
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, Redacted)
	}
	return s
}
