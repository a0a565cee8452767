package classify

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxExcerptLen is the excerpt length cap in runes. It is a contract value:
// the dedup key is the excerpt, so changing it changes dedup groups.
const MaxExcerptLen = 400

// Redaction placeholders. None of them match the detection patterns below,
// which is what makes Redact idempotent.
const (
	emailPlaceholder = "[EMAIL]"
	phonePlaceholder = "[PHONE]"
)

var (
	urlRx        = regexp.MustCompile(`(?i)https?://([A-Za-z0-9._-]+)(/\S*)?`)
	emailRx      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRx      = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	whitespaceRx = regexp.MustCompile(`\s+`)
)

// Redactor strips PII-shaped substrings from raw text. URLs collapse to a
// domain-only token unless the domain is on the allow-list, in which case
// the full URL is preserved.
type Redactor struct {
	allow map[string]struct{}
}

// NewRedactor builds a Redactor with the given allow-listed domains.
// Matching is case-insensitive and includes subdomains of listed domains.
func NewRedactor(allowDomains []string) *Redactor {
	allow := make(map[string]struct{}, len(allowDomains))
	for _, d := range allowDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allow[d] = struct{}{}
		}
	}
	return &Redactor{allow: allow}
}

func (r *Redactor) domainAllowed(domain string) bool {
	if _, ok := r.allow[domain]; ok {
		return true
	}
	for d := range r.allow {
		if strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// Redact replaces URL, email, and phone shaped substrings with placeholder
// tokens. Applying Redact to already-redacted text changes nothing.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}
	s = urlRx.ReplaceAllStringFunc(s, func(match string) string {
		sub := urlRx.FindStringSubmatch(match)
		domain := strings.ToLower(sub[1])
		if r.domainAllowed(domain) {
			return match
		}
		return fmt.Sprintf("[URL:%s]", domain)
	})
	s = emailRx.ReplaceAllString(s, emailPlaceholder)
	s = phoneRx.ReplaceAllString(s, phonePlaceholder)
	return s
}

// CollapseWhitespace reduces runs of whitespace to single spaces and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRx.ReplaceAllString(s, " "))
}

// BuildExcerpt produces the canonical record excerpt: whitespace-collapsed,
// redacted, truncated to MaxExcerptLen runes.
func (r *Redactor) BuildExcerpt(msg string) string {
	s := r.Redact(CollapseWhitespace(msg))
	runes := []rune(s)
	if len(runes) > MaxExcerptLen {
		return string(runes[:MaxExcerptLen])
	}
	return s
}
