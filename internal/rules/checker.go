package rules

import (
	"strings"
)

// Checker is a compiled, read-only view of a Policy for fast membership checks.
// Build one per batch; it does not observe later changes to the policy.
type Checker struct {
	allowDomains    map[string]struct{}
	allowAddresses  map[string]struct{}
	blockDomains    map[string]struct{}
	blockAddresses  map[string]struct{}
	blockKeywords   []string
	subjectKeywords []string
}

// NewChecker compiles a checker from the policy
func NewChecker(p *Policy) *Checker {
	return &Checker{
		allowDomains:    toSet(p.Allow.Domains),
		allowAddresses:  toSet(p.Allow.Addresses),
		blockDomains:    toSet(p.Block.Domains),
		blockAddresses:  toSet(p.Block.Addresses),
		blockKeywords:   normalizeSet(p.Block.Keywords),
		subjectKeywords: normalizeSet(p.Signals.SubjectKeywords),
	}
}

// IsAddressBlocked checks for an exact blocklisted address
func (c *Checker) IsAddressBlocked(addr string) bool {
	return contains(c.blockAddresses, addr)
}

// IsDomainBlocked checks if the sender's domain is blocklisted
func (c *Checker) IsDomainBlocked(domain string) bool {
	return domain != "" && contains(c.blockDomains, domain)
}

// HasBlockedKeyword checks whether text contains any blocked keyword
func (c *Checker) HasBlockedKeyword(text string) bool {
	return containsAny(text, c.blockKeywords)
}

// IsAddressAllowed checks for an exact allowlisted address
func (c *Checker) IsAddressAllowed(addr string) bool {
	return contains(c.allowAddresses, addr)
}

// IsDomainAllowed checks if the sender's domain is allowlisted
func (c *Checker) IsDomainAllowed(domain string) bool {
	return domain != "" && contains(c.allowDomains, domain)
}

// HasSubjectSignal checks whether the subject contains a signal keyword
func (c *Checker) HasSubjectSignal(subject string) bool {
	return containsAny(subject, c.subjectKeywords)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range normalizeSet(values) {
		set[v] = struct{}{}
	}
	return set
}

func contains(set map[string]struct{}, v string) bool {
	_, ok := set[Normalize(v)]
	return ok
}

func containsAny(haystack string, needles []string) bool {
	h := Normalize(haystack)
	for _, n := range needles {
		if strings.Contains(h, n) {
			return true
		}
	}
	return false
}
