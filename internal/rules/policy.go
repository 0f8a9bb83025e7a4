// Package rules holds the persisted allow/block policy that drives newsletter
// triage scoring, and the file store it lives in.
package rules

import (
	"strings"
)

const (
	// DefaultMinPropose is the lowest confidence that gets proposed
	DefaultMinPropose = 25
	// DefaultMoveMin is the confidence required for "move all"
	DefaultMoveMin = 65
	// DefaultSourceFolder is scanned when the policy names no folder
	DefaultSourceFolder = "INBOX"
	// DefaultTargetFolder receives moved newsletters
	DefaultTargetFolder = "Reading"
)

// Policy is the triage rule set
type Policy struct {
	SourceFolder string     `json:"sourceFolder"`
	TargetFolder string     `json:"targetFolder"`
	Allow        AllowRules `json:"allow"`
	Block        BlockRules `json:"block"`
	Signals      Signals    `json:"signals"`
	Thresholds   Thresholds `json:"thresholds"`
}

// AllowRules lists senders that are known newsletters
type AllowRules struct {
	Domains   []string `json:"domains"`
	Addresses []string `json:"addresses"`
}

// BlockRules lists senders and keywords that are never newsletters
type BlockRules struct {
	Domains   []string `json:"domains"`
	Addresses []string `json:"addresses"`
	Keywords  []string `json:"keywords"`
}

// Signals are soft hints that raise confidence
type Signals struct {
	SubjectKeywords []string `json:"subjectKeywords"`
}

// Thresholds controls which candidates are proposed and moved
type Thresholds struct {
	MinPropose     int `json:"minPropose"`
	DefaultMoveMin int `json:"defaultMoveMin"`
}

// NewPolicy returns an empty policy carrying the default thresholds and folders
func NewPolicy() *Policy {
	p := &Policy{
		SourceFolder: DefaultSourceFolder,
		TargetFolder: DefaultTargetFolder,
		Thresholds: Thresholds{
			MinPropose:     DefaultMinPropose,
			DefaultMoveMin: DefaultMoveMin,
		},
	}
	p.Normalize()
	return p
}

// Normalize lower-cases, trims and de-duplicates every list in place.
// Lists are never nil afterwards.
func (p *Policy) Normalize() {
	p.Allow.Domains = normalizeSet(p.Allow.Domains)
	p.Allow.Addresses = normalizeSet(p.Allow.Addresses)
	p.Block.Domains = normalizeSet(p.Block.Domains)
	p.Block.Addresses = normalizeSet(p.Block.Addresses)
	p.Block.Keywords = normalizeSet(p.Block.Keywords)
	p.Signals.SubjectKeywords = normalizeSet(p.Signals.SubjectKeywords)
	p.SourceFolder = strings.TrimSpace(p.SourceFolder)
	p.TargetFolder = strings.TrimSpace(p.TargetFolder)
}

func (p *Policy) clone() *Policy {
	cp := *p
	cp.Allow.Domains = append([]string{}, p.Allow.Domains...)
	cp.Allow.Addresses = append([]string{}, p.Allow.Addresses...)
	cp.Block.Domains = append([]string{}, p.Block.Domains...)
	cp.Block.Addresses = append([]string{}, p.Block.Addresses...)
	cp.Block.Keywords = append([]string{}, p.Block.Keywords...)
	cp.Signals.SubjectKeywords = append([]string{}, p.Signals.SubjectKeywords...)
	return &cp
}

// AllowAddress adds an address to the allowlist. It reports whether the
// list changed.
func (p *Policy) AllowAddress(addr string) bool {
	var added bool
	p.Allow.Addresses, added = addToSet(p.Allow.Addresses, addr)
	return added
}

// BlockAddress adds an address to the blocklist. It reports whether the
// list changed.
func (p *Policy) BlockAddress(addr string) bool {
	var added bool
	p.Block.Addresses, added = addToSet(p.Block.Addresses, addr)
	return added
}

// Normalize trims and lower-cases s
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DomainOf returns the part after the last '@', or "" when there is none
func DomainOf(addr string) string {
	a := Normalize(addr)
	i := strings.LastIndex(a, "@")
	if i == -1 {
		return ""
	}
	return a[i+1:]
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func addToSet(values []string, v string) ([]string, bool) {
	n := Normalize(v)
	if n == "" {
		return values, false
	}
	for _, existing := range values {
		if existing == n {
			return values, false
		}
	}
	return append(values, n), true
}
