package core

import (
	"strings"

	"github.com/mikey/clawtools/internal/rules"
)

// Score reasons, in the order checks are applied
const (
	ReasonBlockedAddress     = "blocked: address"
	ReasonBlockedDomain      = "blocked: domain"
	ReasonBlockedKeyword     = "blocked: keyword"
	ReasonAllowAddress       = "allow: address"
	ReasonAllowDomain        = "allow: domain"
	ReasonSubjectSignal      = "signal: subject"
	ReasonNewsletterPlatform = "signal: newsletter platform"
	ReasonSenderName         = "signal: sender name"
)

const (
	allowAddressConfidence = 95
	allowDomainConfidence  = 65
	subjectSignalBoost     = 15
	platformBoost          = 10
	senderNameBoost        = 5
)

var newsletterPlatforms = map[string]struct{}{
	"substack.com":     {},
	"mail.beehiiv.com": {},
}

// Score rates how likely an envelope is a newsletter worth reading
func Score(e Envelope, p *rules.Policy) ScoreResult {
	return scoreWith(e, rules.NewChecker(p))
}

func scoreWith(e Envelope, c *rules.Checker) ScoreResult {
	fromAddr := rules.Normalize(e.From.Addr)
	fromName := rules.Normalize(e.From.Name)
	subject := rules.Normalize(e.Subject)
	domain := rules.DomainOf(fromAddr)

	// hard blocks first
	if c.IsAddressBlocked(fromAddr) {
		return blocked(ReasonBlockedAddress)
	}
	if c.IsDomainBlocked(domain) {
		return blocked(ReasonBlockedDomain)
	}
	if c.HasBlockedKeyword(fromAddr + " " + fromName + " " + subject) {
		return blocked(ReasonBlockedKeyword)
	}

	confidence := 0
	reasons := []string{}

	if c.IsAddressAllowed(fromAddr) {
		confidence = max(confidence, allowAddressConfidence)
		reasons = append(reasons, ReasonAllowAddress)
	}
	if c.IsDomainAllowed(domain) {
		confidence = max(confidence, allowDomainConfidence)
		reasons = append(reasons, ReasonAllowDomain)
	}
	if c.HasSubjectSignal(subject) {
		confidence += subjectSignalBoost
		reasons = append(reasons, ReasonSubjectSignal)
	}
	if _, ok := newsletterPlatforms[domain]; ok {
		confidence += platformBoost
		reasons = append(reasons, ReasonNewsletterPlatform)
	}
	if strings.Contains(fromName, "newsletter") || strings.Contains(fromName, "digest") {
		confidence += senderNameBoost
		reasons = append(reasons, ReasonSenderName)
	}

	return ScoreResult{
		Confidence: min(100, max(0, confidence)),
		Reasons:    reasons,
	}
}

func blocked(reason string) ScoreResult {
	return ScoreResult{Confidence: 0, Blocked: true, Reasons: []string{reason}}
}
