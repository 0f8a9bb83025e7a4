package core

import (
	"context"

	"github.com/mikey/clawtools/internal/rules"
)

// MailClient defines the interface for listing and moving messages
type MailClient interface {
	// ListEnvelopes returns envelopes matching the query, newest first
	ListEnvelopes(ctx context.Context, q ListQuery) ([]Envelope, error)

	// MoveMessages moves the given ids from the source to the target folder
	MoveMessages(ctx context.Context, req MoveRequest) error
}

// RuleStore defines the interface for the persisted triage policy
type RuleStore interface {
	// Path returns where the policy is stored
	Path() string

	// Load reads the full policy
	Load() (*rules.Policy, error)

	// Update applies fn to the stored policy and persists the result once
	Update(fn func(p *rules.Policy) error) error
}

// StateStore defines the interface for the persisted proposal
type StateStore interface {
	// Load reads the last proposal
	Load() (*SessionState, error)

	// Save replaces the last proposal
	Save(state *SessionState) error
}
