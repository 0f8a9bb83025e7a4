package core

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/clawtools/internal/rules"
	"github.com/mikey/clawtools/internal/utils"
	"go.uber.org/zap"
)

// Reply messages
const (
	NothingToMove     = "(nothing to move)"
	UnknownItemNumber = "Unknown item number."
	NotUnderstood     = "I didn't understand. Try: `move all`, `move 1 3`, `not 2`, or `always 4`."
)

// ReplyStatus classifies how a reply was handled
type ReplyStatus int

const (
	// ReplyExecuted means the command ran
	ReplyExecuted ReplyStatus = iota
	// ReplyInvalidItem means the command referenced a missing item
	ReplyInvalidItem
	// ReplyNotUnderstood means the text matched no command
	ReplyNotUnderstood
)

// ReplyResult is the outcome of a reply
type ReplyResult struct {
	Status  ReplyStatus
	Message string
	Moved   []MessageID
}

// TriageSettings holds the defaults used when a command does not override them
type TriageSettings struct {
	Account  string
	Limit    int
	MaxItems int
}

// Options are per-invocation overrides. Empty values fall back to the
// session state, the policy, or the settings.
type Options struct {
	Account      string
	SourceFolder string
	Limit        int
	MaxItems     int
}

// ProposeResult is the outcome of a propose run
type ProposeResult struct {
	State *SessionState
	Text  string
}

// TriageService is the core service for newsletter triage
type TriageService struct {
	mail          MailClient
	rules         RuleStore
	state         StateStore
	settings      TriageSettings
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	now           func() time.Time
}

// NewTriageService creates a new triage service
func NewTriageService(
	mail MailClient,
	ruleStore RuleStore,
	stateStore StateStore,
	settings TriageSettings,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *TriageService {
	return &TriageService{
		mail:          mail,
		rules:         ruleStore,
		state:         stateStore,
		settings:      settings,
		textProcessor: textProcessor,
		logger:        logger,
		now:           time.Now,
	}
}

// Propose lists the source folder, ranks candidates, stores them as the new
// session state and renders the proposal.
func (s *TriageService) Propose(ctx context.Context, opts Options) (*ProposeResult, error) {
	policy, err := s.rules.Load()
	if err != nil {
		return nil, err
	}

	source := firstNonEmpty(opts.SourceFolder, policy.SourceFolder)
	account := firstNonEmpty(opts.Account, s.settings.Account)
	limit := firstPositive(opts.Limit, s.settings.Limit)
	// a configured max of zero or less proposes nothing
	maxItems := s.settings.MaxItems
	if opts.MaxItems > 0 {
		maxItems = opts.MaxItems
	}

	envelopes, err := s.mail.ListEnvelopes(ctx, ListQuery{
		Account:  account,
		Folder:   source,
		PageSize: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", source, err)
	}
	for i := range envelopes {
		envelopes[i].Subject = s.textProcessor.SingleLine(envelopes[i].Subject)
	}

	items := BuildCandidates(envelopes, policy, maxItems)
	now := s.now()
	state := &SessionState{
		Generation:   uuid.NewString(),
		CreatedAt:    now.UTC(),
		Account:      account,
		RulesPath:    s.rules.Path(),
		SourceFolder: source,
		TargetFolder: policy.TargetFolder,
		Items:        items,
	}
	if err := s.state.Save(state); err != nil {
		return nil, err
	}

	s.logger.Info("Proposed newsletter moves",
		zap.String("generation", state.Generation),
		zap.String("folder", source),
		zap.Int("scanned", len(envelopes)),
		zap.Int("proposed", len(items)))

	return &ProposeResult{
		State: state,
		Text:  FormatProposal(items, policy, s.rules.Path(), now),
	}, nil
}

// Reply interprets a free-text answer to the last proposal
func (s *TriageService) Reply(ctx context.Context, text string, opts Options) (*ReplyResult, error) {
	cmd := ParseReply(text)
	if _, ok := cmd.(Unknown); ok {
		s.logger.Debug("Reply not understood", zap.String("text", text))
		return &ReplyResult{Status: ReplyNotUnderstood, Message: NotUnderstood}, nil
	}

	policy, err := s.rules.Load()
	if err != nil {
		return nil, err
	}
	state, err := s.state.Load()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Replying to proposal",
		zap.String("generation", state.Generation),
		zap.Int("items", len(state.Items)))

	req := MoveRequest{
		Account:      firstNonEmpty(opts.Account, state.Account, s.settings.Account),
		SourceFolder: firstNonEmpty(opts.SourceFolder, state.SourceFolder, policy.SourceFolder),
		TargetFolder: policy.TargetFolder,
	}

	switch c := cmd.(type) {
	case MoveAll:
		for _, it := range state.Items {
			if it.Confidence >= policy.Thresholds.DefaultMoveMin {
				req.IDs = append(req.IDs, it.ID)
			}
		}
		return s.move(ctx, req)

	case MoveSome:
		seen := make(map[MessageID]struct{}, len(c.Positions))
		for _, n := range c.Positions {
			it, ok := state.Item(n)
			if !ok {
				continue
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			req.IDs = append(req.IDs, it.ID)
		}
		return s.move(ctx, req)

	case Not:
		return s.teach(state, c.Position, func(p *rules.Policy, addr string) string {
			p.BlockAddress(addr)
			return fmt.Sprintf("Okay — added %s to blocklist.", addr)
		})

	case Always:
		return s.teach(state, c.Position, func(p *rules.Policy, addr string) string {
			p.AllowAddress(addr)
			return fmt.Sprintf("Nice — added %s to allowlist.", addr)
		})
	}

	return &ReplyResult{Status: ReplyNotUnderstood, Message: NotUnderstood}, nil
}

var numericID = regexp.MustCompile(`^\d+$`)

// Apply moves the given ids straight away. Non-numeric arguments are ignored.
func (s *TriageService) Apply(ctx context.Context, ids []string, opts Options) (*ReplyResult, error) {
	policy, err := s.rules.Load()
	if err != nil {
		return nil, err
	}

	req := MoveRequest{
		Account:      firstNonEmpty(opts.Account, s.settings.Account),
		SourceFolder: firstNonEmpty(opts.SourceFolder, policy.SourceFolder),
		TargetFolder: policy.TargetFolder,
	}
	for _, id := range ids {
		if numericID.MatchString(id) {
			req.IDs = append(req.IDs, MessageID(id))
		}
	}
	return s.move(ctx, req)
}

func (s *TriageService) move(ctx context.Context, req MoveRequest) (*ReplyResult, error) {
	if len(req.IDs) == 0 {
		return &ReplyResult{Status: ReplyExecuted, Message: NothingToMove}, nil
	}
	if err := s.mail.MoveMessages(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to move messages: %w", err)
	}
	s.logger.Info("Moved messages",
		zap.String("source", req.SourceFolder),
		zap.String("target", req.TargetFolder),
		zap.Int("count", len(req.IDs)))
	return &ReplyResult{
		Status:  ReplyExecuted,
		Message: FormatMoved(len(req.IDs), req.SourceFolder, req.TargetFolder),
		Moved:   req.IDs,
	}, nil
}

// teach applies a sender rule and persists the policy once
func (s *TriageService) teach(state *SessionState, position int, apply func(p *rules.Policy, addr string) string) (*ReplyResult, error) {
	it, ok := state.Item(position)
	addr := rules.Normalize(it.From.Addr)
	if !ok || addr == "" {
		return &ReplyResult{Status: ReplyInvalidItem, Message: UnknownItemNumber}, nil
	}

	var msg string
	err := s.rules.Update(func(p *rules.Policy) error {
		msg = apply(p, addr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Updated triage rules", zap.String("sender", addr), zap.String("path", s.rules.Path()))
	return &ReplyResult{Status: ReplyExecuted, Message: msg}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
