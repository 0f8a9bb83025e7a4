package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mikey/clawtools/internal/rules"
	"github.com/mikey/clawtools/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMail struct {
	envelopes []Envelope
	listErr   error
	moveErr   error
	queries   []ListQuery
	moves     []MoveRequest
}

func (f *fakeMail) ListEnvelopes(ctx context.Context, q ListQuery) ([]Envelope, error) {
	f.queries = append(f.queries, q)
	return f.envelopes, f.listErr
}

func (f *fakeMail) MoveMessages(ctx context.Context, req MoveRequest) error {
	f.moves = append(f.moves, req)
	return f.moveErr
}

type fakeRules struct {
	policy *rules.Policy
	saves  int
}

func (f *fakeRules) Path() string { return "config/newsletter-rules.json" }

func (f *fakeRules) Load() (*rules.Policy, error) {
	if f.policy == nil {
		return nil, rules.ErrNotFound
	}
	cp := *f.policy
	cp.Block.Addresses = append([]string{}, f.policy.Block.Addresses...)
	cp.Allow.Addresses = append([]string{}, f.policy.Allow.Addresses...)
	return &cp, nil
}

func (f *fakeRules) Update(fn func(p *rules.Policy) error) error {
	p, err := f.Load()
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	f.saves++
	f.policy = p
	return nil
}

type fakeState struct {
	state *SessionState
	saves int
}

func (f *fakeState) Load() (*SessionState, error) {
	if f.state == nil {
		return nil, errors.New("no state")
	}
	return f.state, nil
}

func (f *fakeState) Save(s *SessionState) error {
	f.saves++
	f.state = s
	return nil
}

func newTestService(mail *fakeMail, rs *fakeRules, st *fakeState) *TriageService {
	svc := NewTriageService(mail, rs, st,
		TriageSettings{Account: "personal", Limit: 200, MaxItems: 20},
		utils.NewTextProcessor(zap.NewNop()), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 7, 45, 0, 0, time.UTC) }
	return svc
}

func threeItemState() *SessionState {
	return &SessionState{
		Generation:   "g1",
		Account:      "personal",
		SourceFolder: "INBOX",
		TargetFolder: "Reading",
		Items: []Candidate{
			{ID: "11", From: Address{Addr: "low@substack.com"}, Confidence: 30},
			{ID: "12", From: Address{Addr: "Mid@Letters.test"}, Confidence: 70},
			{ID: "13", From: Address{Addr: "top@letters.test"}, Confidence: 95},
		},
	}
}

func TestProposeScenario(t *testing.T) {
	p := rules.NewPolicy()
	p.Signals.SubjectKeywords = []string{"digest"}
	mail := &fakeMail{envelopes: []Envelope{
		{ID: "1", Date: "2026-10-19", From: Address{Addr: "news@substack.com"}, Subject: "Weekly\n digest"},
		{ID: "2", Date: "2026-10-19", From: Address{Addr: "boss@work.test"}, Subject: "Meeting"},
	}}
	rs := &fakeRules{policy: p}
	st := &fakeState{}

	res, err := newTestService(mail, rs, st).Propose(context.Background(), Options{Limit: 50})
	require.NoError(t, err)

	require.Len(t, mail.queries, 1)
	assert.Equal(t, ListQuery{Account: "personal", Folder: "INBOX", PageSize: 50}, mail.queries[0])

	require.Equal(t, 1, st.saves)
	require.Len(t, st.state.Items, 1)
	item := st.state.Items[0]
	assert.Equal(t, 25, item.Confidence)
	assert.Equal(t, "Weekly digest", item.Subject)
	assert.Equal(t, []string{ReasonSubjectSignal, ReasonNewsletterPlatform}, item.Reasons)
	assert.NotEmpty(t, st.state.Generation)
	assert.Equal(t, "Reading", st.state.TargetFolder)
	assert.Equal(t, "config/newsletter-rules.json", st.state.RulesPath)

	assert.Contains(t, res.Text, "**Reading triage** (2026-10-19 07:45 UTC)")
	assert.Contains(t, res.Text, "1. **news@substack** – Weekly digest — *25* `#1` (signal: subject, signal: newsletter platform)")
	assert.Contains(t, res.Text, "confidence ≥ 65")
	assert.Equal(t, 0, rs.saves)
}

func TestProposeNoCandidates(t *testing.T) {
	mail := &fakeMail{}
	st := &fakeState{}

	res, err := newTestService(mail, &fakeRules{policy: rules.NewPolicy()}, st).Propose(context.Background(), Options{SourceFolder: "Newsletters"})
	require.NoError(t, err)

	assert.Equal(t, "Newsletters", mail.queries[0].Folder)
	assert.Equal(t, "Newsletters", st.state.SourceFolder)
	assert.Empty(t, st.state.Items)
	assert.Contains(t, res.Text, "• (no candidates right now)")
}

func TestProposeMaxItems(t *testing.T) {
	mail := &fakeMail{envelopes: []Envelope{
		{ID: "1", Date: "2026-10-19", From: Address{Addr: "a@substack.com"}, Subject: "A"},
		{ID: "2", Date: "2026-10-18", From: Address{Addr: "b@substack.com"}, Subject: "B"},
	}}
	p := rules.NewPolicy()
	p.Allow.Domains = []string{"substack.com"}

	svc := newTestService(mail, &fakeRules{policy: p}, &fakeState{})
	svc.settings.MaxItems = 0
	res, err := svc.Propose(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.State.Items)
	assert.Contains(t, res.Text, "• (no candidates right now)")

	res, err = svc.Propose(context.Background(), Options{MaxItems: 1})
	require.NoError(t, err)
	require.Len(t, res.State.Items, 1)
	assert.Equal(t, MessageID("2"), res.State.Items[0].ID)
}

func TestProposeListFailure(t *testing.T) {
	mail := &fakeMail{listErr: errors.New("himalaya exploded")}
	st := &fakeState{}

	_, err := newTestService(mail, &fakeRules{policy: rules.NewPolicy()}, st).Propose(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "himalaya exploded")
	assert.Equal(t, 0, st.saves)
}

func TestProposeMissingRules(t *testing.T) {
	_, err := newTestService(&fakeMail{}, &fakeRules{}, &fakeState{}).Propose(context.Background(), Options{})
	assert.True(t, errors.Is(err, rules.ErrNotFound))
}

func TestReplyMoveAll(t *testing.T) {
	mail := &fakeMail{}
	rs := &fakeRules{policy: rules.NewPolicy()}
	st := &fakeState{state: threeItemState()}

	res, err := newTestService(mail, rs, st).Reply(context.Background(), "move all", Options{})
	require.NoError(t, err)

	assert.Equal(t, ReplyExecuted, res.Status)
	require.Len(t, mail.moves, 1)
	assert.Equal(t, MoveRequest{
		Account:      "personal",
		SourceFolder: "INBOX",
		TargetFolder: "Reading",
		IDs:          []MessageID{"12", "13"},
	}, mail.moves[0])
	assert.Equal(t, "Moved 2 message(s) from INBOX → Reading.", res.Message)
	assert.Equal(t, 0, rs.saves)
	assert.Equal(t, 0, st.saves)
}

func TestReplyMoveSome(t *testing.T) {
	mail := &fakeMail{}
	svc := newTestService(mail, &fakeRules{policy: rules.NewPolicy()}, &fakeState{state: threeItemState()})

	res, err := svc.Reply(context.Background(), "move 3 1 9 3", Options{Account: "work"})
	require.NoError(t, err)

	assert.Equal(t, ReplyExecuted, res.Status)
	require.Len(t, mail.moves, 1)
	assert.Equal(t, []MessageID{"13", "11"}, mail.moves[0].IDs)
	assert.Equal(t, "work", mail.moves[0].Account)
}

func TestReplyMoveNothing(t *testing.T) {
	mail := &fakeMail{}
	svc := newTestService(mail, &fakeRules{policy: rules.NewPolicy()}, &fakeState{state: threeItemState()})

	res, err := svc.Reply(context.Background(), "move 7", Options{})
	require.NoError(t, err)

	assert.Equal(t, ReplyExecuted, res.Status)
	assert.Equal(t, NothingToMove, res.Message)
	assert.Empty(t, mail.moves)
}

func TestReplyMoveFailure(t *testing.T) {
	mail := &fakeMail{moveErr: errors.New("imap down")}
	svc := newTestService(mail, &fakeRules{policy: rules.NewPolicy()}, &fakeState{state: threeItemState()})

	_, err := svc.Reply(context.Background(), "move 1", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imap down")
}

func TestReplyNot(t *testing.T) {
	mail := &fakeMail{}
	rs := &fakeRules{policy: rules.NewPolicy()}
	st := &fakeState{state: threeItemState()}

	res, err := newTestService(mail, rs, st).Reply(context.Background(), "not 2", Options{SourceFolder: "Other"})
	require.NoError(t, err)

	assert.Equal(t, ReplyExecuted, res.Status)
	assert.Equal(t, "Okay — added mid@letters.test to blocklist.", res.Message)
	assert.Equal(t, 1, rs.saves)
	assert.Equal(t, []string{"mid@letters.test"}, rs.policy.Block.Addresses)
	assert.Equal(t, rules.DefaultSourceFolder, rs.policy.SourceFolder, "source override must not be persisted")
	assert.Empty(t, mail.moves)
	assert.Equal(t, 0, st.saves)
}

func TestReplyAlways(t *testing.T) {
	rs := &fakeRules{policy: rules.NewPolicy()}
	svc := newTestService(&fakeMail{}, rs, &fakeState{state: threeItemState()})

	res, err := svc.Reply(context.Background(), "always 1", Options{})
	require.NoError(t, err)

	assert.Equal(t, "Nice — added low@substack.com to allowlist.", res.Message)
	assert.Equal(t, []string{"low@substack.com"}, rs.policy.Allow.Addresses)
}

func TestReplyInvalidItem(t *testing.T) {
	rs := &fakeRules{policy: rules.NewPolicy()}
	state := threeItemState()
	state.Items[0].From.Addr = ""
	svc := newTestService(&fakeMail{}, rs, &fakeState{state: state})

	for _, text := range []string{"not 4", "always 0", "not 1"} {
		res, err := svc.Reply(context.Background(), text, Options{})
		require.NoError(t, err)
		assert.Equal(t, ReplyInvalidItem, res.Status, text)
		assert.Equal(t, UnknownItemNumber, res.Message)
	}
	assert.Equal(t, 0, rs.saves)
}

func TestReplyNotUnderstood(t *testing.T) {
	mail := &fakeMail{}
	rs := &fakeRules{}
	st := &fakeState{}

	res, err := newTestService(mail, rs, st).Reply(context.Background(), "qux", Options{})
	require.NoError(t, err)

	assert.Equal(t, ReplyNotUnderstood, res.Status)
	assert.True(t, strings.HasPrefix(res.Message, "I didn't understand"))
	assert.Equal(t, 0, rs.saves)
	assert.Equal(t, 0, st.saves)
	assert.Empty(t, mail.moves)
}

func TestApply(t *testing.T) {
	mail := &fakeMail{}
	svc := newTestService(mail, &fakeRules{policy: rules.NewPolicy()}, &fakeState{})

	res, err := svc.Apply(context.Background(), []string{"101", "--x", "abc", "102"}, Options{})
	require.NoError(t, err)

	require.Len(t, mail.moves, 1)
	assert.Equal(t, []MessageID{"101", "102"}, mail.moves[0].IDs)
	assert.Equal(t, "INBOX", mail.moves[0].SourceFolder)
	assert.Equal(t, "Moved 2 message(s) from INBOX → Reading.", res.Message)

	res, err = svc.Apply(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, NothingToMove, res.Message)
	assert.Len(t, mail.moves, 1)
}
