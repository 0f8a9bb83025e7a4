package briefing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/costs"
	"github.com/mikey/clawtools/internal/ports"
	"github.com/mikey/clawtools/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMail struct {
	today   []core.Envelope
	unread  []core.Envelope
	err     error
	queries []core.ListQuery
}

func (f *fakeMail) ListEnvelopes(ctx context.Context, q core.ListQuery) ([]core.Envelope, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if q.Unseen {
		return f.unread, nil
	}
	return f.today, nil
}

func (f *fakeMail) MoveMessages(ctx context.Context, req core.MoveRequest) error {
	return errors.New("unexpected move")
}

type fakeCosts struct {
	report *usage.Report
	err    error
	req    costs.Request
}

func (f *fakeCosts) Report(ctx context.Context, req costs.Request) (*usage.Report, error) {
	f.req = req
	return f.report, f.err
}

type fakeReviews struct {
	status *ports.ReviewStatus
	err    error
}

func (f *fakeReviews) ListReviewRequests(ctx context.Context) (*ports.ReviewStatus, error) {
	return f.status, f.err
}

type fakeSender struct {
	sent []ports.OutgoingMail
	err  error
}

func (f *fakeSender) Send(ctx context.Context, m ports.OutgoingMail) error {
	f.sent = append(f.sent, m)
	return f.err
}

// 2026-10-19 07:30 in Berlin
var fixedNow = time.Date(2026, 10, 19, 5, 30, 0, 0, time.UTC)

func newComposer(t *testing.T, mail core.MailClient, reporter CostReporter, reviews ports.ReviewLister, sender ports.MailSender) *Composer {
	t.Helper()
	c := NewComposer(mail, reporter, reviews, sender, Settings{
		Timezone:    "Europe/Berlin",
		Account:     "wasc",
		MemoryDir:   t.TempDir(),
		FetchPrices: true,
	}, zap.NewNop())
	c.now = func() time.Time { return fixedNow }
	return c
}

func envelope(id, date, name, addr, subject string, seen bool) core.Envelope {
	e := core.Envelope{ID: core.MessageID(id), Date: date, From: core.Address{Name: name, Addr: addr}, Subject: subject}
	if seen {
		e.Flags = []string{"Seen"}
	}
	return e
}

func TestComposeFull(t *testing.T) {
	mail := &fakeMail{
		today: []core.Envelope{
			envelope("6", "2026-10-19 07:10+02:00", "Shop", "news@shop.example", "Sale", false),
			envelope("5", "2026-10-19 07:00+02:00", "", "bob@example.com", "", true),
			envelope("4", "2026-10-19 06:50+02:00", "", "", "Hi", false),
			envelope("3", "2026-10-19 06:40+02:00", "C", "c@example.com", "3", true),
			envelope("2", "2026-10-19 06:30+02:00", "D", "d@example.com", "2", true),
			envelope("1", "2026-10-19 06:20+02:00", "E", "e@example.com", "1", true),
		},
		unread: make([]core.Envelope, 12),
	}
	reporter := &fakeCosts{report: &usage.Report{
		Tokens: usage.Tokens{Total: 4321},
		Cost:   usage.Cost{Estimated: 1.5},
		ByModel: map[string]*usage.ModelUsage{
			"openai/gpt-5.2":            {Model: "openai/gpt-5.2", Cost: usage.Cost{Estimated: 0.5}},
			"anthropic/claude-opus-4.5": {Model: "anthropic/claude-opus-4.5", Cost: usage.Cost{Estimated: 1}},
		},
	}}
	reviews := &fakeReviews{status: &ports.ReviewStatus{Authenticated: true, Items: []ports.ReviewRequest{
		{Title: "Fix parser", URL: "https://github.com/acme/app/pull/7", Repository: "acme/app"},
	}}}

	c := newComposer(t, mail, reporter, reviews, nil)
	journal := "# 2026-10-18\n\n## Journal Summary\n- shipped triage\n1) wrote tests\nprose line\n\n## Notes\n- not included\n"
	require.NoError(t, os.WriteFile(filepath.Join(c.settings.MemoryDir, "2026-10-18.md"), []byte(journal), 0o644))

	b, err := c.Compose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", b.Date)

	md := b.Markdown
	assert.True(t, strings.HasPrefix(md, "**Daily Briefing — 2026-10-19 (Berlin)**\n"))
	assert.Contains(t, md, "- Total heute: 6 (unread: 2)\n")
	assert.Contains(t, md, "- Unread (approx, first page): 12\n")
	assert.Contains(t, md, "  - 2026-10-19 07:10+02:00 — (unread) Shop <news@shop.example> — Sale\n")
	assert.Contains(t, md, "  - 2026-10-19 07:00+02:00 — bob@example.com — (no subject)\n")
	assert.Contains(t, md, "  - 2026-10-19 06:50+02:00 — (unread) (unknown) — Hi\n")
	assert.NotContains(t, md, "e@example.com")
	assert.Contains(t, md, "## 2) Gestern (Kurzfassung)\n- shipped triage\n1) wrote tests\n\n")
	assert.NotContains(t, md, "not included")
	assert.Contains(t, md, "- Est. cost: **$1.5000** • tokens: **4321**\n- Top models: anthropic/claude-opus-4.5 ($1.0000), openai/gpt-5.2 ($0.5000)\n")
	assert.Contains(t, md, "## 4) GitHub — Review requests\n- Pending PR review requests: 1\n- acme/app: Fix parser — https://github.com/acme/app/pull/7\n")
	assert.True(t, strings.HasSuffix(md, "## 6) Fragen / Entscheidungen (max 1–2)\n- ___\n"))

	require.Len(t, mail.queries, 2)
	assert.Equal(t, core.ListQuery{Account: "wasc", Folder: "INBOX", PageSize: 200, On: "2026-10-19"}, mail.queries[0])
	assert.Equal(t, core.ListQuery{Account: "wasc", Folder: "INBOX", PageSize: 200, Unseen: true}, mail.queries[1])

	assert.Equal(t, costs.Request{Mode: usage.ModeYesterday, Timezone: "Europe/Berlin", FetchPrices: true}, reporter.req)
}

func TestComposeDegrades(t *testing.T) {
	mail := &fakeMail{err: errors.New("himalaya: exit status 1")}
	reporter := &fakeCosts{err: errors.New("openrouter down")}
	reviews := &fakeReviews{err: errors.New("boom")}

	b, err := newComposer(t, mail, reporter, reviews, nil).Compose(context.Background())
	require.NoError(t, err)

	md := b.Markdown
	assert.Contains(t, md, "- Total heute: 0 (unread: 0)\n")
	assert.NotContains(t, md, "Unread (approx")
	assert.Contains(t, md, "- (Keine Emails gefunden / Abruf fehlgeschlagen)\n")
	assert.Contains(t, md, "- (No journal summary found yet for yesterday)\n")
	assert.Contains(t, md, "- (Cost data unavailable)\n")
	assert.Contains(t, md, "- (GitHub reviews unavailable)\n")
	assert.Contains(t, md, "- Top 3:\n  1) ___\n  2) ___\n  3) ___\n")
}

func TestComposeWithoutCollaborators(t *testing.T) {
	b, err := newComposer(t, nil, nil, &fakeReviews{status: &ports.ReviewStatus{}}, nil).Compose(context.Background())
	require.NoError(t, err)
	assert.Contains(t, b.Markdown, "- (Cost data unavailable)\n")
	assert.Contains(t, b.Markdown, "- (GitHub CLI not authenticated: run `gh auth login`)\n")
}

func TestComposeInvalidTimezone(t *testing.T) {
	c := NewComposer(nil, nil, nil, nil, Settings{Timezone: "Mars/Olympus"}, zap.NewNop())
	_, err := c.Compose(context.Background())
	assert.Error(t, err)
}

func TestJournalSummary(t *testing.T) {
	text := "## Journal Summary\n" + strings.Repeat("- item\n", 9) + "# Next"
	assert.Len(t, JournalSummary(text, 7), 7)
	assert.Nil(t, JournalSummary("## Summary\n- x\n", 7))
	assert.Equal(t, []string{"- last"}, JournalSummary("## Journal Summary\n  - last", 7))
}

func TestCostLinesWithoutModels(t *testing.T) {
	r := &usage.Report{Cost: usage.Cost{Known: 0.25}, Tokens: usage.Tokens{Total: 10}}
	assert.Equal(t, "- Est. cost: **$0.2500** • tokens: **10**\n- Top models: (none)", CostLines(r))
}

func TestDeliver(t *testing.T) {
	b := &Briefing{Date: "2026-10-19", Markdown: "**Daily Briefing**\n"}

	assert.ErrorIs(t, newComposer(t, nil, nil, nil, nil).Deliver(context.Background(), b, "me@example.com", []string{"me@example.com"}, ""), ErrNoSender)

	sender := &fakeSender{}
	c := newComposer(t, nil, nil, nil, sender)
	assert.Error(t, c.Deliver(context.Background(), b, "me@example.com", nil, ""))

	require.NoError(t, c.Deliver(context.Background(), b, "bot@example.com", []string{"me@example.com"}, ""))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, ports.OutgoingMail{
		From:    "bot@example.com",
		To:      []string{"me@example.com"},
		Subject: "Daily Briefing — 2026-10-19",
		Body:    "**Daily Briefing**\n",
	}, sender.sent[0])

	sender.err = errors.New("550 rejected")
	assert.Error(t, c.Deliver(context.Background(), b, "bot@example.com", []string{"me@example.com"}, "Morning"))
}
