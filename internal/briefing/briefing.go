// Package briefing composes the daily markdown briefing from mail, the
// journal, usage costs and pending reviews.
package briefing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mikey/clawtools/internal/adapters/github"
	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/costs"
	"github.com/mikey/clawtools/internal/ports"
	"github.com/mikey/clawtools/internal/usage"
	"go.uber.org/zap"
)

const maxJournalLines = 7

// ErrNoSender is returned by Deliver when SMTP delivery is not configured
var ErrNoSender = errors.New("no mail sender configured")

// CostReporter produces a usage report for a window
type CostReporter interface {
	Report(ctx context.Context, req costs.Request) (*usage.Report, error)
}

// Settings configures the composer
type Settings struct {
	Timezone    string
	Account     string
	Folder      string
	PageSize    int
	Top         int
	MemoryDir   string
	FetchPrices bool
}

// Briefing is a rendered briefing for one local date
type Briefing struct {
	Date     string
	Markdown string
}

// Composer gathers every section. Collaborators may be nil and any of
// them failing only degrades its own section.
type Composer struct {
	mail     core.MailClient
	costs    CostReporter
	reviews  ports.ReviewLister
	sender   ports.MailSender
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewComposer creates a new briefing composer
func NewComposer(mail core.MailClient, reporter CostReporter, reviews ports.ReviewLister, sender ports.MailSender, settings Settings, logger *zap.Logger) *Composer {
	if settings.Folder == "" {
		settings.Folder = "INBOX"
	}
	if settings.PageSize <= 0 {
		settings.PageSize = 200
	}
	if settings.Top <= 0 {
		settings.Top = 5
	}
	return &Composer{
		mail:     mail,
		costs:    reporter,
		reviews:  reviews,
		sender:   sender,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

type inboxSummary struct {
	todayTotal  int
	todayUnread int
	unreadTotal int
	hasUnread   bool
	top         []core.Envelope
}

// Compose renders the briefing. Only an invalid timezone is an error.
func (c *Composer) Compose(ctx context.Context) (*Briefing, error) {
	loc, err := time.LoadLocation(c.settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.settings.Timezone, err)
	}

	now := c.now().In(loc)
	today := now.Format("2006-01-02")
	yesterday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -1).Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "**Daily Briefing — %s (Berlin)**\n", today)

	b.WriteString("\n## 1) Inbox (wasc.me) — heute\n")
	inbox := c.inbox(ctx, today)
	fmt.Fprintf(&b, "- Total heute: %d (unread: %d)\n", inbox.todayTotal, inbox.todayUnread)
	if inbox.hasUnread {
		fmt.Fprintf(&b, "- Unread (approx, first page): %d\n", inbox.unreadTotal)
	}
	if len(inbox.top) > 0 {
		b.WriteString("- Wichtigste / neueste (Top 5):\n")
		for _, e := range inbox.top {
			fmt.Fprintf(&b, "  %s\n", EmailLine(e))
		}
	} else {
		b.WriteString("- (Keine Emails gefunden / Abruf fehlgeschlagen)\n")
	}

	b.WriteString("\n## 2) Gestern (Kurzfassung)\n")
	for _, l := range c.journal(yesterday) {
		b.WriteString(l + "\n")
	}

	b.WriteString("\n## 3) Costs (gestern)\n")
	b.WriteString(c.costLines(ctx) + "\n")

	b.WriteString("\n## 4) GitHub — Review requests\n")
	for _, l := range c.reviewLines(ctx) {
		b.WriteString(l + "\n")
	}

	b.WriteString("\n## 5) Today — Fokus & Todos\n")
	b.WriteString("- Top 3:\n  1) ___\n  2) ___\n  3) ___\n")
	b.WriteString("\n## 6) Fragen / Entscheidungen (max 1–2)\n")
	b.WriteString("- ___\n")

	return &Briefing{Date: today, Markdown: b.String()}, nil
}

func (c *Composer) inbox(ctx context.Context, today string) inboxSummary {
	var s inboxSummary
	if c.mail == nil {
		return s
	}

	q := core.ListQuery{
		Account:  c.settings.Account,
		Folder:   c.settings.Folder,
		PageSize: c.settings.PageSize,
		On:       today,
	}
	envelopes, err := c.mail.ListEnvelopes(ctx, q)
	if err != nil {
		c.logger.Warn("Failed to list today's mail", zap.Error(err))
	} else {
		s.todayTotal = len(envelopes)
		for _, e := range envelopes {
			if !e.Seen() {
				s.todayUnread++
			}
		}
		s.top = envelopes
		if len(s.top) > c.settings.Top {
			s.top = s.top[:c.settings.Top]
		}
	}

	q.On = ""
	q.Unseen = true
	unread, err := c.mail.ListEnvelopes(ctx, q)
	if err != nil {
		c.logger.Warn("Failed to list unread mail", zap.Error(err))
		return s
	}
	s.unreadTotal = len(unread)
	s.hasUnread = true
	return s
}

// EmailLine renders one inbox entry
func EmailLine(e core.Envelope) string {
	from := "(unknown)"
	switch {
	case e.From.Name != "":
		from = fmt.Sprintf("%s <%s>", e.From.Name, e.From.Addr)
	case e.From.Addr != "":
		from = e.From.Addr
	}
	subject := e.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	unread := "(unread) "
	if e.Seen() {
		unread = ""
	}
	return fmt.Sprintf("- %s — %s%s — %s", e.Date, unread, from, subject)
}

func (c *Composer) journal(date string) []string {
	path := filepath.Join(c.settings.MemoryDir, date+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Failed to read journal", zap.String("path", path), zap.Error(err))
		}
		return []string{"- (No journal summary found yet for yesterday)"}
	}

	lines := JournalSummary(string(data), maxJournalLines)
	if len(lines) == 0 {
		return []string{"- (No journal summary found yet for yesterday)"}
	}
	return lines
}

var numbered = regexp.MustCompile(`^\d+\)`)

// JournalSummary extracts up to limit bullet lines from the
// "## Journal Summary" section of a journal file
func JournalSummary(text string, limit int) []string {
	const heading = "## Journal Summary\n"
	i := strings.Index(text, heading)
	if i < 0 {
		return nil
	}
	section := text[i+len(heading):]
	for _, end := range []string{"\n## ", "\n# "} {
		if j := strings.Index(section, end); j >= 0 {
			section = section[:j]
		}
	}

	var lines []string
	for _, l := range strings.Split(section, "\n") {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "-") || numbered.MatchString(l) {
			lines = append(lines, l)
			if len(lines) == limit {
				break
			}
		}
	}
	return lines
}

func (c *Composer) costLines(ctx context.Context) string {
	if c.costs == nil {
		return "- (Cost data unavailable)"
	}
	r, err := c.costs.Report(ctx, costs.Request{
		Mode:        usage.ModeYesterday,
		Timezone:    c.settings.Timezone,
		FetchPrices: c.settings.FetchPrices,
	})
	if err != nil {
		c.logger.Warn("Cost report failed", zap.Error(err))
		return "- (Cost data unavailable)"
	}
	return CostLines(r)
}

// CostLines renders the cost total and the three most expensive models
func CostLines(r *usage.Report) string {
	top := "(none)"
	if models := r.TopByCost(3); len(models) > 0 {
		parts := make([]string, 0, len(models))
		for _, m := range models {
			parts = append(parts, fmt.Sprintf("%s (%s)", m.Model, usage.Money(m.Cost.Effective())))
		}
		top = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("- Est. cost: **%s** • tokens: **%d**\n- Top models: %s",
		usage.Money(r.Cost.Effective()), r.Tokens.Total, top)
}

func (c *Composer) reviewLines(ctx context.Context) []string {
	if c.reviews == nil {
		return []string{"- (GitHub reviews unavailable)"}
	}
	status, err := c.reviews.ListReviewRequests(ctx)
	if err != nil {
		c.logger.Warn("Review lookup failed", zap.Error(err))
		return []string{"- (GitHub reviews unavailable)"}
	}

	var lines []string
	for _, l := range github.Lines(status) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return []string{"- (none)"}
	}
	return lines
}

// Deliver mails the briefing as plain text
func (c *Composer) Deliver(ctx context.Context, b *Briefing, from string, to []string, subject string) error {
	if c.sender == nil {
		return ErrNoSender
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}
	if subject == "" {
		subject = "Daily Briefing"
	}

	err := c.sender.Send(ctx, ports.OutgoingMail{
		From:    from,
		To:      to,
		Subject: fmt.Sprintf("%s — %s", subject, b.Date),
		Body:    b.Markdown,
	})
	if err != nil {
		return fmt.Errorf("failed to deliver briefing: %w", err)
	}
	c.logger.Info("Briefing delivered", zap.Strings("to", to), zap.String("date", b.Date))
	return nil
}
