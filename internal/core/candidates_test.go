package core

import (
	"testing"

	"github.com/mikey/clawtools/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidatePolicy() *rules.Policy {
	p := rules.NewPolicy()
	p.Allow.Domains = []string{"letters.test"}
	p.Allow.Addresses = []string{"star@letters.test"}
	p.Block.Domains = []string{"spam.test"}
	p.Signals.SubjectKeywords = []string{"digest"}
	p.Thresholds.MinPropose = 25
	p.Normalize()
	return p
}

func TestBuildCandidatesOrderAndFilter(t *testing.T) {
	envs := []Envelope{
		{ID: "1", Date: "2026-10-18 09:00", From: Address{Addr: "a@letters.test"}, Subject: "Hello"},      // 65
		{ID: "2", Date: "2026-10-19 09:00", From: Address{Addr: "b@letters.test"}, Subject: "Hi"},         // 65, newer
		{ID: "3", Date: "2026-10-19 10:00", From: Address{Addr: "star@letters.test"}, Subject: "Digest"},  // 95+15=100
		{ID: "4", Date: "2026-10-19 11:00", From: Address{Addr: "x@spam.test"}, Subject: "digest"},        // blocked
		{ID: "5", Date: "2026-10-19 12:00", From: Address{Addr: "news@substack.com"}, Subject: "digest"},  // 25
		{ID: "6", Date: "2026-10-19 13:00", From: Address{Addr: "person@home.test"}, Subject: "dinner?"}, // 0
	}

	got := BuildCandidates(envs, candidatePolicy(), 10)
	ids := make([]MessageID, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []MessageID{"5", "2", "1", "3"}, ids)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Confidence, got[i].Confidence)
	}
	assert.Equal(t, "news@substack", got[0].Sender)
	assert.Equal(t, []string{ReasonSubjectSignal, ReasonNewsletterPlatform}, got[0].Reasons)
}

func TestBuildCandidatesKeepsHighestWhenCapped(t *testing.T) {
	envs := []Envelope{
		{ID: "1", Date: "2026-10-19", From: Address{Addr: "star@letters.test"}, Subject: "x"},
		{ID: "2", Date: "2026-10-19", From: Address{Addr: "news@substack.com"}, Subject: "digest"},
		{ID: "3", Date: "2026-10-19", From: Address{Addr: "a@letters.test"}, Subject: "x"},
	}

	got := BuildCandidates(envs, candidatePolicy(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, MessageID("3"), got[0].ID)
	assert.Equal(t, MessageID("1"), got[1].ID)
}

func TestBuildCandidatesThreshold(t *testing.T) {
	p := candidatePolicy()
	p.Thresholds.MinPropose = 26
	envs := []Envelope{{ID: "1", From: Address{Addr: "news@substack.com"}, Subject: "Weekly digest"}}

	assert.Empty(t, BuildCandidates(envs, p, 10))

	p.Thresholds.MinPropose = 25
	assert.Len(t, BuildCandidates(envs, p, 10), 1)
}

func TestBuildCandidatesZeroMax(t *testing.T) {
	envs := []Envelope{{ID: "1", From: Address{Addr: "star@letters.test"}}}
	got := BuildCandidates(envs, candidatePolicy(), 0)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSenderShort(t *testing.T) {
	tests := []struct {
		from Address
		want string
	}{
		{Address{Addr: "News@Substack.com"}, "news@substack"},
		{Address{Addr: "hi@mail.beehiiv.com"}, "hi@beehiiv"},
		{Address{Addr: "marius@news.peec.ai"}, "marius@peec.ai"},
		{Address{Addr: "root@localhost"}, "root@localhost"},
		{Address{Addr: "a@b@c.test"}, "a@b@c.test"},
		{Address{Addr: "plain"}, "plain"},
		{Address{Name: " The Letter "}, "the letter"},
		{Address{}, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SenderShort(tt.from), tt.from)
	}
}
