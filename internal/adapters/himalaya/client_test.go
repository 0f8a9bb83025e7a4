package himalaya

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mikey/clawtools/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	out   string
	err   error
	calls []call
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	return []byte(f.out), f.err
}

func TestListArgs(t *testing.T) {
	tests := []struct {
		name string
		q    core.ListQuery
		want string
	}{
		{
			name: "plain",
			q:    core.ListQuery{Account: "personal", Folder: "INBOX", PageSize: 200},
			want: "envelope list --account personal --folder INBOX --output json --page-size 200 order by date desc",
		},
		{
			name: "by date",
			q:    core.ListQuery{Account: "personal", Folder: "INBOX", PageSize: 200, On: "2026-10-19"},
			want: "envelope list --account personal --folder INBOX --output json --page-size 200 date 2026-10-19 order by date desc",
		},
		{
			name: "unseen",
			q:    core.ListQuery{Account: "personal", Folder: "INBOX", PageSize: 50, Unseen: true},
			want: "envelope list --account personal --folder INBOX --output json --page-size 50 not flag Seen order by date desc",
		},
		{
			name: "both",
			q:    core.ListQuery{Account: "a", Folder: "F", PageSize: 1, On: "2026-10-19", Unseen: true},
			want: "envelope list --account a --folder F --output json --page-size 1 date 2026-10-19 and not flag Seen order by date desc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strings.Join(ListArgs(tt.q), " "))
		})
	}
}

func TestListEnvelopes(t *testing.T) {
	runner := &fakeRunner{out: `[
		{"id":"101","flags":["Seen"],"subject":"Weekly digest","from":{"name":"Letter","addr":"news@substack.com"},"date":"2026-10-19 08:00+00:00"},
		{"id":102,"flags":[],"subject":"Hi","from":null,"date":"2026-10-19 07:00+00:00"}
	]`}
	c := NewClient("", runner, zap.NewNop())

	envs, err := c.ListEnvelopes(context.Background(), core.ListQuery{Account: "a", Folder: "INBOX", PageSize: 10})
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "himalaya", runner.calls[0].name)
	require.Len(t, envs, 2)
	assert.Equal(t, core.MessageID("101"), envs[0].ID)
	assert.Equal(t, "news@substack.com", envs[0].From.Addr)
	assert.True(t, envs[0].Seen())
	assert.Equal(t, core.MessageID("102"), envs[1].ID)
	assert.Empty(t, envs[1].From.Addr)
	assert.False(t, envs[1].Seen())
}

func TestListEnvelopesErrors(t *testing.T) {
	c := NewClient("hx", &fakeRunner{out: "not json"}, zap.NewNop())
	_, err := c.ListEnvelopes(context.Background(), core.ListQuery{})
	assert.Error(t, err)

	boom := errors.New("exit status 1")
	c = NewClient("hx", &fakeRunner{err: boom}, zap.NewNop())
	_, err = c.ListEnvelopes(context.Background(), core.ListQuery{})
	assert.True(t, errors.Is(err, boom))
}

func TestMoveMessages(t *testing.T) {
	runner := &fakeRunner{}
	c := NewClient("/usr/local/bin/himalaya", runner, zap.NewNop())

	err := c.MoveMessages(context.Background(), core.MoveRequest{
		Account: "personal", SourceFolder: "INBOX", TargetFolder: "Reading",
		IDs: []core.MessageID{"12", "13"},
	})
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/usr/local/bin/himalaya", runner.calls[0].name)
	assert.Equal(t, "message move --account personal --folder INBOX Reading 12 13", strings.Join(runner.calls[0].args, " "))

	require.NoError(t, c.MoveMessages(context.Background(), core.MoveRequest{}))
	assert.Len(t, runner.calls, 1)
}
