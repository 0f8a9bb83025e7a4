package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTextProcessor(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"single line folds", tp.SingleLine, "Weekly\r\n  digest\t#12 ", "Weekly digest #12"},
		{"invalid utf8 dropped", tp.SanitizeUTF8, "caf\xc3\x28e", "caf(e"},
		{"valid utf8 untouched", tp.SanitizeUTF8, "Grüße", "Grüße"},
		{"short text untouched", func(s string) string { return Truncate(s, 10) }, "hello", "hello"},
		{"truncate on runes", func(s string) string { return Truncate(s, 4) }, "Grüße aus Berlin", "Grüß"},
		{"no limit", func(s string) string { return Truncate(s, 0) }, "hello world", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.in))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}
