package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantFM   string
		wantBody string
	}{
		{"yaml block", "---\nkey: value\n---\n# Title\n", "key: value\n", "# Title\n"},
		{"crlf", "---\r\nkey: value\r\n---\r\n# Title\r\n", "key: value\r\n", "# Title\r\n"},
		{"empty block", "---\n---\n# Title\n", "", "# Title\n"},
		{"closing on last line", "---\nkey: value\n---", "key: value\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, had, err := Split([]byte(tt.input))
			require.NoError(t, err)
			require.True(t, had)
			require.Equal(t, tt.wantFM, string(fm))
			require.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse(t *testing.T) {
	input := []byte("---\ntitle: Install\nlayout: wide\naliases:\n  - setup.md\nattributes:\n  product: Widget\n---\nBody\n")

	meta, body, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "Install", meta.Title)
	require.Equal(t, "wide", meta.Layout)
	require.Equal(t, []string{"setup.md"}, meta.Aliases)
	require.Equal(t, map[string]string{"product": "Widget"}, meta.Attributes)
	require.Equal(t, "Body\n", string(body))
}

func TestParse_InvalidYAML(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: [unclosed\n---\nBody\n"))
	require.Error(t, err)
}

func TestFingerprint_IgnoresAliases(t *testing.T) {
	body := []byte("# Title\n")
	a := Fingerprint([]byte("title: A\n"), body)
	b := Fingerprint([]byte("title: A\naliases:\n  - old.md\n"), body)
	c := Fingerprint([]byte("title: B\n"), body)

	require.NotEmpty(t, a)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.NotEqual(t, a, Fingerprint([]byte("title: A\n"), []byte("# Other\n")))
}
