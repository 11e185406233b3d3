package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input, "---")
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nkey: value\n---\n# Title\n"), "---")
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_TOMLDelimiter(t *testing.T) {
	fm, body, had, err := Split([]byte("+++\ntitle = \"x\"\n+++\nbody"), TOML.Delimiter())
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title = \"x\"\n"), fm)
	require.Equal(t, []byte("body"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nkey: value\n---"), "---")
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Empty(t, body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"), "---")
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"), "---")
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"), "---")
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestParse(t *testing.T) {
	fields, err := Parse(YAML, []byte("title: Hello\ntags: [a, b]\n"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "Hello", "tags": []any{"a", "b"}}, fields)

	fields, err = Parse(TOML, []byte("title = \"Hello\"\ndraft = true\n"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "Hello", "draft": true}, fields)

	fields, err = Parse(JSON, []byte(`{"title": "Hello"}`))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "Hello"}, fields)

	fields, err = Parse(YAML, []byte("\n"))
	require.NoError(t, err)
	require.Empty(t, fields)

	_, err = Parse(YAML, []byte("title: [unclosed\n"))
	require.Error(t, err)

	_, err = Parse(Format("ini"), []byte("a=1"))
	require.Error(t, err)
}

func TestSerializeYAML_SortsKeys(t *testing.T) {
	out, err := SerializeYAML(map[string]any{
		"title":  "Hello",
		"author": map[string]any{"z": 1, "a": true},
		"tags":   []string{"x"},
	})
	require.NoError(t, err)
	require.Equal(t, "author:\n  a: true\n  z: 1\ntags:\n  - x\ntitle: Hello\n", string(out))

	out, err = SerializeYAML(map[string]any{"published": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})
	require.NoError(t, err)
	require.Contains(t, string(out), "2024-01-02T03:04:05Z")

	out, err = SerializeYAML(nil)
	require.NoError(t, err)
	require.Empty(t, out)

	_, err = SerializeYAML(map[string]any{"bad": struct{}{}})
	require.Error(t, err)
}
