package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	renderBackend, renderFile, renderTicks, renderOut, renderStrict = "", "", 300, "-", false
	itemsPage, itemsPageSize = 1, 20
	configForce = false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml"), "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

const chainYAML = `
nodes:
  - {id: A, title: Alpha, type: Topic}
  - {id: B, title: Beta, type: Thought}
  - {id: C, title: "Gamma & Delta", type: Quote}
links:
  - {source: A, target: B}
  - {source: B, target: C}
`

func TestRenderFromFile(t *testing.T) {
	in := writeTemp(t, "chain.yaml", chainYAML)
	out := filepath.Join(t.TempDir(), "chain.svg")

	_, stderr, err := run(t, "render", "--file", in, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "3 nodes, 2 links (0 dropped)")

	svg, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), "<svg"))
	assert.Equal(t, 3, strings.Count(string(svg), "<circle"))
	assert.Contains(t, string(svg), "Gamma &amp; Delta")
}

func TestRenderToStdout(t *testing.T) {
	in := writeTemp(t, "chain.yaml", chainYAML)
	stdout, _, err := run(t, "render", "--file", in, "--ticks", "5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<svg")
}

func TestRenderEmptyGraph(t *testing.T) {
	in := writeTemp(t, "empty.json", `{"nodes":[],"links":[]}`)
	out := filepath.Join(t.TempDir(), "empty.svg")

	_, stderr, err := run(t, "render", "--file", in, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "nothing to render")
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRenderMissingLinks(t *testing.T) {
	in := writeTemp(t, "bad.json", `{"nodes":[{"id":"a","type":"Topic"}]}`)
	_, _, err := run(t, "render", "--file", in)
	assert.ErrorIs(t, err, graph.ErrInvalidPayload)
}

func TestRenderDanglingLinks(t *testing.T) {
	in := writeTemp(t, "dangling.json",
		`{"nodes":[{"id":"a","type":"Topic"}],"links":[{"source":"a","target":"ghost"}]}`)

	_, stderr, err := run(t, "render", "--file", in, "--out", filepath.Join(t.TempDir(), "g.svg"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "(1 dropped)")

	_, _, err = run(t, "render", "--file", in, "--strict")
	assert.ErrorIs(t, err, graph.ErrDanglingLink)
}

func TestImportAndItems(t *testing.T) {
	t.Setenv("THOUGHTGRAPH_DB", filepath.Join(t.TempDir(), "tg.db"))
	seed := writeTemp(t, "seed.yaml", `
items:
  - {id: stoa, type: Topic, title: Stoicism}
  - {id: q1, type: Quote, title: The obstacle is the way, tags: [action]}
relations:
  - {source: q1, target: stoa}
`)

	stdout, _, err := run(t, "import", seed)
	require.NoError(t, err)
	assert.Contains(t, stdout, "imported 2 items, 1 relations")

	stdout, _, err = run(t, "items", "quotes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "The obstacle is the way")
	assert.NotContains(t, stdout, "Stoicism")
	assert.Contains(t, stdout, "page 1, 1 of 1 items")

	stdout, _, err = run(t, "items", "passages")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no items")

	_, _, err = run(t, "items", "essays")
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]graph.Kind{
		"topics":   graph.KindTopic,
		"Thought":  graph.KindThought,
		"quote":    graph.KindQuote,
		"PASSAGES": graph.KindPassage,
	} {
		got, err := parseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "thoughtgraph dev")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.toml")

	stdout, _, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "link_policy")

	_, _, err = run(t, "--config", path, "config", "init")
	assert.Error(t, err, "refuses to overwrite")

	stdout, _, err = run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "port = 8000")
}
