package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wikiforge/wikiparse/pkg/batch"
	"github.com/wikiforge/wikiparse/pkg/wikitext"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(filepath.Join(dir, "missing.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, "mediawiki", cfg.Profile)
	assert.Positive(t, cfg.Workers)

	_, err = loadConfig(filepath.Join(dir, "missing.yaml"), true)
	assert.Error(t, err)

	path := writeTemp(t, dir, "ok.yaml", "profile: wikipedia\nmode: transcluded\nextra_tags: [widget]\nworkers: 2\n")
	cfg, err = loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "wikipedia", cfg.Profile)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"widget"}, cfg.ExtraTags)

	empty := writeTemp(t, dir, "empty.yaml", "")
	cfg, err = loadConfig(empty, true)
	require.NoError(t, err)
	assert.Equal(t, "mediawiki", cfg.Profile)

	bad := writeTemp(t, dir, "bad.yaml", "profile: wikipedia\ncolour: red\n")
	_, err = loadConfig(bad, true)
	assert.Error(t, err)
}

func TestConfigParser(t *testing.T) {
	cfg := defaultConfig()
	cfg.Profile = "wikipedia"
	cfg.Mode = "transcluded"
	cfg.ExtraTags = []string{"widget"}

	p, err := cfg.parser()
	require.NoError(t, err)
	assert.Equal(t, wikitext.ModeTranscluded, p.Mode())

	root := p.Parse("<widget>x</widget><ref>y</ref>")
	assert.Len(t, root.Tags(""), 2)
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(*cliConfig){
		"empty profile": func(c *cliConfig) { c.Profile = " " },
		"bad mode":      func(c *cliConfig) { c.Mode = "sideways" },
		"bad tag":       func(c *cliConfig) { c.ExtraTags = []string{"no space"} },
		"no workers":    func(c *cliConfig) { c.Workers = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := cfg.parser()
			assert.Error(t, err)
		})
	}
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	text := "== A ==\n{{x|y}}<!-- c -->"
	file := writeTemp(t, dir, "page.wiki", text)

	out, err := run(t, "", "parse", "--format", "text", file)
	require.NoError(t, err)
	assert.Equal(t, text, out)

	out, err = run(t, "{{a}}", "parse", "-")
	require.NoError(t, err)
	assert.Equal(t, "Root\n  Template\n    Title\n      Text(\"a\")\n", out)

	out, err = run(t, "{{a}}", "parse", "--format", "xml")
	require.NoError(t, err)
	assert.Contains(t, out, "<template><title>a</title></template>")

	_, err = run(t, "", "parse", "--format", "json")
	assert.ErrorContains(t, err, "format must be one of")
}

func TestTemplatesCommand(t *testing.T) {
	out, err := run(t, "{{infobox|a|name = X}} {{other}}", "templates", "--name", "Infobox")
	require.NoError(t, err)
	assert.Equal(t, "Infobox\n  1 = a\n  name = X\n", out)
}

func TestTagsCommand(t *testing.T) {
	out, err := run(t, `<ref name=x>cite</ref>`, "tags", "--tag", "ref")
	require.NoError(t, err)
	assert.Equal(t, "ref [name=x] \"cite\"\n", out)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.wiki", "{{a}}")
	writeTemp(t, dir, "sub/b.txt", "[[b]]")
	writeTemp(t, dir, "notes.md", "{{ignored}}")

	names, err := checkNames([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.ToSlash(filepath.Join(dir, "a.wiki")),
		filepath.ToSlash(filepath.Join(dir, "sub", "b.txt")),
	}, names)

	out, err := run(t, "", "check", dir, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "all documents round-trip")
	assert.Contains(t, out, "documents 2  skipped 0  bytes 10")
	assert.Contains(t, out, "templates 1  links 1")

	_, err = run(t, "", "check", filepath.Join(dir, "missing.wiki"))
	assert.Error(t, err)
}

func TestCheckCommandLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "ok.wiki", "{{a}}")
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "gone.wiki")))

	out, err := run(t, "", "check", dir)
	assert.ErrorContains(t, err, "0 documents failed the round-trip check, 1 could not be loaded")
	assert.Contains(t, out, "skip "+filepath.ToSlash(filepath.Join(dir, "gone.wiki")))
	assert.Contains(t, out, "1 of 2 documents could not be loaded")
	assert.NotContains(t, out, "all documents round-trip")
}

func TestWriteResults(t *testing.T) {
	var out bytes.Buffer
	results := []batch.Result{
		{Name: "ok", RoundTrip: true, Bytes: 3, FirstDiff: -1},
		{Name: "bad", RoundTrip: false, FirstDiff: 7},
		{Name: "gone", Err: batch.ErrDocumentNotFound{Name: "gone"}, FirstDiff: -1},
	}
	s := writeResults(&out, results, false)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.LoadErrors)
	assert.Contains(t, out.String(), "FAIL bad: output differs at byte 7")
	assert.Contains(t, out.String(), "skip gone: document not found: gone")
	assert.Contains(t, out.String(), "1 of 3 documents failed")
}

func TestRewriteCommand(t *testing.T) {
	dir := t.TempDir()
	page := writeTemp(t, dir, "page.wiki", "{{Cite web|url=old}}\n")
	fix := writeTemp(t, dir, "fix.star", "for t in doc.templates(\"cite web\"):\n    t.set(\"url\", \"new\")\n")

	out, err := run(t, "", "rewrite", "--script", fix, page)
	require.NoError(t, err)
	assert.Equal(t, "{{Cite web|url=new}}\n", out)

	out, err = run(t, "", "rewrite", "--script", fix, "--write", page)
	require.NoError(t, err)
	assert.Empty(t, out)
	content, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Equal(t, "{{Cite web|url=new}}\n", string(content))

	_, err = run(t, "{{a}}", "rewrite", "--script", fix, "--write")
	assert.ErrorContains(t, err, "--write needs a file")
}

func TestProfilesCommand(t *testing.T) {
	out, err := run(t, "", "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "mediawiki\t")
	assert.Contains(t, out, "wikipedia\t")
}

func TestRenderPretty(t *testing.T) {
	dump := "Root\n  Text(\"a\")\n"
	assert.Equal(t, dump, renderPretty(dump, false))
	assert.Contains(t, renderPretty(dump, true), "Root")
}
