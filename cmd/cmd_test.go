package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/tagmig/catalog"
	"github.com/gnolang/tagmig/internal/config"
	"github.com/gnolang/tagmig/migrate"
	"github.com/gnolang/tagmig/rewrite"
)

func init() {
	color.NoColor = true
}

func testSession(t *testing.T, cfg *config.Config) *session {
	t.Helper()
	sess, err := newSession(cfg, zap.NewNop())
	require.NoError(t, err)
	return sess
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunConvertSingleFileToStdout(t *testing.T) {
	t.Parallel()
	in := filepath.Join(t.TempDir(), "page.jsp")
	writeTestFile(t, in, `<bean:write name="user"/>`)

	cfg := config.Default()
	sess := testSession(t, &cfg)

	var stdout, stderr bytes.Buffer
	err := runConvert(context.Background(), sess, []string{in}, migrate.Options{Stdout: &stdout}, false, &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, `<c:out value="${user}"/>`, stdout.String())
	assert.Contains(t, stderr.String(), "1 files, 1 changed")
}

func TestRunConvertDirectoryWithMetricsAndJSON(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	metricsFile := filepath.Join(t.TempDir(), "tagmig.prom")
	writeTestFile(t, filepath.Join(root, "a.jsp"), `<html:form action="/a">`)
	writeTestFile(t, filepath.Join(root, "sub", "b.jsp"), `<tiles:insert page="/header.jsp"/>`)

	cfg := config.Default()
	cfg.MetricsFile = metricsFile
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	sess := testSession(t, &cfg)

	var stdout, stderr bytes.Buffer
	opts := migrate.Options{OutDir: outDir, Extensions: cfg.Extensions}
	require.NoError(t, runConvert(context.Background(), sess, []string{root}, opts, true, &stdout, &stderr))

	assert.Contains(t, stdout.String(), `"files": [`)
	assert.Contains(t, stdout.String(), `"changed": 2`)

	converted, err := os.ReadFile(filepath.Join(outDir, "a.jsp"))
	require.NoError(t, err)
	assert.Equal(t, `<form:form action="/a">`, string(converted))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "tagmig_conversions_total 2")
}

func TestRunConvertReportsRuleFailures(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	writeTestFile(t, rules, `
groups:
  - name: broken
    rules:
      - name: bad
        pattern: '('
        replacement: 'x'
      - name: ok
        pattern: 'a'
        replacement: 'b'
`)
	in := filepath.Join(dir, "page.jsp")
	writeTestFile(t, in, "aaa")

	cfg := config.Default()
	cfg.Rules = rules
	sess := testSession(t, &cfg)

	var stdout, stderr bytes.Buffer
	err := runConvert(context.Background(), sess, []string{in}, migrate.Options{Stdout: &stdout}, false, &stdout, &stderr)
	assert.ErrorIs(t, err, errFailures)
	assert.Equal(t, "bbb", stdout.String())
	assert.Contains(t, stderr.String(), "error: broken/bad")
}

func TestRunConvertMissingPath(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	sess := testSession(t, &cfg)

	var stdout, stderr bytes.Buffer
	err := runConvert(context.Background(), sess, []string{filepath.Join(t.TempDir(), "nope")}, migrate.Options{}, false, &stdout, &stderr)
	assert.ErrorIs(t, err, migrate.ErrNotExist)
}

func TestNewSessionBadRules(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Rules = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := newSession(&cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestPrintRules(t *testing.T) {
	t.Parallel()
	c := rewrite.NewCatalog(rewrite.Group{Name: "g", Rules: []rewrite.Rule{
		{Name: "first", Pattern: "a", Replacement: "b"},
		{Pattern: "c", Replacement: "d"},
	}})

	var buf bytes.Buffer
	require.NoError(t, printRules(&buf, c))
	assert.Equal(t, "g (2 rules)\n  first                a\n  2                    c\n", buf.String())
}

func TestExportRulesRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rules.yaml")

	var buf bytes.Buffer
	require.NoError(t, exportRules(&buf, catalog.StrutsToSpring(), path))
	assert.Contains(t, buf.String(), path)

	loaded, err := rewrite.LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, catalog.StrutsToSpring().Fingerprint(), loaded.Fingerprint())
}

func TestRelativeTo(t *testing.T) {
	t.Parallel()
	root := filepath.Join("web", "pages")

	tests := []struct {
		name  string
		roots []string
		path  string
		want  string
	}{
		{"nested", []string{root}, filepath.Join(root, "admin", "a.jsp"), filepath.Join("admin", "a.jsp")},
		{"second root", []string{"other", root}, filepath.Join(root, "b.jsp"), "b.jsp"},
		{"outside", []string{root}, filepath.Join("elsewhere", "c.jsp"), "c.jsp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, relativeTo(tt.roots, tt.path))
		})
	}
}

func TestWatchHandlerMirrorsIntoOutDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	outDir := t.TempDir()
	in := filepath.Join(root, "admin", "page.jsp")
	writeTestFile(t, in, `<html:submit>`)

	cfg := config.Default()
	sess := testSession(t, &cfg)

	var out bytes.Buffer
	watchHandler(sess, []string{root}, outDir, &out)(context.Background(), in)

	converted, err := os.ReadFile(filepath.Join(outDir, "admin", "page.jsp"))
	require.NoError(t, err)
	assert.Equal(t, `<form:button type="submit">`, string(converted))
	assert.True(t, strings.HasPrefix(out.String(), in+": converted"))
}

func TestWatchOutDirInsideRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	outDir := filepath.Join(root, "out")

	cfg := config.Default()
	sess := testSession(t, &cfg)

	var out bytes.Buffer
	w, err := newWatcher(sess, []string{root}, outDir, &out)
	require.NoError(t, err)
	w.SetDelay(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeTestFile(t, filepath.Join(root, "a.jsp"), `<html:submit>`)

	converted := filepath.Join(outDir, "a.jsp")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(converted)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	// give a looping watcher time to pick up its own output
	time.Sleep(200 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	_, err = os.Stat(filepath.Join(outDir, "out", "a.jsp"))
	assert.True(t, os.IsNotExist(err), "output was converted again")
	assert.NotContains(t, out.String(), converted+":")
}

func TestExecuteInitAndRules(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"init"})
	require.NoError(t, Execute())
	assert.Contains(t, out.String(), config.DefaultFile)
	_, err := os.Stat(filepath.Join(dir, config.DefaultFile))
	require.NoError(t, err)

	out.Reset()
	rootCmd.SetArgs([]string{"rules"})
	require.NoError(t, Execute())
	for _, name := range catalog.Names() {
		assert.Contains(t, out.String(), name+" (")
	}
}
