package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/vtree/internal/config"
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/vtest"
)

// project writes a config and the given files into a temp dir.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "log:\n  level: warn\nsnapshot:\n  dir: snaps\n"
	if err := os.WriteFile(filepath.Join(dir, "vtree.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// run executes the CLI with args and returns stdout, stderr and the error.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&cli{})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color", "--config", filepath.Join(dir, "vtree.yaml")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func codeOf(err error) string {
	var ve *errors.VtreeError
	if stderrors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

func TestRender(t *testing.T) {
	dir := project(t, map[string]string{
		"a.html": `<div class="a"><p>hi</p></div>`,
		"b.html": `<div class="b"><p>hi</p><p>there</p></div>`,
	})

	out, _, err := run(t, dir, "render", filepath.Join(dir, "a.html"))
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got, want := strings.TrimSpace(out), `<div class="a"><p>hi</p></div>`; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	out, stderr, err := run(t, dir, "render", "--stats", "--outer",
		filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html"))
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got, want := strings.TrimSpace(out), `<body><div class="b"><p>hi</p><p>there</p></div></body>`; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	for _, want := range []string{"pass 1", "pass 2", "total:"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stats missing %q:\n%s", want, stderr)
		}
	}
}

func TestRenderOutputAndSnapshot(t *testing.T) {
	dir := project(t, map[string]string{
		"page.html": "<div>\n  <p>  spaced   out </p>\n</div>",
	})
	outFile := filepath.Join(dir, "out.html")

	_, stderr, err := run(t, dir, "render", "--minify", "-o", outFile, "--snapshot", "home",
		filepath.Join(dir, "page.html"))
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(stderr, "Saved snapshot home") {
		t.Errorf("stderr = %q, want snapshot confirmation", stderr)
	}

	written, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}

	store, err := snapshot.NewDiskStore(filepath.Join(dir, "snaps"), 0)
	if err != nil {
		t.Fatal(err)
	}
	rc, info, err := store.Load(context.Background(), "home")
	if err != nil {
		t.Fatalf("snapshot not saved: %v", err)
	}
	defer rc.Close()
	saved, _ := io.ReadAll(rc)
	if !bytes.Equal(saved, written) {
		t.Errorf("snapshot = %q, want %q", saved, written)
	}
	if info.Size != int64(len(written)) {
		t.Errorf("Size = %d, want %d", info.Size, len(written))
	}
}

func TestRenderErrors(t *testing.T) {
	dir := project(t, map[string]string{
		"two.html":   `<p>a</p><p>b</p>`,
		"empty.html": `just text`,
	})

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no files", []string{"render"}, "X001"},
		{"missing file", []string{"render", filepath.Join(dir, "nope.html")}, "X002"},
		{"multiple roots", []string{"render", filepath.Join(dir, "two.html")}, "M003"},
		{"no elements", []string{"render", filepath.Join(dir, "empty.html")}, "M002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, dir, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := codeOf(err); code != tt.code {
				t.Errorf("code = %q, want %q (%v)", code, tt.code, err)
			}
		})
	}
}

func TestRenderInvalidSnapshotName(t *testing.T) {
	dir := project(t, map[string]string{"p.html": `<p>x</p>`})
	_, _, err := run(t, dir, "render", "--snapshot", "../x", filepath.Join(dir, "p.html"))
	if code := codeOf(err); code != "S003" {
		t.Errorf("code = %q, want S003 (%v)", code, err)
	}
}

func TestDiff(t *testing.T) {
	dir := project(t, map[string]string{
		"a.html": `<div class="a"><p>hi</p></div>`,
		"b.html": `<div class="b"><p>hi</p></div>`,
	})
	a, b := filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html")

	out, _, err := run(t, dir, "diff", a, b)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != `SetClass #2 "b"` {
		t.Errorf("first line = %q, want %q", lines[0], `SetClass #2 "b"`)
	}
	if last := lines[len(lines)-1]; last != "1 mutations, SetClass 1" {
		t.Errorf("summary = %q", last)
	}

	out, _, err = run(t, dir, "diff", a, a)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "0 mutations" {
		t.Errorf("identical diff = %q, want 0 mutations", out)
	}

	out, _, err = run(t, dir, "diff", "--format", "json", a, b)
	if err != nil {
		t.Fatal(err)
	}
	var muts []diffMutation
	if err := json.Unmarshal([]byte(out), &muts); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(muts) != 1 || muts[0].Op != "SetClass" || muts[0].Value != "b" || muts[0].Node != 2 {
		t.Errorf("muts = %+v", muts)
	}
}

func TestDiffErrors(t *testing.T) {
	dir := project(t, map[string]string{"a.html": `<p>a</p>`})
	a := filepath.Join(dir, "a.html")

	if _, _, err := run(t, dir, "diff", a); codeOf(err) != "X001" {
		t.Errorf("one arg: err = %v, want X001", err)
	}
	if _, _, err := run(t, dir, "diff", "--format", "xml", a, a); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "vtree.yaml")
	os.WriteFile(bad, []byte("log:\n  level: loud\n"), 0644)

	cmd := newRootCmd(&cli{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", bad, "render", "x.html"})
	if err := cmd.Execute(); codeOf(err) != "C004" {
		t.Errorf("err = %v, want C004", err)
	}

	// Flags override the file before validation.
	cmd = newRootCmd(&cli{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", bad, "--log-level", "debug", "render"})
	if err := cmd.Execute(); codeOf(err) != "X001" {
		t.Errorf("err = %v, want X001", err)
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&cli{})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("version = %q, want %q", out.String(), version)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record logged at warn level")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("not JSON: %v: %q", err, out)
	}
	if rec["msg"] != "shown" {
		t.Errorf("msg = %v, want shown", rec["msg"])
	}
}

func TestPagesApp(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one.html")
	two := filepath.Join(dir, "two.html")
	os.WriteFile(one, []byte(`<main><h1>One</h1></main>`), 0644)
	os.WriteFile(two, []byte(`<main><h1>Two</h1></main>`), 0644)

	pages, err := loadPages([]string{one, two}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	h := vtest.New(t, pagesApp(pages)(nil))
	h.ExpectHTML(`<main><h1>One</h1></main>`)

	h.Click(h.Find("main"))
	h.ExpectHTML(`<main><h1>Two</h1></main>`)

	// Edits show up; broken edits keep the last good page.
	os.WriteFile(one, []byte(`<main><h1>Uno</h1></main>`), 0644)
	h.Click(h.Find("main"))
	h.ExpectHTML(`<main><h1>Uno</h1></main>`)

	os.WriteFile(one, []byte(`<p>a</p><p>b</p>`), 0644)
	h.Render()
	h.ExpectHTML(`<main><h1>Uno</h1></main>`)
}

func TestLoadPagesErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := loadPages(nil, logger); codeOf(err) != "X001" {
		t.Errorf("err = %v, want X001", err)
	}
	if _, err := loadPages([]string{filepath.Join(t.TempDir(), "none.html")}, logger); codeOf(err) != "X002" {
		t.Errorf("err = %v, want X002", err)
	}
}

func TestNewServer(t *testing.T) {
	dir := project(t, map[string]string{"p.html": `<p>x</p>`})
	c := &cli{configPath: filepath.Join(dir, "vtree.yaml")}
	if err := c.setup(io.Discard); err != nil {
		t.Fatal(err)
	}
	c.cfg.Server.MaxSessions = 7

	pages, err := loadPages([]string{filepath.Join(dir, "p.html")}, c.logger)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := c.newServer(pages)
	if err != nil {
		t.Fatal(err)
	}
	if srv.Config().MaxSessions != 7 {
		t.Errorf("MaxSessions = %d, want 7", srv.Config().MaxSessions)
	}
	if srv.Config().ReadTimeout != c.cfg.ReadTimeout() {
		t.Errorf("ReadTimeout = %v, want %v", srv.Config().ReadTimeout, c.cfg.ReadTimeout())
	}
}
