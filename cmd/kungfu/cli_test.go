package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// cliEnv is a config and data directory pair for running commands.
type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	return &cliEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes the CLI with args and stdin, returning stdout and the error.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, "kungfu %s", strings.Join(args, " "))
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestCLI_Init(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "init")
	assert.Contains(t, out, "kungfu initialized successfully")

	_, err := os.Stat(filepath.Join(env.configDir, configFileExt))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.dataDir, "notes.jsonl"))
	assert.NoError(t, err)
}

func TestCLI_Version(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "version")
	assert.Equal(t, "kungfu "+Version+"\n", out)
}

func TestCLI_NotesLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	created := decode[types.Note](t, env.mustRun(t,
		"--url", "http://a", "--title", "Page A", "notes", "add", "T", "C", "--tag", "x"))
	assert.Equal(t, "T", created.Title)
	assert.Equal(t, "http://a", created.URL)
	assert.Equal(t, []string{"x"}, created.Tags)

	env.mustRun(t, "--url", "http://b", "notes", "add", "Other", "body")

	onA := decode[[]types.Note](t, env.mustRun(t, "--url", "http://a", "notes", "list", "--page"))
	require.Len(t, onA, 1)
	assert.Equal(t, created.ID, onA[0].ID)

	updated := decode[types.Note](t, env.mustRun(t, "notes", "update", created.ID, "--content", "new"))
	assert.Equal(t, "new", updated.Content)
	assert.Equal(t, "T", updated.Title)
	assert.Equal(t, created.Timestamp, updated.Timestamp)

	found := decode[[]types.Note](t, env.mustRun(t, "notes", "search", "NEW"))
	require.Len(t, found, 1)

	env.mustRun(t, "notes", "delete", created.ID)
	_, err := env.run(t, "", "notes", "get", created.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))

	all := decode[[]types.Note](t, env.mustRun(t, "notes", "list"))
	assert.Len(t, all, 1)
}

func TestCLI_NotesUpdateErrors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "notes", "update", "missing")
	assert.Equal(t, exitUserError, exitCode(err), "no fields to update")

	_, err = env.run(t, "", "notes", "update", "missing", "--content", "x")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = env.run(t, "", "notes", "add", "only-title")
	assert.Equal(t, exitUserError, exitCode(err), "wrong argument count")
}

func TestCLI_Screenshots(t *testing.T) {
	env := newCLIEnv(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 7, 3))))
	pngPath := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(pngPath, buf.Bytes(), 0o644))

	full := decode[shotInfo](t, env.mustRun(t, "--url", "http://a", "screenshots", "add", pngPath))
	assert.Equal(t, types.ScreenshotFull, full.Type)
	assert.Equal(t, &types.Dimensions{Width: 7, Height: 3}, full.Dimensions)

	area := decode[shotInfo](t, env.mustRun(t, "--url", "http://a", "screenshots", "add", pngPath,
		"--area", "--width", "100", "--height", "50"))
	assert.Equal(t, types.ScreenshotArea, area.Type)

	onlyArea := decode[[]shotInfo](t, env.mustRun(t, "screenshots", "list", "--type", "area"))
	require.Len(t, onlyArea, 1)
	assert.Equal(t, area.ID, onlyArea[0].ID)

	outDir := t.TempDir()
	out := env.mustRun(t, "screenshots", "get", full.ID, "--out", outDir)
	written, err := os.ReadFile(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), written)

	_, err = env.run(t, "", "screenshots", "list", "--type", "window")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCLI_Transcribe(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "hello there\n\ngeneral kenobi\n", "--url", "http://a", "transcribe", "--lang", "en-GB")
	require.NoError(t, err)
	rec := decode[types.Transcription](t, out)
	assert.Equal(t, "hello there general kenobi", rec.Text)
	assert.False(t, rec.IsLive)

	list := decode[[]types.Transcription](t, env.mustRun(t, "--url", "http://a", "transcriptions", "list", "--page"))
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
}

func TestCLI_Summaries(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "--url", "http://a", "summaries", "current")
	assert.ErrorIs(t, err, types.ErrNotFound)

	env.mustRun(t, "--url", "http://a", "summaries", "add", "older")
	out, err := env.run(t, "newer from stdin\n", "--url", "http://a", "summaries", "add", "-")
	require.NoError(t, err)
	newer := decode[types.Summary](t, out)
	assert.Equal(t, "newer from stdin", newer.Summary)

	current := decode[types.Summary](t, env.mustRun(t, "--url", "http://a", "summaries", "current"))
	assert.Equal(t, newer.ID, current.ID)
}

func TestCLI_Settings(t *testing.T) {
	env := newCLIEnv(t)

	got := decode[types.Settings](t, env.mustRun(t, "settings", "get"))
	assert.Equal(t, types.DefaultSettings(), got)

	got = decode[types.Settings](t, env.mustRun(t, "settings", "set", "--theme", "dark"))
	assert.Equal(t, "dark", got.Theme)
	assert.Equal(t, "en-US", got.TranscriptionLanguage)

	got = decode[types.Settings](t, env.mustRun(t, "settings", "set", "--auto-summary"))
	assert.True(t, got.AutoSummary)
	assert.Equal(t, "dark", got.Theme)

	_, err := env.run(t, "", "settings", "set", "--theme", "neon")
	assert.ErrorIs(t, err, types.ErrInvalidTheme)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCLI_ExportImportClear(t *testing.T) {
	src := newCLIEnv(t)
	src.mustRun(t, "--url", "http://a", "notes", "add", "T", "C")
	src.mustRun(t, "--url", "http://a", "summaries", "add", "S")
	src.mustRun(t, "settings", "set", "--language", "de-DE")

	exportPath := filepath.Join(t.TempDir(), "backup.json")
	src.mustRun(t, "export", "--out", exportPath)

	dst := newCLIEnv(t)
	out := dst.mustRun(t, "import", exportPath)
	report := decode[map[string]any](t, out)
	assert.Equal(t, map[string]any{"notes": float64(1), "summaries": float64(1)}, report["imported"])
	assert.Equal(t, true, report["settings"])

	assert.Equal(t, src.mustRun(t, "export"), dst.mustRun(t, "export"))

	_, err := dst.run(t, "", "clear")
	assert.Equal(t, exitUserError, exitCode(err), "clear needs --yes")

	dst.mustRun(t, "clear", "--yes")
	doc := decode[types.ExportDocument](t, dst.mustRun(t, "export"))
	assert.Empty(t, doc.Notes)
	assert.Empty(t, doc.Summaries)
	assert.Equal(t, types.DefaultSettings(), *doc.Settings)
}

func TestCLI_ImportFormatError(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "not json", "import", "-")
	assert.ErrorIs(t, err, types.ErrFormat)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCLI_ConfigFile(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	custom := filepath.Join(t.TempDir(), "from-config")
	yaml := fmt.Sprintf("backend: sqlite\ndata_dir: %s\nsync_strategy: on_close\n", custom)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, configFileExt), []byte(yaml), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config-dir", env.configDir, "notes", "add", "T", "C"})
	require.NoError(t, cmd.Execute())

	lines, err := os.ReadFile(filepath.Join(custom, "notes.jsonl"))
	require.NoError(t, err)
	assert.NotEmpty(t, lines, "on_close flushes at detach")
}

func TestCLI_BadConfig(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, configFileExt),
		[]byte("backend: postgres\n"), 0o644))

	_, err := env.run(t, "", "notes", "list")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitSuccess},
		{usageErrorf("bad flag"), exitUserError},
		{fmt.Errorf("get: %w", types.ErrNotFound), exitUserError},
		{fmt.Errorf("import: %w", types.ErrFormat), exitUserError},
		{types.ErrStoreDetached, exitSysError},
		{errors.New("disk on fire"), exitSysError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}
