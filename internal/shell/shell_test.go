package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreshell/gosh/internal/variables"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	sh, err := New(Options{
		NoRC:     true,
		HistFile: filepath.Join(t.TempDir(), "history"),
		Stdin:    bytes.NewReader(nil),
		Stdout:   &out,
		Stderr:   &out,
	})
	require.NoError(t, err)
	return sh, &out
}

func TestRunStringEchoesOutput(t *testing.T) {
	sh, out := newTestShell(t)
	code, err := sh.RunString("echo hello", nil)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "hello\n", out.String())
}

func TestRunStringExitPropagatesStatus(t *testing.T) {
	sh, _ := newTestShell(t)
	code, err := sh.RunString("exit 7", nil)
	require.NoError(t, err)
	require.Equal(t, 7, code)
}

func TestRunStringRecordsHistory(t *testing.T) {
	sh, _ := newTestShell(t)
	_, err := sh.RunString("echo one", nil)
	require.NoError(t, err)
	require.Equal(t, 1, sh.it.History.Len())
	entries := sh.it.History.Entries()
	require.Equal(t, "echo one", entries[0].Command)
}

func TestRunFileSetsPositionalParameters(t *testing.T) {
	sh, out := newTestShell(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sh")
	require.NoError(t, os.WriteFile(path, []byte("echo $1 $2\n"), 0o644))

	code, err := sh.RunFile(path, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "a b\n", out.String())
}

func TestSaveAndLoadHistoryRoundTrip(t *testing.T) {
	histPath := filepath.Join(t.TempDir(), "history")
	sh, err := New(Options{NoRC: true, HistFile: histPath, Stdin: bytes.NewReader(nil)})
	require.NoError(t, err)
	_, err = sh.RunString("echo one", nil)
	require.NoError(t, err)
	_, err = sh.RunString("echo two", nil)
	require.NoError(t, err)
	require.NoError(t, sh.SaveHistory())

	sh2, err := New(Options{NoRC: true, HistFile: histPath, Stdin: bytes.NewReader(nil)})
	require.NoError(t, err)
	require.Equal(t, 2, sh2.it.History.Len())
}

func TestSeedEnvironmentExportsProcessEnv(t *testing.T) {
	t.Setenv("GOSH_TEST_VAR", "present")
	sh, _ := newTestShell(t)
	v, ok := sh.it.Env.Get("GOSH_TEST_VAR", variables.Anywhere)
	require.True(t, ok)
	require.True(t, v.Attrs.Exported)
	require.Equal(t, "present", v.Value.Str)
}

func TestFormatPromptStringEscapes(t *testing.T) {
	sh, _ := newTestShell(t)
	got := sh.formatPromptString(`\$ `)
	require.True(t, got == "$ " || got == "# ")
}

func TestApplyProfileSetsOptionsAndAliases(t *testing.T) {
	sh, _ := newTestShell(t)
	sh.applyProfile(&Profile{
		SetOptions: map[string]bool{"errexit": true},
		Aliases:    map[string]string{"ll": "ls -l"},
	})
	sh.it.SyncOptions()
	require.True(t, sh.it.Opt.Errexit)
	require.Equal(t, "ls -l", sh.it.Aliases["ll"])
}
