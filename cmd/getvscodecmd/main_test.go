package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	logger := newLogger(&errOut)
	cmd := newRootCmd(logger)
	// A nil slice makes cobra fall back to os.Args (the test binary's flags).
	cmd.SetArgs(append([]string{}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	code = execute(cmd, logger)
	return code, out.String(), errOut.String()
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vscode_output")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRoot_extracts(t *testing.T) {
	path := writeLog(t, "-> (C) {\"seq\":1}\n-> (C) {\"seq\":2}\nsome unrelated log text\n")
	code, stdout, stderr := run(t, path)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Content-Length: 9\n\n{\"seq\":1}\nContent-Length: 9\n\n{\"seq\":2}\n", stdout)
	assert.Contains(t, stderr, "commands extracted")
	assert.Contains(t, stderr, "commands=2")
}

func TestRoot_emptyFile(t *testing.T) {
	code, stdout, _ := run(t, writeLog(t, ""))
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
}

func TestRoot_missingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	code, stdout, stderr := run(t, path)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "cannot read input file")
	assert.Contains(t, stderr, path)
}

func TestRoot_dashPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "-x.log"), []byte("-> (C) {\"seq\":1}\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	code, stdout, _ := run(t, "-x.log")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Content-Length: 9\n\n{\"seq\":1}\n", stdout)

	code, stdout, _ = run(t, "--", "-x.log")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Content-Length: 9\n\n{\"seq\":1}\n", stdout)
}

func TestRoot_help(t *testing.T) {
	code, stdout, _ := run(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "getvscodecmd <vscode-output-log>")
}

func TestRoot_arity(t *testing.T) {
	code, _, stderr := run(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "accepts 1 arg(s), received 0")

	code, _, _ = run(t, "a", "b")
	assert.Equal(t, 1, code)
}
