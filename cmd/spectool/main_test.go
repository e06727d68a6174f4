package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := (&app{}).rootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeTKA(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("10\n12\n0\n5\n0\n7\n"), 0o644))
	return path
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	tka := writeTKA(t, dir, "run1.tka")

	_, err := run(t, "convert", "--format", "spe", "--out", out, tka)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(out, "run1.spe"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "$MEAS_TIM:\n10 12")
	assert.Contains(t, string(b), "$DATA:")
}

func TestConvertReportsEveryFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	tka := writeTKA(t, dir, "good.tka")
	bad := filepath.Join(dir, "bad.xyz")
	missing := filepath.Join(dir, "missing.tka")
	require.NoError(t, os.WriteFile(bad, []byte("1"), 0o644))

	_, err := run(t, "convert", "--format", "tka", "--out", out, bad, tka, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.xyz")
	assert.Contains(t, err.Error(), "missing.tka")
	assert.FileExists(t, filepath.Join(out, "good.tka"))
}

func TestConvertRequiresFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "convert", writeTKA(t, dir, "a.tka"))
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "info", "--data", writeTKA(t, dir, "run1.tka"))
	require.NoError(t, err)
	assert.Contains(t, out, "type:        1D")
	assert.Contains(t, out, "name:        run1")
	assert.Contains(t, out, "total hits:  12")
	assert.Contains(t, out, "[1]\t5")
	assert.Contains(t, out, "[3]\t7")
}

func TestH5ExportListTree(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.h5")
	_, err := run(t, "h5", "export", archive, writeTKA(t, dir, "run1.tka"), writeTKA(t, dir, "run2.tka"))
	require.NoError(t, err)

	out, err := run(t, "h5", "list", "--data", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "name:        run1")
	assert.Contains(t, out, "name:        run2")
	assert.Contains(t, out, "total hits:  12")
	assert.Contains(t, out, "[3]\t7")

	out, err = run(t, "h5", "tree", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "group /spectra/run1")
	assert.Contains(t, out, "dataset /spectra/run1/data/counts")
	assert.Contains(t, out, "@json")
}

func TestH5ExportRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	tka := writeTKA(t, dir, "run1.tka")
	_, err := run(t, "h5", "export", filepath.Join(dir, "archive.h5"), tka, tka)
	assert.ErrorContains(t, err, "already exported")
}

func TestLoadStore(t *testing.T) {
	dir := t.TempDir()
	tka := writeTKA(t, dir, "run1.tka")
	archive := filepath.Join(dir, "archive.h5")
	_, err := run(t, "h5", "export", archive, tka)
	require.NoError(t, err)

	a := &app{envFile: filepath.Join(dir, "missing.env")}
	require.NoError(t, a.setup())
	store, err := a.loadStore([]string{tka, archive})
	require.NoError(t, err)
	assert.Len(t, store.List(), 2)
}
