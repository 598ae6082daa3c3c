package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/plistreader/pkg/manifest"
	"github.com/twinfer/plistreader/testutil"
)

func runCLI(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func sampleIPA(t *testing.T) string {
	t.Helper()
	return testutil.WriteZip(t, "app.ipa",
		testutil.ZipEntry{Name: "Payload/"},
		testutil.ZipEntry{Name: "Payload/App.app/Info.plist", Data: testutil.MustBinaryPlist(map[string]any{
			"CFBundleName": "App",
		})},
		testutil.ZipEntry{Name: "Payload/App.app/Bad.plist", Data: []byte("corrupt")},
	)
}

func TestDecodeArchive(t *testing.T) {
	out, errOut, err := runCLI(t, nil, "--filter", `entry.name == "Info.plist"`, sampleIPA(t))
	require.NoError(t, err)
	assert.Contains(t, out, "==> Payload/App.app/Info.plist <==")
	assert.Contains(t, out, `"CFBundleName": "App"`)
	assert.Contains(t, errOut, "decoded 1 of 1 documents")
}

func TestFailedDocumentsSetExitStatus(t *testing.T) {
	out, errOut, err := runCLI(t, nil, sampleIPA(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 document(s) failed")
	assert.Contains(t, out, "CFBundleName")
	assert.Contains(t, errOut, "Payload/App.app/Bad.plist:")
	assert.Contains(t, errOut, "decoded 1 of 2 documents")
}

func TestDecodeRawDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Info.plist")
	require.NoError(t, os.WriteFile(path, testutil.MustBinaryPlist(map[string]any{"Key": "Value"}), 0o644))

	out, _, err := runCLI(t, nil, "--format", "yaml", path)
	require.NoError(t, err)
	assert.Equal(t, "Key: Value\n", out)
}

func TestDecodeFromStdin(t *testing.T) {
	out, _, err := runCLI(t, testutil.MustBinaryPlist("hello"), "-q", `doc + " world"`, "-")
	require.NoError(t, err)
	assert.Equal(t, "\"hello world\"\n", out)
}

func TestMultipleInputsGetHeaders(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.plist")
	b := filepath.Join(dir, "b.plist")
	require.NoError(t, os.WriteFile(a, testutil.MustBinaryPlist(1), 0o644))
	require.NoError(t, os.WriteFile(b, testutil.MustBinaryPlist(2), 0o644))

	out, _, err := runCLI(t, nil, a, b)
	require.NoError(t, err)
	assert.Equal(t, "==> "+a+" <==\n1\n==> "+b+" <==\n2\n", out)
}

func TestFatalErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.ipa")
	_, _, err := runCLI(t, nil, missing)
	assert.ErrorIs(t, err, manifest.ErrMissingFile)

	empty := testutil.WriteZip(t, "empty.zip", testutil.ZipEntry{Name: "readme.txt", Data: []byte("hi")})
	_, _, err = runCLI(t, nil, empty)
	assert.ErrorIs(t, err, manifest.ErrNoEntries)

	_, _, err = runCLI(t, nil)
	assert.Error(t, err)
}

func TestConfigFileAndFlagOverrides(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "plistreader.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: xml\nfilter: entry.name == \"Info.plist\"\n"), 0o644))
	archive := sampleIPA(t)

	out, _, err := runCLI(t, nil, "--config", cfgPath, archive)
	require.NoError(t, err)
	assert.Contains(t, out, "<key>CFBundleName</key>")

	out, _, err = runCLI(t, nil, "--config", cfgPath, "--format", "json", archive)
	require.NoError(t, err)
	assert.Contains(t, out, `"CFBundleName": "App"`)
	assert.False(t, strings.Contains(out, "<plist"))

	_, _, err = runCLI(t, nil, "--format", "toml", archive)
	assert.Error(t, err)
}
