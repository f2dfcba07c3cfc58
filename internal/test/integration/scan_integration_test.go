package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotscan/internal/cli"
)

// createProject lays out a small package tree with one overlap, one bad
// inheritance, one syntax error and a tests subpackage excluded via
// pyproject.toml.
func createProject(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"pyproject.toml": `[tool.slotscan]
exclude-modules = "(^|\\.)tests(\\.|$)"
`,
		"mylib/__init__.py": "",
		"mylib/models.py": `class Point:
    __slots__ = ("x", "y")

class Point3D(Point):
    __slots__ = ("x", "z")
`,
		"mylib/util.py": `class Plain:
    pass

class Packed(Plain):
    __slots__ = ("data",)
`,
		"mylib/broken.py":         "class Broken(\n",
		"mylib/tests/__init__.py": "",
		"mylib/tests/test_models.py": `class PointTest:
    pass
`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func runScan(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = cli.Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestScanProject(t *testing.T) {
	dir := t.TempDir()
	createProject(t, dir)
	t.Chdir(dir)

	code, stdout, _ := runScan(t, "-m", "mylib")
	assert.Equal(t, 1, code)
	assert.Equal(t, `NOTE:  Failed to import 'mylib.broken'.
ERROR: 'mylib.models:Point3D' defines overlapping slots.
ERROR: 'mylib.util:Packed' has slots but superclass does not.
Oh no, found some problems!
`, stdout, "skips come first, class findings follow in name order")
}

func TestScanProjectVerboseStats(t *testing.T) {
	dir := t.TempDir()
	createProject(t, dir)
	t.Chdir(dir)

	code, stdout, stderr := runScan(t, "-v", "-m", "mylib")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "       - x (mylib.models:Point)")
	assert.Contains(t, stdout, "Due to invalid syntax in")
	assert.Contains(t, stderr, `stats:
  modules:     6
    checked:   4
    excluded:  2
    skipped:   1

  classes:     4
    has slots: 3
    no slots:  1
    n/a:       0
`, "the tests subpackage is excluded, the broken module skipped")
}

func TestScanProjectStrictImports(t *testing.T) {
	dir := t.TempDir()
	createProject(t, dir)
	t.Chdir(dir)

	code, stdout, _ := runScan(t, "--strict-imports", "-m", "mylib")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "ERROR: Failed to import 'mylib.broken'.")
}

func TestScanProjectClassFilter(t *testing.T) {
	dir := t.TempDir()
	createProject(t, dir)
	t.Chdir(dir)

	code, stdout, _ := runScan(t, "--include-classes", "models:", "-m", "mylib")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "'mylib.models:Point3D' defines overlapping slots.")
	assert.NotContains(t, stdout, "mylib.util:Packed", "class filters drop findings outside the match")
	assert.Contains(t, stdout, "Failed to import 'mylib.broken'.", "module notes are untouched by class filters")
}

func TestScanDirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	createProject(t, dir)
	t.Chdir(dir)

	code, stdout, _ := runScan(t, "mylib")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "'mylib.models:Point3D' defines overlapping slots.")
	assert.Contains(t, stdout, "Oh no, found some problems!")
}
