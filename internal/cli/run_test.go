package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotscan/internal/history"
	"slotscan/internal/version"
)

const cleanModule = `class Base:
    __slots__ = ("x",)

class Child(Base):
    __slots__ = ("y",)
`

const overlapModule = `class Base:
    __slots__ = ("x",)

class Child(Base):
    __slots__ = ("x", "y")
`

const unslottedBaseModule = `class Loose:
    pass

class Tight(Loose):
    __slots__ = ("t",)
`

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunTargetValidation(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Equal(t, "ERROR: No FILES argument or `-m/--module` option given.\n", stderr)

	code, _, stderr = runCLI(t, "-m", "pkg", "file.py")
	assert.Equal(t, 2, code)
	assert.Equal(t, "ERROR: Specify either FILES argument or `-m/--module` option, not both.\n", stderr)
}

func TestRunVersion(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "slotscan "+version.Version+"\n", stdout)
	assert.Empty(t, stderr)
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "slotscan [flags] [FILES]...")
}

func TestRunCleanModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", cleanModule)
	t.Chdir(dir)

	code, stdout, stderr := runCLI(t, "-m", "shapes")
	assert.Equal(t, 0, code)
	assert.Equal(t, "All OK!\n", stdout)
	assert.Empty(t, stderr, "a clean non-verbose run should write nothing to stderr")
}

func TestRunProblemModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", overlapModule)
	t.Chdir(dir)

	code, stdout, _ := runCLI(t, "-m", "shapes")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "ERROR: 'shapes:Child' defines overlapping slots.")
	assert.Contains(t, stdout, "Oh no, found some problems!")
}

func TestRunVerboseOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", overlapModule)
	t.Chdir(dir)

	code, stdout, stderr := runCLI(t, "-v", "-m", "shapes")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "       - x (shapes:Base)", "verbose findings list the clashing slot and its ancestor")
	assert.Contains(t, stderr, "stats:")
	assert.Contains(t, stderr, "  modules:     1")
	assert.Contains(t, stderr, "  classes:     2")
}

func TestRunFileTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", overlapModule)
	t.Chdir(dir)

	code, stdout, _ := runCLI(t, "shapes.py")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "'shapes:Child' defines overlapping slots.")
}

func TestRunResolutionErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	code, _, stderr := runCLI(t, "-m", "ghost")
	assert.Equal(t, 2, code)
	assert.Equal(t, "ERROR: Module 'ghost' not found.\n", stderr)

	code, _, stderr = runCLI(t, "missing.py")
	assert.Equal(t, 2, code)
	assert.Equal(t, "ERROR: Path 'missing.py' does not exist.\n", stderr)
}

func TestRunInvalidLogLevel(t *testing.T) {
	code, _, stderr := runCLI(t, "--log-level", "chatty", "-m", "x")
	assert.Equal(t, 2, code)
	assert.Equal(t, "ERROR: Invalid log level 'chatty'.\n", stderr)
}

func TestRunBadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", cleanModule)
	writeFile(t, dir, "settings.yaml", "strict-imports: true\n")
	t.Chdir(dir)

	code, _, stderr := runCLI(t, "--settings", "settings.yaml", "-m", "shapes")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "ERROR: Settings file must be a .toml or .cfg file.")
}

func TestRunInvalidFilterPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", cleanModule)
	t.Chdir(dir)

	code, _, stderr := runCLI(t, "--exclude-classes", "(unclosed", "-m", "shapes")
	assert.Equal(t, 2, code)
	assert.Equal(t, "ERROR: Invalid regular expression for 'exclude-classes'.\n", stderr)
}

func TestRunClassFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", overlapModule)
	t.Chdir(dir)

	code, stdout, _ := runCLI(t, "--exclude-classes", "Child$", "-m", "shapes")
	assert.Equal(t, 0, code)
	assert.Equal(t, "All OK!\n", stdout, "excluding the offending class silences its finding")
}

func TestRunConfigFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frame.py", unslottedBaseModule)
	writeFile(t, dir, "pyproject.toml", "[tool.slotscan]\nrequire-superclass = false\n")
	t.Chdir(dir)

	code, stdout, _ := runCLI(t, "-m", "frame")
	assert.Equal(t, 0, code, "pyproject.toml should relax the superclass rule")
	assert.Equal(t, "All OK!\n", stdout)

	code, stdout, _ = runCLI(t, "--require-superclass", "-m", "frame")
	assert.Equal(t, 1, code, "an explicit flag overrides the config file")
	assert.Contains(t, stdout, "ERROR: 'frame:Tight' has slots but superclass does not.")
}

func TestRunSarifReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", overlapModule)
	t.Chdir(dir)

	code, _, _ := runCLI(t, "--sarif", "report.sarif", "-m", "shapes")
	assert.Equal(t, 1, code)

	doc, err := os.ReadFile(filepath.Join(dir, "report.sarif"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"SLOT001"`)
	assert.Contains(t, string(doc), "shapes.py")
}

func TestRunHistoryRecording(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", cleanModule)
	t.Chdir(dir)
	db := filepath.Join(dir, "scans.db")

	code, _, _ := runCLI(t, "--history-db", db, "-m", "shapes")
	assert.Equal(t, 0, code)

	store, err := history.Open(db)
	require.NoError(t, err)
	defer store.Close()

	snaps, err := store.LoadSnapshots(time.Time{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.NotEmpty(t, snaps[0].ID)
	assert.Equal(t, 1, snaps[0].ModulesChecked)
	assert.Equal(t, 2, snaps[0].ClassesAll)
	assert.False(t, snaps[0].Problems)
}

func TestRunInterrupted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.py", cleanModule)
	t.Chdir(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := Run(ctx, []string{"-m", "shapes"}, &stdout, &stderr)
	assert.Equal(t, 130, code)
	assert.Equal(t, "Aborted!\n", stderr.String())
	assert.Empty(t, stdout.String())
}
