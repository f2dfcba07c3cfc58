// # internal/config/config_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slotscan/internal/fault"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestDefaults(t *testing.T) {
	if Default.StrictImports || Default.RequireSubclass {
		t.Error("strict-imports and require-subclass must default to off")
	}
	if !Default.RequireSuperclass {
		t.Error("require-superclass must default to on")
	}
	if Default.ExcludeModules != `(^|\.)__main__(\.|$)` {
		t.Errorf("unexpected default exclude-modules: %q", Default.ExcludeModules)
	}
	if Default.IncludeModules != "" || Default.IncludeClasses != "" || Default.ExcludeClasses != "" {
		t.Error("other filters must default to off")
	}
}

func TestFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pyproject.toml", `
[tool.poetry]
name = "something-else"

[tool.slotscan]
strict-imports = true
require-superclass = false
include-modules = "^pkg"
python-path = "src"
sarif-output = "out.sarif"
`)

	p, err := FromTOML(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.StrictImports == nil || !*p.StrictImports {
		t.Error("strict-imports not read")
	}
	if p.RequireSuperclass == nil || *p.RequireSuperclass {
		t.Error("require-superclass not read")
	}
	if p.IncludeModules == nil || *p.IncludeModules != "^pkg" {
		t.Error("include-modules not read")
	}
	if p.PythonPath == nil || *p.PythonPath != "src" {
		t.Error("python-path not read")
	}
	if p.SarifOutput == nil || *p.SarifOutput != "out.sarif" {
		t.Error("sarif-output not read")
	}
	if p.RequireSubclass != nil || p.ExcludeModules != nil || p.HistoryDB != nil {
		t.Error("absent keys must stay unset")
	}
}

func TestFromTOMLNoSection(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pyproject.toml", `
[tool.black]
line-length = 88
`)

	p, err := FromTOML(path)
	if err != nil {
		t.Fatal(err)
	}
	if p != (Partial{}) {
		t.Errorf("expected empty partial, got %+v", p)
	}
}

func TestFromTOMLUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pyproject.toml", `
[tool.slotscan]
k = "x"
strict-imports = true
foo = 1
`)

	_, err := FromTOML(path)
	var invalid *InvalidKeysError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidKeysError, got %v", err)
	}
	want := "Invalid configuration key(s): 'foo', 'k'."
	if invalid.Error() != want {
		t.Errorf("got %q, want %q", invalid.Error(), want)
	}
}

func TestFromTOMLWrongType(t *testing.T) {
	cases := []struct {
		body string
		key  string
	}{
		{`strict-imports = "yes"`, "strict-imports"},
		{`include-modules = true`, "include-modules"},
		{`require-subclass = 1`, "require-subclass"},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		path := writeFile(t, dir, "pyproject.toml", "[tool.slotscan]\n"+tc.body+"\n")

		_, err := FromTOML(path)
		var invalid *InvalidValueTypeError
		if !errors.As(err, &invalid) {
			t.Fatalf("%s: expected InvalidValueTypeError, got %v", tc.key, err)
		}
		want := "Invalid value type for '" + tc.key + "'."
		if invalid.Error() != want {
			t.Errorf("got %q, want %q", invalid.Error(), want)
		}
	}
}

func TestFromINI(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "setup.cfg", `
[metadata]
name = something-else

[slotscan]
strict-imports = yes
require-superclass = off
include-modules = ^pkg
history-db = scans.db
`)

	p, err := FromINI(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.StrictImports == nil || !*p.StrictImports {
		t.Error("strict-imports 'yes' must parse as true")
	}
	if p.RequireSuperclass == nil || *p.RequireSuperclass {
		t.Error("require-superclass 'off' must parse as false")
	}
	if p.IncludeModules == nil || *p.IncludeModules != "^pkg" {
		t.Error("include-modules not read")
	}
	if p.HistoryDB == nil || *p.HistoryDB != "scans.db" {
		t.Error("history-db not read")
	}
}

func TestFromINIBadBool(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "setup.cfg", "[slotscan]\nstrict-imports = nope\n")

	_, err := FromINI(path)
	var invalid *InvalidValueTypeError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidValueTypeError, got %v", err)
	}
	if invalid.Key != "strict-imports" {
		t.Errorf("got key %q", invalid.Key)
	}
}

func TestFromINIUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "setup.cfg", "[slotscan]\nstrict_imports = yes\n")

	_, err := FromINI(path)
	var invalid *InvalidKeysError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidKeysError, got %v", err)
	}
	if invalid.Error() != "Invalid configuration key(s): 'strict_imports'." {
		t.Errorf("got %q", invalid.Error())
	}
}

func TestFromININoSection(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "setup.cfg", "[metadata]\nname = x\n")

	p, err := FromINI(path)
	if err != nil {
		t.Fatal(err)
	}
	if p != (Partial{}) {
		t.Errorf("expected empty partial, got %+v", p)
	}
}

func TestFromFileExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conf.yaml", "strict-imports: true\n")

	_, err := FromFile(path)
	if !fault.IsCode(err, fault.CodeConfig) {
		t.Fatalf("expected config fault, got %v", err)
	}
	var fe *fault.Error
	if !errors.As(err, &fe) || fe.Message != "Settings file must be a .toml or .cfg file." {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestFindPrefersPyproject(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "pyproject.toml", "[tool.slotscan]\nstrict-imports = true\n")
	writeFile(t, dir, "setup.cfg", "[slotscan]\nstrict-imports = no\n")

	got, err := Find(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFindWalksUp(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "setup.cfg", "[slotscan]\nstrict-imports = yes\n")
	sub := filepath.Join(dir, "src", "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Find(sub)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFindSkipsSectionless(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "setup.cfg", "[slotscan]\nstrict-imports = yes\n")
	sub := filepath.Join(dir, "proj")
	// The nearer files lack a slotscan section and must not win.
	writeFile(t, sub, "pyproject.toml", "[tool.black]\nline-length = 88\n")
	writeFile(t, sub, "setup.cfg", "[metadata]\nname = x\n")

	got, err := Find(sub)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApplyLayering(t *testing.T) {
	file := Partial{
		StrictImports:  boolPtr(true),
		IncludeModules: strPtr("^x"),
	}
	cli := Partial{
		StrictImports: boolPtr(false),
	}

	got := Default.Apply(file).Apply(cli)
	if got.StrictImports {
		t.Error("CLI false must override file true")
	}
	if got.IncludeModules != "^x" {
		t.Errorf("file include-modules lost: %q", got.IncludeModules)
	}
	if !got.RequireSuperclass {
		t.Error("untouched default must survive layering")
	}
	if got.ExcludeModules != DefaultExcludeModules {
		t.Errorf("default exclude-modules lost: %q", got.ExcludeModules)
	}
}

func TestLoadWithSettings(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "custom.toml", `
[tool.slotscan]
require-subclass = true
exclude-classes = "Meta$"
`)
	// A discoverable pyproject.toml must be ignored once --settings is given.
	writeFile(t, dir, "pyproject.toml", "[tool.slotscan]\nstrict-imports = true\n")

	cfg, err := Load(dir, settings, Partial{ExcludeClasses: strPtr("Q$")})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.RequireSubclass {
		t.Error("require-subclass not applied from settings file")
	}
	if cfg.StrictImports {
		t.Error("discovered pyproject.toml applied despite explicit settings")
	}
	if cfg.ExcludeClasses != "Q$" {
		t.Errorf("CLI override lost: %q", cfg.ExcludeClasses)
	}
}

func TestLoadDiscovers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.slotscan]\nrequire-superclass = false\n")
	sub := filepath.Join(dir, "src")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(sub, "", Partial{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RequireSuperclass {
		t.Error("discovered file not applied")
	}
	if cfg.ExcludeModules != DefaultExcludeModules {
		t.Error("defaults lost during discovery")
	}
}

func TestLoadRejectsBadPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.slotscan]\ninclude-modules = \"(\"\n")

	_, err := Load(dir, "", Partial{})
	var invalid *InvalidPatternError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidPatternError, got %v", err)
	}
	if invalid.Error() != "Invalid regular expression for 'include-modules'." {
		t.Errorf("got %q", invalid.Error())
	}
	if invalid.Unwrap() == nil {
		t.Error("compile error must be wrapped")
	}
}

func TestLoadMissingSettingsFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir, filepath.Join(dir, "absent.toml"), Partial{})
	if !fault.IsCode(err, fault.CodeConfig) {
		t.Fatalf("expected config fault, got %v", err)
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "bad = toml = format\n")

	_, err := Load(dir, "", Partial{})
	if !fault.IsCode(err, fault.CodeConfig) {
		t.Fatalf("expected config fault, got %v", err)
	}
}
