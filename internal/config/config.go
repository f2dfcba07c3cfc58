// # internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"

	"slotscan/internal/fault"
)

const (
	pyprojectFile = "pyproject.toml"
	setupCfgFile  = "setup.cfg"
	tomlTool      = "tool"
	sectionName   = "slotscan"
)

// DefaultExcludeModules matches __main__ modules at any package depth.
const DefaultExcludeModules = `(^|\.)__main__(\.|$)`

// Config is the fully resolved tool configuration. Empty pattern strings
// mean the filter is off.
type Config struct {
	StrictImports     bool
	RequireSubclass   bool
	RequireSuperclass bool
	IncludeModules    string
	ExcludeModules    string
	IncludeClasses    string
	ExcludeClasses    string
	PythonPath        string
	SarifOutput       string
	HistoryDB         string
	MetricsAddr       string
}

// Default is the configuration before any file or flag is applied.
var Default = Config{
	RequireSuperclass: true,
	ExcludeModules:    DefaultExcludeModules,
}

// Partial holds settings from one source. Nil fields are unset and leave
// the layer below untouched.
type Partial struct {
	StrictImports     *bool
	RequireSubclass   *bool
	RequireSuperclass *bool
	IncludeModules    *string
	ExcludeModules    *string
	IncludeClasses    *string
	ExcludeClasses    *string
	PythonPath        *string
	SarifOutput       *string
	HistoryDB         *string
	MetricsAddr       *string
}

// Apply layers the set fields of p over c and returns the result.
func (c Config) Apply(p Partial) Config {
	if p.StrictImports != nil {
		c.StrictImports = *p.StrictImports
	}
	if p.RequireSubclass != nil {
		c.RequireSubclass = *p.RequireSubclass
	}
	if p.RequireSuperclass != nil {
		c.RequireSuperclass = *p.RequireSuperclass
	}
	if p.IncludeModules != nil {
		c.IncludeModules = *p.IncludeModules
	}
	if p.ExcludeModules != nil {
		c.ExcludeModules = *p.ExcludeModules
	}
	if p.IncludeClasses != nil {
		c.IncludeClasses = *p.IncludeClasses
	}
	if p.ExcludeClasses != nil {
		c.ExcludeClasses = *p.ExcludeClasses
	}
	if p.PythonPath != nil {
		c.PythonPath = *p.PythonPath
	}
	if p.SarifOutput != nil {
		c.SarifOutput = *p.SarifOutput
	}
	if p.HistoryDB != nil {
		c.HistoryDB = *p.HistoryDB
	}
	if p.MetricsAddr != nil {
		c.MetricsAddr = *p.MetricsAddr
	}
	return c
}

// Load resolves the effective configuration: built-in defaults, then the
// discovered or explicitly given config file, then command-line overrides.
func Load(cwd, settings string, cli Partial) (Config, error) {
	var file Partial
	if settings != "" {
		p, err := FromFile(settings)
		if err != nil {
			return Config{}, err
		}
		file = p
	} else {
		path, err := Find(cwd)
		if err != nil {
			return Config{}, err
		}
		if path != "" {
			p, err := FromFile(path)
			if err != nil {
				return Config{}, err
			}
			file = p
		}
	}
	resolved := Default.Apply(file).Apply(cli)
	if err := checkPatterns(resolved); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// Find walks from dir upward looking for a project configuration file.
// Within one directory pyproject.toml wins over setup.cfg, and a file
// counts only if it actually carries a slotscan section. Returns "" when
// no directory up to the filesystem root has one.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fault.AddContext(fault.Wrap(err, fault.CodeConfig, "cannot resolve config search directory"), fault.CtxPath, dir)
	}
	for {
		pyproject := filepath.Join(abs, pyprojectFile)
		ok, err := hasTOMLSection(pyproject)
		if err != nil {
			return "", err
		}
		if ok {
			return pyproject, nil
		}
		setup := filepath.Join(abs, setupCfgFile)
		ok, err = hasINISection(setup)
		if err != nil {
			return "", err
		}
		if ok {
			return setup, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

// FromFile reads settings from an explicit config file, dispatching on the
// file extension.
func FromFile(path string) (Partial, error) {
	switch filepath.Ext(path) {
	case ".toml":
		return FromTOML(path)
	case ".cfg":
		return FromINI(path)
	default:
		return Partial{}, fault.AddContext(fault.Newf(fault.CodeConfig, "Settings file must be a .toml or .cfg file."), fault.CtxPath, path)
	}
}

// FromTOML reads the [tool.slotscan] table of a pyproject-style TOML file.
// A file without the table yields an empty Partial.
func FromTOML(path string) (Partial, error) {
	var root map[string]any
	if _, err := toml.DecodeFile(path, &root); err != nil {
		return Partial{}, fault.AddContext(fault.Wrap(err, fault.CodeConfig, "cannot read config file"), fault.CtxPath, path)
	}
	return fromValues(tomlSection(root), false)
}

// FromINI reads the [slotscan] section of a setup.cfg-style INI file.
// A file without the section yields an empty Partial.
func FromINI(path string) (Partial, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Partial{}, fault.AddContext(fault.Wrap(err, fault.CodeConfig, "cannot read config file"), fault.CtxPath, path)
	}
	section, err := file.GetSection(sectionName)
	if err != nil {
		return Partial{}, nil
	}
	raw := make(map[string]any, len(section.Keys()))
	for _, key := range section.Keys() {
		raw[key.Name()] = key.Value()
	}
	return fromValues(raw, true)
}

func tomlSection(root map[string]any) map[string]any {
	tool, _ := root[tomlTool].(map[string]any)
	section, _ := tool[sectionName].(map[string]any)
	return section
}

func hasTOMLSection(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fault.AddContext(fault.Wrap(err, fault.CodeConfig, "cannot inspect config file"), fault.CtxPath, path)
	}
	var root map[string]any
	if _, err := toml.DecodeFile(path, &root); err != nil {
		return false, fault.AddContext(fault.Wrap(err, fault.CodeConfig, "cannot read config file"), fault.CtxPath, path)
	}
	return tomlSection(root) != nil, nil
}

func hasINISection(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fault.AddContext(fault.Wrap(err, fault.CodeConfig, "cannot inspect config file"), fault.CtxPath, path)
	}
	file, err := ini.Load(path)
	if err != nil {
		return false, fault.AddContext(fault.Wrap(err, fault.CodeConfig, "cannot read config file"), fault.CtxPath, path)
	}
	_, err = file.GetSection(sectionName)
	return err == nil, nil
}

type valueKind int

const (
	kindBool valueKind = iota
	kindString
)

var allowedKeys = map[string]valueKind{
	"strict-imports":     kindBool,
	"require-subclass":   kindBool,
	"require-superclass": kindBool,
	"include-modules":    kindString,
	"exclude-modules":    kindString,
	"include-classes":    kindString,
	"exclude-classes":    kindString,
	"python-path":        kindString,
	"sarif-output":       kindString,
	"history-db":         kindString,
	"metrics-addr":       kindString,
}

// fromValues validates a raw key/value section and extracts a Partial.
// Lenient mode parses booleans out of strings, for INI sources where every
// value arrives as a string.
func fromValues(raw map[string]any, lenient bool) (Partial, error) {
	var unknown []string
	for key := range raw {
		if _, ok := allowedKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Partial{}, &InvalidKeysError{Keys: unknown}
	}

	var p Partial
	boolFields := map[string]**bool{
		"strict-imports":     &p.StrictImports,
		"require-subclass":   &p.RequireSubclass,
		"require-superclass": &p.RequireSuperclass,
	}
	stringFields := map[string]**string{
		"include-modules": &p.IncludeModules,
		"exclude-modules": &p.ExcludeModules,
		"include-classes": &p.IncludeClasses,
		"exclude-classes": &p.ExcludeClasses,
		"python-path":     &p.PythonPath,
		"sarif-output":    &p.SarifOutput,
		"history-db":      &p.HistoryDB,
		"metrics-addr":    &p.MetricsAddr,
	}
	for key, field := range boolFields {
		value, ok := raw[key]
		if !ok {
			continue
		}
		parsed, ok := asBool(value, lenient)
		if !ok {
			return Partial{}, &InvalidValueTypeError{Key: key}
		}
		*field = &parsed
	}
	for key, field := range stringFields {
		value, ok := raw[key]
		if !ok {
			continue
		}
		s, ok := value.(string)
		if !ok {
			return Partial{}, &InvalidValueTypeError{Key: key}
		}
		*field = &s
	}
	return p, nil
}

// asBool accepts the boolean spellings configparser does when lenient.
func asBool(value any, lenient bool) (bool, bool) {
	if b, ok := value.(bool); ok {
		return b, true
	}
	if !lenient {
		return false, false
	}
	s, ok := value.(string)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "yes", "true", "on":
		return true, true
	case "0", "no", "false", "off":
		return false, true
	}
	return false, false
}

func checkPatterns(c Config) error {
	for _, f := range []struct {
		key     string
		pattern string
	}{
		{"include-modules", c.IncludeModules},
		{"exclude-modules", c.ExcludeModules},
		{"include-classes", c.IncludeClasses},
		{"exclude-classes", c.ExcludeClasses},
	} {
		if f.pattern == "" {
			continue
		}
		if _, err := regexp.Compile(f.pattern); err != nil {
			return &InvalidPatternError{Key: f.key, Err: err}
		}
	}
	return nil
}
