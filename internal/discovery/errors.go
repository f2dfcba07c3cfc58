package discovery

import "fmt"

// ModuleNotFoundError means the dotted name resolves to nothing on the
// search path.
type ModuleNotFoundError struct {
	Module string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("no module named %q", e.Module)
}

// ModuleNotInspectableError means the target exists but its definitions
// cannot be read from source: a builtin, an extension module, or a
// bytecode-only file.
type ModuleNotInspectableError struct {
	Module string
}

func (e *ModuleNotInspectableError) Error() string {
	return fmt.Sprintf("module %q cannot be inspected from source", e.Module)
}

// UnexpectedLocationError means the name resolved, but not to the file the
// caller derived it from. Actual is empty when the name resolves to a
// builtin module.
type UnexpectedLocationError struct {
	Module   string
	Expected string
	Actual   string
}

func (e *UnexpectedLocationError) Error() string {
	return fmt.Sprintf("module %q resolved to %q, expected %q", e.Module, e.Actual, e.Expected)
}

// UnrelatedPathError means a file or directory sits outside every search
// path root, so no import name can be derived for it.
type UnrelatedPathError struct {
	Path string
}

func (e *UnrelatedPathError) Error() string {
	return fmt.Sprintf("path %q is outside the search path", e.Path)
}

// FailedImportError is the recoverable resolution failure: this target
// could not be loaded, but other targets may still be scanned.
type FailedImportError struct {
	Module string
	Err    error
}

func (e *FailedImportError) Error() string {
	return fmt.Sprintf("failed to import %q: %v", e.Module, e.Err)
}

func (e *FailedImportError) Unwrap() error { return e.Err }
