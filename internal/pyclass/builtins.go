package pyclass

// builtinDef is one entry of the fixed builtin class table. slotted marks
// membership in the allow-list of builtin types whose instances store
// attributes in slots; every exception is excluded because BaseException
// gives its instances a __dict__.
type builtinDef struct {
	name    string
	slotted bool
	bases   []string
}

var builtinTable = []builtinDef{
	{"object", true, nil},
	{"type", true, []string{"object"}},
	{"int", true, []string{"object"}},
	{"bool", true, []string{"int"}},
	{"float", true, []string{"object"}},
	{"complex", true, []string{"object"}},
	{"str", true, []string{"object"}},
	{"bytes", true, []string{"object"}},
	{"bytearray", true, []string{"object"}},
	{"tuple", true, []string{"object"}},
	{"list", true, []string{"object"}},
	{"dict", true, []string{"object"}},
	{"set", true, []string{"object"}},
	{"frozenset", true, []string{"object"}},
	{"range", true, []string{"object"}},
	{"slice", true, []string{"object"}},
	{"memoryview", true, []string{"object"}},
	{"enumerate", true, []string{"object"}},
	{"filter", true, []string{"object"}},
	{"map", true, []string{"object"}},
	{"reversed", true, []string{"object"}},
	{"zip", true, []string{"object"}},
	{"property", true, []string{"object"}},
	{"classmethod", true, []string{"object"}},
	{"staticmethod", true, []string{"object"}},
	{"super", true, []string{"object"}},

	{"BaseException", false, []string{"object"}},
	{"Exception", false, []string{"BaseException"}},
	{"BaseExceptionGroup", false, []string{"BaseException"}},
	{"ExceptionGroup", false, []string{"BaseExceptionGroup", "Exception"}},
	{"GeneratorExit", false, []string{"BaseException"}},
	{"KeyboardInterrupt", false, []string{"BaseException"}},
	{"SystemExit", false, []string{"BaseException"}},
	{"ArithmeticError", false, []string{"Exception"}},
	{"FloatingPointError", false, []string{"ArithmeticError"}},
	{"OverflowError", false, []string{"ArithmeticError"}},
	{"ZeroDivisionError", false, []string{"ArithmeticError"}},
	{"AssertionError", false, []string{"Exception"}},
	{"AttributeError", false, []string{"Exception"}},
	{"BufferError", false, []string{"Exception"}},
	{"EOFError", false, []string{"Exception"}},
	{"ImportError", false, []string{"Exception"}},
	{"ModuleNotFoundError", false, []string{"ImportError"}},
	{"LookupError", false, []string{"Exception"}},
	{"IndexError", false, []string{"LookupError"}},
	{"KeyError", false, []string{"LookupError"}},
	{"MemoryError", false, []string{"Exception"}},
	{"NameError", false, []string{"Exception"}},
	{"UnboundLocalError", false, []string{"NameError"}},
	{"OSError", false, []string{"Exception"}},
	{"BlockingIOError", false, []string{"OSError"}},
	{"ChildProcessError", false, []string{"OSError"}},
	{"ConnectionError", false, []string{"OSError"}},
	{"BrokenPipeError", false, []string{"ConnectionError"}},
	{"ConnectionAbortedError", false, []string{"ConnectionError"}},
	{"ConnectionRefusedError", false, []string{"ConnectionError"}},
	{"ConnectionResetError", false, []string{"ConnectionError"}},
	{"FileExistsError", false, []string{"OSError"}},
	{"FileNotFoundError", false, []string{"OSError"}},
	{"InterruptedError", false, []string{"OSError"}},
	{"IsADirectoryError", false, []string{"OSError"}},
	{"NotADirectoryError", false, []string{"OSError"}},
	{"PermissionError", false, []string{"OSError"}},
	{"ProcessLookupError", false, []string{"OSError"}},
	{"TimeoutError", false, []string{"OSError"}},
	{"ReferenceError", false, []string{"Exception"}},
	{"RuntimeError", false, []string{"Exception"}},
	{"NotImplementedError", false, []string{"RuntimeError"}},
	{"RecursionError", false, []string{"RuntimeError"}},
	{"StopAsyncIteration", false, []string{"Exception"}},
	{"StopIteration", false, []string{"Exception"}},
	{"SyntaxError", false, []string{"Exception"}},
	{"IndentationError", false, []string{"SyntaxError"}},
	{"TabError", false, []string{"IndentationError"}},
	{"SystemError", false, []string{"Exception"}},
	{"TypeError", false, []string{"Exception"}},
	{"ValueError", false, []string{"Exception"}},
	{"UnicodeError", false, []string{"ValueError"}},
	{"UnicodeDecodeError", false, []string{"UnicodeError"}},
	{"UnicodeEncodeError", false, []string{"UnicodeError"}},
	{"UnicodeTranslateError", false, []string{"UnicodeError"}},
	{"Warning", false, []string{"Exception"}},
	{"BytesWarning", false, []string{"Warning"}},
	{"DeprecationWarning", false, []string{"Warning"}},
	{"EncodingWarning", false, []string{"Warning"}},
	{"FutureWarning", false, []string{"Warning"}},
	{"ImportWarning", false, []string{"Warning"}},
	{"PendingDeprecationWarning", false, []string{"Warning"}},
	{"ResourceWarning", false, []string{"Warning"}},
	{"RuntimeWarning", false, []string{"Warning"}},
	{"SyntaxWarning", false, []string{"Warning"}},
	{"UnicodeWarning", false, []string{"Warning"}},
	{"UserWarning", false, []string{"Warning"}},
}

// builtinAliases are second names bound to the same class object.
var builtinAliases = map[string]string{
	"EnvironmentError": "OSError",
	"IOError":          "OSError",
}
