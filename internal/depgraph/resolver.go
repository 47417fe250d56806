package depgraph

import "strings"

// ImportKind tags how the resolver classified one direct import.
type ImportKind int

// Import classifications reported by a Resolver.
const (
	// KindLocalFile is an import resolved to a file within the search roots.
	KindLocalFile ImportKind = iota
	// KindBuiltin is an import satisfied by the language runtime itself.
	KindBuiltin
	// KindUnresolved is an import that is neither a local file nor a builtin.
	KindUnresolved
)

// Import is one direct import of a source file as reported by a Resolver.
// AbsPath is set for KindLocalFile; a local-file import without a backing
// path is accepted by the collector only when the name is a builtin.
type Import struct {
	Kind    ImportKind
	Name    string
	AbsPath string
}

// Resolution is the resolver's report for one source file. OwnPath identifies
// the file the resolver actually examined and must equal the requested path.
type Resolution struct {
	OwnPath string
	Imports []Import
}

// Resolver discovers and classifies the direct imports of a single source
// file, searching only within the given roots. Implementations must be
// deterministic for identical input; the collector processes imports in the
// reported order.
type Resolver interface {
	ResolveImports(absPath string, searchRoots []string) (Resolution, error)
}

// BuiltinSet is the authoritative set of standard-library module names for
// the target language version, keyed by top-level module name. It is loaded
// once and passed explicitly to keep the collector testable.
type BuiltinSet map[string]struct{}

// Contains reports whether the dotted module name belongs to the standard
// library, checking the full name first and then its top-level segment (so
// "os.path" matches via "os").
func (s BuiltinSet) Contains(name string) bool {
	if _, ok := s[name]; ok {
		return true
	}

	head, _, found := strings.Cut(name, ".")
	if !found {
		return false
	}

	_, ok := s[head]

	return ok
}
