// Package pyresolve resolves the direct imports of Python source files using
// a tree-sitter parse, classifying each import as a codebase file, a
// standard-library module, or unresolved.
package pyresolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/packagery/internal/depgraph"
)

// Sentinel errors for resolver operations.
var (
	errPoolType   = errors.New("parser pool returned unexpected type")
	errNoRootNode = errors.New("no root node in parse tree")
)

// Tree-sitter node types of interest in the Python grammar.
const (
	nodeImport        = "import_statement"
	nodeImportFrom    = "import_from_statement"
	nodeDottedName    = "dotted_name"
	nodeAliasedImport = "aliased_import"
	nodeRelative      = "relative_import"
)

// initFile is the package marker file name.
const initFile = "__init__.py"

// pythonLanguage is the tree-sitter Python grammar, initialized once per
// process.
var pythonLanguage = sitter.NewLanguage(python.GetLanguage())

// Resolver implements depgraph.Resolver for Python sources. Parsers are
// pooled; a Resolver is safe for concurrent use.
type Resolver struct {
	builtins depgraph.BuiltinSet
	pool     sync.Pool
}

// New creates a Resolver classifying builtins against the given
// standard-library name set.
func New(builtins depgraph.BuiltinSet) *Resolver {
	return &Resolver{
		builtins: builtins,
		pool: sync.Pool{
			New: func() any {
				parser := sitter.NewParser()
				parser.SetLanguage(pythonLanguage)

				return parser
			},
		},
	}
}

// ResolveImports parses the file at absPath and reports its direct imports,
// searching for local modules only within searchRoots. The report is
// deterministic: statements are visited in document order and duplicate
// classifications are dropped.
func (r *Resolver) ResolveImports(absPath string, searchRoots []string) (depgraph.Resolution, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return depgraph.Resolution{}, fmt.Errorf("read source: %w", err)
	}

	parser, ok := r.pool.Get().(*sitter.Parser)
	if !ok {
		return depgraph.Resolution{}, errPoolType
	}
	defer r.pool.Put(parser)

	tree, err := parser.ParseString(context.Background(), nil, content)
	if err != nil {
		return depgraph.Resolution{}, fmt.Errorf("parse %s: %w", absPath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return depgraph.Resolution{}, fmt.Errorf("%w: %s", errNoRootNode, absPath)
	}

	walker := &importWalker{
		resolver:    r,
		content:     content,
		fileDir:     filepath.Dir(absPath),
		searchRoots: searchRoots,
		seen:        make(map[string]struct{}),
	}
	walker.walk(root)

	return depgraph.Resolution{OwnPath: absPath, Imports: walker.imports}, nil
}

// importWalker accumulates classified imports over one parse tree.
type importWalker struct {
	resolver    *Resolver
	content     []byte
	fileDir     string
	searchRoots []string
	seen        map[string]struct{}
	imports     []depgraph.Import
}

// walk visits the tree in document order, handling import statements and
// descending everywhere else (imports may appear inside functions or
// conditionals).
func (w *importWalker) walk(node sitter.Node) {
	switch node.Type() {
	case nodeImport:
		w.handleImport(node)
	case nodeImportFrom:
		w.handleImportFrom(node)
	default:
		for idx := range node.NamedChildCount() {
			w.walk(node.NamedChild(idx))
		}
	}
}

// handleImport processes `import a.b, c as d`.
func (w *importWalker) handleImport(node sitter.Node) {
	for idx := range node.NamedChildCount() {
		child := node.NamedChild(idx)

		switch child.Type() {
		case nodeDottedName:
			w.classifyModule(w.text(child))
		case nodeAliasedImport:
			if name := w.firstDottedName(child); name != "" {
				w.classifyModule(name)
			}
		}
	}
}

// handleImportFrom processes `from M import a, b as c` and relative forms.
func (w *importWalker) handleImportFrom(node sitter.Node) {
	count := node.NamedChildCount()
	if count == 0 {
		return
	}

	module := node.NamedChild(0)

	names := make([]string, 0, count)

	for idx := range count {
		if idx == 0 {
			continue
		}

		child := node.NamedChild(idx)

		switch child.Type() {
		case nodeDottedName:
			names = append(names, w.text(child))
		case nodeAliasedImport:
			if name := w.firstDottedName(child); name != "" {
				names = append(names, name)
			}
		}
	}

	if module.Type() == nodeRelative {
		w.classifyRelative(w.text(module), names)

		return
	}

	moduleName := w.text(module)
	w.classifyModule(moduleName)

	// `from pkg import sub` may name a submodule rather than an attribute;
	// include it when a matching file exists, stay silent otherwise.
	for _, name := range names {
		w.locateOnly(moduleName + "." + name)
	}
}

// classifyModule resolves a dotted module name to local files, a builtin, or
// an unresolved entry.
func (w *importWalker) classifyModule(name string) {
	if name == "" {
		return
	}

	if w.locateOnly(name) {
		return
	}

	if w.resolver.builtins.Contains(name) {
		w.add(depgraph.Import{Kind: depgraph.KindBuiltin, Name: name})

		return
	}

	w.add(depgraph.Import{Kind: depgraph.KindUnresolved, Name: name})
}

// classifyRelative resolves `from .x import y` style imports against the
// importing file's directory.
func (w *importWalker) classifyRelative(prefix string, names []string) {
	dots := 0
	for dots < len(prefix) && prefix[dots] == '.' {
		dots++
	}

	base := w.fileDir
	for level := 1; level < dots; level++ {
		base = filepath.Dir(base)
	}

	rest := prefix[dots:]
	if rest != "" {
		target := filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(rest, ".", "/")))
		if !w.addLocalTarget(prefix, target) {
			w.add(depgraph.Import{Kind: depgraph.KindUnresolved, Name: prefix})
		}

		return
	}

	// `from . import y`: each name is a candidate sibling module.
	for _, name := range names {
		target := filepath.Join(base, name)
		if !w.addLocalTarget(prefix+name, target) {
			w.add(depgraph.Import{Kind: depgraph.KindUnresolved, Name: prefix + name})
		}
	}
}

// locateOnly searches the roots for a dotted module name and records the
// backing files when found, including every existing __init__.py along the
// package chain. It reports whether the module was located.
func (w *importWalker) locateOnly(name string) bool {
	segments := strings.Split(name, ".")

	for _, root := range w.searchRoots {
		chain, final, ok := locateInRoot(root, segments)
		if !ok {
			continue
		}

		for _, pkg := range chain {
			w.add(depgraph.Import{Kind: depgraph.KindLocalFile, Name: pkg.name, AbsPath: pkg.initPath})
		}

		w.add(depgraph.Import{Kind: depgraph.KindLocalFile, Name: name, AbsPath: final})

		return true
	}

	return false
}

// addLocalTarget records target as a local module file if it exists, either
// as target.py or target/__init__.py.
func (w *importWalker) addLocalTarget(name, target string) bool {
	if isFile(target + ".py") {
		w.add(depgraph.Import{Kind: depgraph.KindLocalFile, Name: name, AbsPath: target + ".py"})

		return true
	}

	init := filepath.Join(target, initFile)
	if isFile(init) {
		w.add(depgraph.Import{Kind: depgraph.KindLocalFile, Name: name, AbsPath: init})

		return true
	}

	return false
}

// add appends an import, dropping duplicates of the same classification.
func (w *importWalker) add(imp depgraph.Import) {
	key := fmt.Sprintf("%d\x00%s\x00%s", imp.Kind, imp.Name, imp.AbsPath)
	if _, ok := w.seen[key]; ok {
		return
	}

	w.seen[key] = struct{}{}
	w.imports = append(w.imports, imp)
}

// text returns the source text of a node.
func (w *importWalker) text(node sitter.Node) string {
	start := node.StartByte()
	end := node.EndByte()

	if end > uint(len(w.content)) {
		return ""
	}

	return string(w.content[start:end])
}

// firstDottedName returns the text of the first dotted_name child, if any.
func (w *importWalker) firstDottedName(node sitter.Node) string {
	for idx := range node.NamedChildCount() {
		child := node.NamedChild(idx)
		if child.Type() == nodeDottedName {
			return w.text(child)
		}
	}

	return ""
}

// chainPackage is an intermediate package along a dotted import, identified
// by its dotted-name prefix and its __init__.py file.
type chainPackage struct {
	name     string
	initPath string
}

// locateInRoot walks the package chain of segments beneath root. It returns
// the existing __init__.py files of the intermediate packages, the path of
// the final module file, and whether the module was found.
func locateInRoot(root string, segments []string) (chain []chainPackage, final string, ok bool) {
	current := root

	for idx, segment := range segments {
		last := idx == len(segments)-1

		if last {
			moduleFile := filepath.Join(current, segment+".py")
			if isFile(moduleFile) {
				return chain, moduleFile, true
			}

			initPath := filepath.Join(current, segment, initFile)
			if isFile(initPath) {
				return chain, initPath, true
			}

			return nil, "", false
		}

		dir := filepath.Join(current, segment)

		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, "", false
		}

		initPath := filepath.Join(dir, initFile)
		if isFile(initPath) {
			chain = append(chain, chainPackage{
				name:     strings.Join(segments[:idx+1], "."),
				initPath: initPath,
			})
		}

		current = dir
	}

	return nil, "", false
}

// isFile reports whether pth exists as a regular file.
func isFile(pth string) bool {
	info, err := os.Stat(pth)

	return err == nil && info.Mode().IsRegular()
}
