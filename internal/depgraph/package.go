// Package depgraph collects the transitive closure of local files and
// external package requirements reachable from a set of seed files.
package depgraph

import (
	"sort"

	"github.com/Sumatoshi-tech/packagery/internal/requirements"
)

// UnresolvedModule is an imported module that could not be classified as a
// local file, a builtin, or a mapped package. It is attributed to the first
// importer the traversal visits.
type UnresolvedModule struct {
	Name         string
	ImportedFrom string
}

// Package is the collected closure: the subset of the requirement registry
// reachable from the seeds, the set of codebase-relative file paths, and the
// unresolved modules in first-discovery order.
//
// A Package is built by a single Collect call and read-only afterwards.
type Package struct {
	Requirements      map[string]requirements.Requirement
	RelPaths          map[string]struct{}
	UnresolvedModules []UnresolvedModule
}

// NewPackage creates an empty Package.
func NewPackage() *Package {
	return &Package{
		Requirements: make(map[string]requirements.Requirement),
		RelPaths:     make(map[string]struct{}),
	}
}

// SortedRelPaths returns the collected relative paths in lexicographic order.
func (p *Package) SortedRelPaths() []string {
	paths := make([]string, 0, len(p.RelPaths))
	for pth := range p.RelPaths {
		paths = append(paths, pth)
	}

	sort.Strings(paths)

	return paths
}

// SortedRequirementNames returns the collected requirement names in
// lexicographic order.
func (p *Package) SortedRequirementNames() []string {
	names := make([]string, 0, len(p.Requirements))
	for name := range p.Requirements {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
