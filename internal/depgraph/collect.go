package depgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/packagery/internal/requirements"
)

// Sentinel errors for collector failure modes.
var (
	// ErrUnknownPackage signals a module-map entry pointing to a package that
	// is absent from the requirement registry. The caller is expected to
	// guard against this before collecting; continuing would silently
	// under-report dependencies.
	ErrUnknownPackage = errors.New("module map references unknown package")
	// ErrFilelessResolution signals a resolver that reported a non-builtin
	// module as resolved but without a backing file.
	ErrFilelessResolution = errors.New("resolver reported file-less resolution for non-builtin module")
	// ErrResolverIdentity signals a resolver whose own-module identity does
	// not match the file it was asked to examine.
	ErrResolverIdentity = errors.New("resolver identity mismatch")
	// ErrAbsoluteSeed signals a seed path that is not relative to the root.
	ErrAbsoluteSeed = errors.New("seed path must be relative")
	// ErrOutsideRoot signals a resolved local file outside the codebase root.
	ErrOutsideRoot = errors.New("resolved file outside codebase root")
)

// Collector drives the dependency graph traversal. The resolver and the
// builtin name set are injected so the traversal can be exercised with fakes.
type Collector struct {
	resolver Resolver
	builtins BuiltinSet
	log      *slog.Logger
}

// NewCollector creates a Collector using the given import resolver and
// standard-library name set.
func NewCollector(resolver Resolver, builtins BuiltinSet) *Collector {
	return &Collector{
		resolver: resolver,
		builtins: builtins,
		log:      slog.Default(),
	}
}

// Collect walks the import graph from the seed paths (relative to rootDir)
// and accumulates the closure of local files and required packages.
//
// Preconditions: every seed is relative to rootDir, and every package named
// by moduleToPackage exists in the registry (guard with
// modmap.MissingPackages before calling).
//
// Traversal is a LIFO work stack; the rel-path set doubles as the visited
// set, so import cycles terminate. Imports are processed in resolver-reported
// order, which makes unresolved-module attribution reproducible: a module is
// credited to the first importer visited under that order.
func (c *Collector) Collect(rootDir string, relPaths []string,
	registry *requirements.Registry, moduleToPackage map[string]string,
) (*Package, error) {
	pkg := NewPackage()

	stack := make([]string, len(relPaths))
	copy(stack, relPaths)

	unresolvedSeen := make(map[string]struct{})

	for len(stack) > 0 {
		rel := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if filepath.IsAbs(rel) {
			return nil, fmt.Errorf("%w: %s", ErrAbsoluteSeed, rel)
		}

		// Revisit guard: already collected paths are not re-parsed.
		if _, visited := pkg.RelPaths[rel]; visited {
			continue
		}

		abs := filepath.Join(rootDir, rel)

		resolution, err := c.resolver.ResolveImports(abs, []string{rootDir})
		if err != nil {
			return nil, fmt.Errorf("resolve imports of %s: %w", rel, err)
		}

		if resolution.OwnPath != abs {
			return nil, fmt.Errorf("%w: requested %s, resolver examined %s",
				ErrResolverIdentity, abs, resolution.OwnPath)
		}

		c.log.Debug("visiting file", "rel_path", rel, "imports", len(resolution.Imports))

		for _, imp := range resolution.Imports {
			if err := c.classify(pkg, imp, rel, rootDir, registry, moduleToPackage, unresolvedSeen, &stack); err != nil {
				return nil, err
			}
		}

		// Exactly one new path joins the closure per iteration: the one just
		// processed.
		pkg.RelPaths[rel] = struct{}{}
	}

	return pkg, nil
}

// classify routes one reported import into the accumulating package.
func (c *Collector) classify(pkg *Package, imp Import, importerRel, rootDir string,
	registry *requirements.Registry, moduleToPackage map[string]string,
	unresolvedSeen map[string]struct{}, stack *[]string,
) error {
	switch imp.Kind {
	case KindBuiltin:
		// Always available in the runtime; nothing to package.
		return nil

	case KindUnresolved:
		return c.classifyUnresolved(pkg, imp, importerRel, registry, moduleToPackage, unresolvedSeen)

	case KindLocalFile:
		if imp.AbsPath == "" {
			// Namespace-style resolutions without a file are only legal for
			// builtins; anything else means the resolver broke its contract.
			if !c.builtins.Contains(imp.Name) {
				return fmt.Errorf("%w: %s", ErrFilelessResolution, imp.Name)
			}

			return nil
		}

		rel, err := filepath.Rel(rootDir, imp.AbsPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s", ErrOutsideRoot, imp.AbsPath)
		}

		*stack = append(*stack, rel)

		return nil

	default:
		return fmt.Errorf("%w: unknown import kind %d for %s", ErrFilelessResolution, imp.Kind, imp.Name)
	}
}

// classifyUnresolved handles an import the resolver could not locate: first
// the module map, then the builtin set, then the unresolved list.
func (c *Collector) classifyUnresolved(pkg *Package, imp Import, importerRel string,
	registry *requirements.Registry, moduleToPackage map[string]string,
	unresolvedSeen map[string]struct{},
) error {
	if pkgName, mapped := moduleToPackage[imp.Name]; mapped {
		if _, have := pkg.Requirements[pkgName]; have {
			return nil
		}

		req, known := registry.Get(pkgName)
		if !known {
			return fmt.Errorf("%w: module %q maps to %q", ErrUnknownPackage, imp.Name, pkgName)
		}

		pkg.Requirements[pkgName] = req

		return nil
	}

	if c.builtins.Contains(imp.Name) {
		return nil
	}

	if _, seen := unresolvedSeen[imp.Name]; !seen {
		unresolvedSeen[imp.Name] = struct{}{}
		pkg.UnresolvedModules = append(pkg.UnresolvedModules, UnresolvedModule{
			Name:         imp.Name,
			ImportedFrom: importerRel,
		})
	}

	return nil
}
