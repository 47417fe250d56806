package pyresolve

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/Sumatoshi-tech/packagery/internal/depgraph"
)

// stdlibModules is the bundled list of Python standard-library top-level
// module names, one per line, # comments allowed.
//
//go:embed stdlib_modules.txt
var stdlibModules string

// DefaultBuiltins returns the builtin set for the bundled Python
// standard-library module list.
func DefaultBuiltins() depgraph.BuiltinSet {
	return parseBuiltins(stdlibModules)
}

// LoadBuiltins reads a builtin module-name list from a file, overriding the
// bundled one. The format is one module name per line; blank lines and #
// comments are ignored.
func LoadBuiltins(path string) (depgraph.BuiltinSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stdlib list: %w", err)
	}

	return parseBuiltins(string(content)), nil
}

func parseBuiltins(text string) depgraph.BuiltinSet {
	set := make(depgraph.BuiltinSet)

	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}

		set[name] = struct{}{}
	}

	return set
}
