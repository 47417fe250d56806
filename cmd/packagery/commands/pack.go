package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/packagery/internal/config"
	"github.com/Sumatoshi-tech/packagery/internal/depgraph"
	"github.com/Sumatoshi-tech/packagery/internal/modmap"
	"github.com/Sumatoshi-tech/packagery/internal/pyresolve"
	"github.com/Sumatoshi-tech/packagery/internal/render"
	"github.com/Sumatoshi-tech/packagery/internal/requirements"
)

// ErrSeedOutsideRoot is returned when an expanded seed file does not live
// under the codebase root.
var ErrSeedOutsideRoot = errors.New("seed path outside the codebase root")

// ErrMissingPackages is returned when the module map references packages
// absent from the requirement registry.
var ErrMissingPackages = errors.New("module map references packages missing from requirements")

// PackCommand holds the flags for the pack command.
type PackCommand struct {
	configPath       string
	root             string
	requirementsPath string
	moduleMapPath    string
	format           string
	output           string
	stdlibListPath   string
}

// NewPackCommand creates and configures the pack command.
func NewPackCommand() *cobra.Command {
	cmd := &PackCommand{}

	cobraCmd := &cobra.Command{
		Use:   "pack <path>...",
		Short: "Collect the dependency graph of the given seed paths",
		Long: "Collect the transitive closure of local files and external package\n" +
			"requirements needed to run the given files or directories standalone.",
		Args: cobra.MinimumNArgs(1),
		RunE: cmd.Run,
	}

	cmd.registerFlags(cobraCmd)
	cobraCmd.Flags().StringVarP(&cmd.format, "format", "f", "",
		"output format: verbose or json (default from config: verbose)")
	cobraCmd.Flags().StringVarP(&cmd.output, "output", "o", "", "output file (default: stdout)")

	return cobraCmd
}

// registerFlags adds the flags shared by pack and stats.
func (c *PackCommand) registerFlags(cobraCmd *cobra.Command) {
	cobraCmd.Flags().StringVar(&c.configPath, "config", "", "config file (default: .packagery.yaml in CWD or $HOME)")
	cobraCmd.Flags().StringVarP(&c.root, "root", "r", "", "root directory of the codebase")
	cobraCmd.Flags().StringVar(&c.requirementsPath, "requirements", "",
		"requirements file of the codebase")
	cobraCmd.Flags().StringVar(&c.moduleMapPath, "module-map", "",
		"tab-separated module-to-package correspondence file")
	cobraCmd.Flags().StringVar(&c.stdlibListPath, "stdlib-list", "",
		"file listing standard-library module names, overriding the bundled list")
}

// Run executes the pack command.
func (c *PackCommand) Run(_ *cobra.Command, args []string) error {
	in, err := c.loadInputs(args)
	if err != nil {
		return err
	}

	pkg, err := in.collect()
	if err != nil {
		return err
	}

	if len(pkg.UnresolvedModules) > 0 {
		color.New(color.FgYellow).Fprintf(os.Stderr, "warning: %d unresolved module(s)\n", len(pkg.UnresolvedModules))
	}

	out, closeOut, err := c.outputWriter()
	if err != nil {
		return err
	}
	defer closeOut()

	return render.Output(pkg, in.format, out)
}

// outputWriter opens the output destination, defaulting to stdout.
func (c *PackCommand) outputWriter() (io.Writer, func(), error) {
	if c.output == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(c.output)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}

	return file, func() { file.Close() }, nil
}

// inputs bundles everything a collection run needs.
type inputs struct {
	root     string
	relPaths []string
	registry *requirements.Registry
	modules  map[string]string
	builtins depgraph.BuiltinSet
	format   string
}

// collect runs the dependency graph collection over the loaded inputs.
func (in *inputs) collect() (*depgraph.Package, error) {
	collector := depgraph.NewCollector(pyresolve.New(in.builtins), in.builtins)

	return collector.Collect(in.root, in.relPaths, in.registry, in.modules)
}

// loadInputs loads config, registry, module map and builtin set, expands the
// seed arguments and rebases them onto the root directory.
func (c *PackCommand) loadInputs(args []string) (*inputs, error) {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}

	root := fallback(c.root, cfg.Root)

	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	registry, err := loadRegistry(fallback(c.requirementsPath, cfg.Requirements))
	if err != nil {
		return nil, err
	}

	modules, err := loadModuleMap(fallback(c.moduleMapPath, cfg.ModuleMap))
	if err != nil {
		return nil, err
	}

	// Guard the collector precondition: a module mapped to an unknown
	// package must fail before traversal, not during it.
	if missing := modmap.MissingPackages(modules, registry); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingPackages, strings.Join(missing, ", "))
	}

	builtins, err := loadBuiltins(fallback(c.stdlibListPath, cfg.StdlibList))
	if err != nil {
		return nil, err
	}

	relPaths, err := expandSeeds(root, args)
	if err != nil {
		return nil, err
	}

	return &inputs{
		root:     root,
		relPaths: relPaths,
		registry: registry,
		modules:  modules,
		builtins: builtins,
		format:   fallback(c.format, cfg.Format),
	}, nil
}

// expandSeeds resolves the seed arguments to files and rebases them relative
// to root.
func expandSeeds(root string, args []string) ([]string, error) {
	absArgs := make([]string, 0, len(args))

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve seed path: %w", err)
		}

		absArgs = append(absArgs, abs)
	}

	files, err := depgraph.ExpandPaths(absArgs)
	if err != nil {
		return nil, err
	}

	relPaths := make([]string, 0, len(files))

	for _, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s", ErrSeedOutsideRoot, file)
		}

		relPaths = append(relPaths, rel)
	}

	return relPaths, nil
}

// loadRegistry reads and parses the requirements file.
func loadRegistry(path string) (*requirements.Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requirements: %w", err)
	}

	return requirements.Parse(string(content), path)
}

// loadModuleMap reads and parses the module-to-package correspondence file.
func loadModuleMap(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module map: %w", err)
	}

	return modmap.Parse(string(content), path)
}

// loadBuiltins loads the standard-library name set, bundled or overridden.
func loadBuiltins(path string) (depgraph.BuiltinSet, error) {
	if path == "" {
		return pyresolve.DefaultBuiltins(), nil
	}

	return pyresolve.LoadBuiltins(path)
}

// fallback returns value unless it is empty, in which case def is used.
func fallback(value, def string) string {
	if value != "" {
		return value
	}

	return def
}
