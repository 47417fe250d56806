// Package render turns a collected package into its output representations:
// a human-readable table layout or JSON.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/packagery/internal/depgraph"
)

// Output format selectors.
const (
	FormatVerbose = "verbose"
	FormatJSON    = "json"
)

// Formats lists the recognized output format selectors.
var Formats = []string{FormatVerbose, FormatJSON}

// ErrUnknownFormat is returned for an unrecognized format selector.
var ErrUnknownFormat = errors.New("unexpected format")

// columnGap joins cells within a row; ruleGap joins the dashed-rule segments
// under the header so the rule lines up with the columns.
const (
	columnGap = " | "
	ruleGap   = "-+-"
)

// Output renders pkg in the given format. The verbose format has the best
// readability and is the default choice for terminals.
func Output(pkg *depgraph.Package, format string, out io.Writer) error {
	switch format {
	case FormatVerbose:
		return Verbose(pkg, out)
	case FormatJSON:
		return JSON(pkg, out)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Verbose writes the package as up to three blocks (external, local and
// unresolved dependencies), each emitted only when non-empty, separated by
// one blank line.
func Verbose(pkg *depgraph.Package, out io.Writer) error {
	var blocks []string

	if len(pkg.Requirements) > 0 {
		table := [][]string{{"Package name", "Requirement spec"}}
		for _, name := range pkg.SortedRequirementNames() {
			req := pkg.Requirements[name]
			table = append(table, []string{req.Name, strconv.Quote(strings.TrimSpace(req.Line))})
		}

		blocks = append(blocks, "External dependencies:\n"+formatTable(table))
	}

	if len(pkg.RelPaths) > 0 {
		lines := []string{"Local dependencies:"}
		lines = append(lines, pkg.SortedRelPaths()...)

		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	if len(pkg.UnresolvedModules) > 0 {
		modules := make([]depgraph.UnresolvedModule, len(pkg.UnresolvedModules))
		copy(modules, pkg.UnresolvedModules)
		sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })

		table := [][]string{{"Module", "Imported from"}}
		for _, mod := range modules {
			table = append(table, []string{mod.Name, filepath.ToSlash(mod.ImportedFrom)})
		}

		blocks = append(blocks, "Unresolved dependencies:\n"+formatTable(table))
	}

	_, err := io.WriteString(out, strings.Join(blocks, "\n\n")+"\n")
	if err != nil {
		return fmt.Errorf("write verbose output: %w", err)
	}

	return nil
}

// formatTable lays out rows as left-justified columns sized to the widest
// cell, with a dashed rule under the first (header) row whose segments match
// the column widths.
func formatTable(table [][]string) string {
	if len(table) == 0 {
		return ""
	}

	widths := make([]int, len(table[0]))

	for _, row := range table {
		for col, cell := range row {
			if len(cell) > widths[col] {
				widths[col] = len(cell)
			}
		}
	}

	var lines []string

	for rowIdx, row := range table {
		cells := make([]string, len(row))
		for col, cell := range row {
			cells[col] = cell + strings.Repeat(" ", widths[col]-len(cell))
		}

		lines = append(lines, strings.Join(cells, columnGap))

		if rowIdx == 0 {
			segments := make([]string, len(widths))
			for col, width := range widths {
				segments[col] = strings.Repeat("-", width)
			}

			lines = append(lines, strings.Join(segments, ruleGap))
		}
	}

	return strings.Join(lines, "\n")
}

// jsonRequirement mirrors a requirement in the structured output.
type jsonRequirement struct {
	Name string `json:"name"`
	Line string `json:"line"`
}

// jsonUnresolved mirrors an unresolved module in the structured output.
type jsonUnresolved struct {
	Name         string `json:"name"`
	ImportedFrom string `json:"imported_from"`
}

// jsonPackage is the structured rendering of a package: key order is fixed,
// requirement keys are sorted (map keys marshal sorted), rel_paths is a
// sorted array of forward-slash paths, and unresolved_modules keeps the
// package's own first-discovery order.
type jsonPackage struct {
	Requirements      map[string]jsonRequirement `json:"requirements"`
	RelPaths          []string                   `json:"rel_paths"`
	UnresolvedModules []jsonUnresolved           `json:"unresolved_modules"`
}

// JSON writes the package as indented JSON with a stable layout for
// reproducible diffs.
func JSON(pkg *depgraph.Package, out io.Writer) error {
	doc := jsonPackage{
		Requirements:      make(map[string]jsonRequirement, len(pkg.Requirements)),
		RelPaths:          make([]string, 0, len(pkg.RelPaths)),
		UnresolvedModules: make([]jsonUnresolved, 0, len(pkg.UnresolvedModules)),
	}

	for name, req := range pkg.Requirements {
		doc.Requirements[name] = jsonRequirement{Name: req.Name, Line: req.Line}
	}

	for rel := range pkg.RelPaths {
		doc.RelPaths = append(doc.RelPaths, filepath.ToSlash(rel))
	}

	sort.Strings(doc.RelPaths)

	for _, mod := range pkg.UnresolvedModules {
		doc.UnresolvedModules = append(doc.UnresolvedModules, jsonUnresolved{
			Name:         mod.Name,
			ImportedFrom: filepath.ToSlash(mod.ImportedFrom),
		})
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal package: %w", err)
	}

	_, err = out.Write(encoded)
	if err != nil {
		return fmt.Errorf("write json output: %w", err)
	}

	return nil
}
