// Package modmap parses the tab-separated correspondence between importable
// module names and the packages that provide them.
package modmap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/packagery/internal/requirements"
)

// expectedColumns is the required field count per row.
const expectedColumns = 2

// ErrColumnCount is returned when a row does not have exactly two
// tab-separated fields.
var ErrColumnCount = errors.New("expected two columns")

// Parse reads module-to-package rows from text. The origin (file path or URL
// the text came from) is used in error messages only.
//
// Each row is (module name, package name). Duplicate module names are
// allowed; the last row wins. Neither field keeps a trailing newline.
func Parse(text, origin string) (map[string]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := make(map[string]string)

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read row %d in %s: %w", row, origin, err)
		}

		if len(record) != expectedColumns {
			return nil, fmt.Errorf("%w, but got %d on line %d in %s: %q",
				ErrColumnCount, len(record), row, origin, record)
		}

		result[record[0]] = record[1]
	}

	return result, nil
}

// MissingPackages lists package names referenced by the module map but absent
// from the registry, sorted and deduplicated. A non-empty result is a
// configuration error: collecting with such a map would under-report
// dependencies.
func MissingPackages(moduleToPackage map[string]string, registry *requirements.Registry) []string {
	seen := make(map[string]struct{})

	var missing []string

	for _, pkgName := range moduleToPackage {
		if registry.Has(pkgName) {
			continue
		}

		if _, ok := seen[pkgName]; ok {
			continue
		}

		seen[pkgName] = struct{}{}
		missing = append(missing, pkgName)
	}

	sort.Strings(missing)

	return missing
}
