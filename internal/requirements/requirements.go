// Package requirements parses pip-style requirement declarations into an
// ordered registry keyed by package name.
package requirements

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel errors for requirement parsing.
var (
	ErrInvalidRequirements = errors.New("invalid requirements")
	ErrMissingName         = errors.New("the name is missing in the requirement")
)

// namePattern matches a PEP 508 package identifier at the start of a
// declaration line.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)

// eggPattern extracts the package name from an #egg= URL fragment.
var eggPattern = regexp.MustCompile(`#egg=([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)

// remoteSchemes are the locator prefixes that mark a declaration as a remote
// source rather than a plain package name.
var remoteSchemes = []string{
	"http://", "https://", "ftp://", "file://",
	"git+", "hg+", "svn+", "bzr+",
}

// Requirement is one declared external package: its normalized name and the
// originating declaration line. The line is kept verbatim (modulo surrounding
// whitespace) and always ends with exactly one newline; it is never parsed
// further.
type Requirement struct {
	Name string
	Line string
}

// NewRequirement builds a Requirement, normalizing the line terminator.
func NewRequirement(name, line string) Requirement {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	return Requirement{Name: name, Line: line}
}

// Registry is an ordered mapping from package name to Requirement.
// The first occurrence of a name in the source text wins; insertion order is
// preserved for iteration.
type Registry struct {
	names  []string
	byName map[string]Requirement
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Requirement)}
}

// add records a requirement unless its name is already present.
func (r *Registry) add(req Requirement) {
	if _, ok := r.byName[req.Name]; ok {
		return
	}

	r.names = append(r.names, req.Name)
	r.byName[req.Name] = req
}

// Get returns the requirement registered under name.
func (r *Registry) Get(name string) (Requirement, bool) {
	req, ok := r.byName[name]

	return req, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]

	return ok
}

// Names returns the registered names in insertion order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)

	return out
}

// Len returns the number of registered requirements.
func (r *Registry) Len() int {
	return len(r.names)
}

// Parse reads requirement declarations from text. The origin (file path or
// URL the text came from) is used in error messages only.
//
// Grammar: one declaration per logical line; blank lines and lines starting
// with # are ignored; a backslash at the end of a physical line continues the
// declaration on the next one; option lines (-r, --index-url, ...) carry no
// package and are skipped, except editable installs (-e) which are treated as
// remote locators. Remote locators must carry an #egg= fragment naming the
// package.
func Parse(text, origin string) (*Registry, error) {
	registry := NewRegistry()

	var badLines []string

	for _, line := range logicalLines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		req, err := parseDeclaration(trimmed, origin)
		if err != nil {
			if errors.Is(err, ErrMissingName) {
				// A nameless remote locator is reported on its own, with the
				// offending line, rather than folded into the aggregate.
				return nil, err
			}

			badLines = append(badLines, trimmed)

			continue
		}

		if req != nil {
			registry.add(*req)
		}
	}

	if len(badLines) > 0 {
		return nil, fmt.Errorf("%w in %s: %s", ErrInvalidRequirements, origin, strings.Join(badLines, "; "))
	}

	return registry, nil
}

// parseDeclaration parses one trimmed, non-empty, non-comment declaration.
// A nil Requirement with nil error means the line is a global option and
// carries no package.
func parseDeclaration(line, origin string) (*Requirement, error) {
	spec := line

	if strings.HasPrefix(spec, "-e ") || strings.HasPrefix(spec, "--editable ") {
		spec = strings.TrimSpace(spec[strings.Index(spec, " ")+1:])
	} else if strings.HasPrefix(spec, "-") {
		// Global option such as -r or --index-url: no package declared here.
		return nil, nil
	}

	if isRemote(spec) {
		match := eggPattern.FindStringSubmatch(spec)
		if match == nil {
			return nil, fmt.Errorf("%w from %s: %s (did you specify the egg fragment?)",
				ErrMissingName, origin, line)
		}

		req := NewRequirement(match[1], line)

		return &req, nil
	}

	name := namePattern.FindString(spec)
	if name == "" || !validSuffix(spec[len(name):]) {
		return nil, ErrInvalidRequirements
	}

	req := NewRequirement(name, line)

	return &req, nil
}

// isRemote reports whether the declaration is a remote source locator.
func isRemote(spec string) bool {
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(spec, scheme) {
			return true
		}
	}

	return false
}

// validSuffix reports whether rest is an acceptable continuation of a named
// declaration: nothing, extras, a version specifier, an environment marker,
// or an inline comment.
func validSuffix(rest string) bool {
	if rest == "" {
		return true
	}

	switch rest[0] {
	case ' ', '\t', '[', '<', '>', '=', '!', '~', ';', ',', '#', '(':
		return true
	default:
		return false
	}
}

// logicalLines splits text into logical lines, joining physical lines that
// end with a backslash continuation.
func logicalLines(text string) []string {
	physical := strings.Split(text, "\n")
	lines := make([]string, 0, len(physical))

	var pending string

	for _, ln := range physical {
		if strings.HasSuffix(ln, "\\") {
			pending += strings.TrimSuffix(ln, "\\") + " "

			continue
		}

		lines = append(lines, pending+ln)
		pending = ""
	}

	if pending != "" {
		lines = append(lines, pending)
	}

	return lines
}
