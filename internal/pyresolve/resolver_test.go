package pyresolve_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/packagery/internal/depgraph"
	"github.com/Sumatoshi-tech/packagery/internal/pyresolve"
)

func writeFile(t *testing.T, pth, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(pth), 0o750))
	require.NoError(t, os.WriteFile(pth, []byte(content), 0o600))
}

func resolve(t *testing.T, root, rel string) depgraph.Resolution {
	t.Helper()

	resolver := pyresolve.New(pyresolve.DefaultBuiltins())

	resolution, err := resolver.ResolveImports(filepath.Join(root, rel), []string{root})
	require.NoError(t, err)

	return resolution
}

func kindsByName(resolution depgraph.Resolution) map[string]depgraph.ImportKind {
	out := make(map[string]depgraph.ImportKind)
	for _, imp := range resolution.Imports {
		out[imp.Name] = imp.Kind
	}

	return out
}

func TestResolveImports_OwnIdentity(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "import sys\n")

	resolution := resolve(t, root, "some_script.py")
	assert.Equal(t, filepath.Join(root, "some_script.py"), resolution.OwnPath)
}

func TestResolveImports_Builtin(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "#!/usr/bin/env python\n\nimport sys\n")

	resolution := resolve(t, root, "some_script.py")

	require.Len(t, resolution.Imports, 1)
	assert.Equal(t, depgraph.KindBuiltin, resolution.Imports[0].Kind)
	assert.Equal(t, "sys", resolution.Imports[0].Name)
}

func TestResolveImports_DottedBuiltin(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "import os.path\nimport os.path\n")

	resolution := resolve(t, root, "some_script.py")

	// Duplicate imports collapse into one classification.
	require.Len(t, resolution.Imports, 1)
	assert.Equal(t, depgraph.KindBuiltin, resolution.Imports[0].Kind)
	assert.Equal(t, "os.path", resolution.Imports[0].Name)
}

func TestResolveImports_Unresolved(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "import PIL.Image\n")

	resolution := resolve(t, root, "some_script.py")

	require.Len(t, resolution.Imports, 1)
	assert.Equal(t, depgraph.KindUnresolved, resolution.Imports[0].Kind)
	assert.Equal(t, "PIL.Image", resolution.Imports[0].Name)
}

func TestResolveImports_LocalSibling(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "import something_local\n")
	writeFile(t, filepath.Join(root, "something_local.py"), "#!/usr/bin/env python\n")

	resolution := resolve(t, root, "some_script.py")

	require.Len(t, resolution.Imports, 1)
	assert.Equal(t, depgraph.KindLocalFile, resolution.Imports[0].Kind)
	assert.Equal(t, filepath.Join(root, "something_local.py"), resolution.Imports[0].AbsPath)
}

func TestResolveImports_PackageChain(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "import some_module.something\n")
	writeFile(t, filepath.Join(root, "some_module", "__init__.py"), "'''hello'''\n")
	writeFile(t, filepath.Join(root, "some_module", "something.py"), "'''hello'''\n")

	resolution := resolve(t, root, "some_script.py")

	paths := make([]string, 0, len(resolution.Imports))
	for _, imp := range resolution.Imports {
		require.Equal(t, depgraph.KindLocalFile, imp.Kind)
		paths = append(paths, imp.AbsPath)
	}

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "some_module", "__init__.py"),
		filepath.Join(root, "some_module", "something.py"),
	}, paths)
}

func TestResolveImports_PackageInitChain(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "import mapried.config\n")
	writeFile(t, filepath.Join(root, "mapried", "__init__.py"), "#!/usr/bin/env python\n")
	writeFile(t, filepath.Join(root, "mapried", "config", "__init__.py"), "#!/usr/bin/env python\n")

	resolution := resolve(t, root, "some_script.py")

	paths := make([]string, 0, len(resolution.Imports))
	for _, imp := range resolution.Imports {
		paths = append(paths, imp.AbsPath)
	}

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "mapried", "__init__.py"),
		filepath.Join(root, "mapried", "config", "__init__.py"),
	}, paths)
}

func TestResolveImports_FromImportSubmodule(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "from pkg import helper\n")
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "pkg", "helper.py"), "")

	resolution := resolve(t, root, "some_script.py")

	paths := make([]string, 0, len(resolution.Imports))
	for _, imp := range resolution.Imports {
		require.Equal(t, depgraph.KindLocalFile, imp.Kind)
		paths = append(paths, imp.AbsPath)
	}

	assert.Contains(t, paths, filepath.Join(root, "pkg", "__init__.py"))
	assert.Contains(t, paths, filepath.Join(root, "pkg", "helper.py"))
}

func TestResolveImports_FromImportAttributeOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "from pkg import some_function\n")
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"), "def some_function():\n    pass\n")

	resolution := resolve(t, root, "some_script.py")

	kinds := kindsByName(resolution)
	assert.Equal(t, depgraph.KindLocalFile, kinds["pkg"])
	assert.NotContains(t, kinds, "pkg.some_function")
}

func TestResolveImports_RelativeImport(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "pkg", "main.py"), "from .sibling import helper\n")
	writeFile(t, filepath.Join(root, "pkg", "sibling.py"), "")

	resolution := resolve(t, root, filepath.Join("pkg", "main.py"))

	require.Len(t, resolution.Imports, 1)
	assert.Equal(t, depgraph.KindLocalFile, resolution.Imports[0].Kind)
	assert.Equal(t, filepath.Join(root, "pkg", "sibling.py"), resolution.Imports[0].AbsPath)
}

func TestResolveImports_RelativeImportBareDot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "pkg", "main.py"), "from . import sibling\n")
	writeFile(t, filepath.Join(root, "pkg", "sibling.py"), "")

	resolution := resolve(t, root, filepath.Join("pkg", "main.py"))

	require.Len(t, resolution.Imports, 1)
	assert.Equal(t, filepath.Join(root, "pkg", "sibling.py"), resolution.Imports[0].AbsPath)
}

func TestResolveImports_AliasedImport(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"), "import numpy as np\n")

	resolution := resolve(t, root, "some_script.py")

	require.Len(t, resolution.Imports, 1)
	assert.Equal(t, depgraph.KindUnresolved, resolution.Imports[0].Kind)
	assert.Equal(t, "numpy", resolution.Imports[0].Name)
}

func TestResolveImports_NestedImports(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "some_script.py"),
		"def lazy():\n    import json\n    return json\n")

	resolution := resolve(t, root, "some_script.py")

	require.Len(t, resolution.Imports, 1)
	assert.Equal(t, depgraph.KindBuiltin, resolution.Imports[0].Kind)
	assert.Equal(t, "json", resolution.Imports[0].Name)
}

func TestResolveImports_MissingFile(t *testing.T) {
	t.Parallel()

	resolver := pyresolve.New(pyresolve.DefaultBuiltins())

	_, err := resolver.ResolveImports(filepath.Join(t.TempDir(), "missing.py"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBuiltins_Override(t *testing.T) {
	t.Parallel()

	pth := filepath.Join(t.TempDir(), "stdlib.txt")
	writeFile(t, pth, "# custom list\nspam\neggs\n")

	builtins, err := pyresolve.LoadBuiltins(pth)
	require.NoError(t, err)

	assert.True(t, builtins.Contains("spam"))
	assert.True(t, builtins.Contains("eggs.sub"))
	assert.False(t, builtins.Contains("sys"))
}

func TestDefaultBuiltins_CommonModules(t *testing.T) {
	t.Parallel()

	builtins := pyresolve.DefaultBuiltins()

	for _, name := range []string{"sys", "os", "os.path", "json", "unittest", "typing"} {
		assert.True(t, builtins.Contains(name), name)
	}

	assert.False(t, builtins.Contains("numpy"))
}
