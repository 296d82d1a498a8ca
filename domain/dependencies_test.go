package domain_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/reglet-dev/fuzzbridge/"

// domainImports returns the imports of every non-test file under domain/,
// keyed by file.
func domainImports(t *testing.T) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()
	out := make(map[string][]string)

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return err
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range f.Imports {
			p, _ := strconv.Unquote(imp.Path.Value)
			out[path] = append(out[path], p)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

// The domain layer (entities, errors, ports) is what the engine, guests and
// host functions share. It may import the standard library and itself only.
func TestDomainImportsOnlyStdlibAndDomain(t *testing.T) {
	imports := domainImports(t)
	require.NotEmpty(t, imports)

	for file, paths := range imports {
		for _, p := range paths {
			if strings.HasPrefix(p, modulePath) {
				assert.True(t, strings.HasPrefix(p, modulePath+"domain/"),
					"%s imports %s outside the domain layer", file, p)
				continue
			}
			first, _, _ := strings.Cut(p, "/")
			assert.NotContains(t, first, ".", "%s imports third-party package %s", file, p)
		}
	}
}

func TestDomainLayersExist(t *testing.T) {
	imports := domainImports(t)
	for _, dir := range []string{"entities", "errors", "ports"} {
		found := false
		for file := range imports {
			if filepath.Dir(file) == dir {
				found = true
				break
			}
		}
		assert.True(t, found, "domain/%s has no Go files", dir)
	}
}
