package packageinfo

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/packaging"
)

// libraryExts are the file extensions treated as linkable libraries.
var libraryExts = []string{".so", ".a", ".lib", ".dylib"}

// CollectLibs scans <packageDir>/lib (not recursively) and returns the
// distinct link names, sorted. "libfoo.so" and "libfoo.a" both yield "foo";
// "foo.lib" yields "foo". A missing lib directory yields no names.
func CollectLibs(packageDir string) ([]string, error) {
	libDir := filepath.Join(packageDir, packaging.DirLib)
	entries, err := os.ReadDir(libDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryPublish, "read library directory").
			WithContext("path", libDir).Build()
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := LinkName(e.Name()); ok {
			seen[name] = struct{}{}
		}
	}
	libs := make([]string, 0, len(seen))
	for name := range seen {
		libs = append(libs, name)
	}
	slices.Sort(libs)
	return libs, nil
}

// LinkName derives the linker name of a library file.
func LinkName(file string) (string, bool) {
	ext := filepath.Ext(file)
	if !slices.Contains(libraryExts, ext) {
		return "", false
	}
	name := strings.TrimSuffix(file, ext)
	if ext != ".lib" && strings.HasPrefix(name, "lib") && len(name) > len("lib") {
		name = strings.TrimPrefix(name, "lib")
	}
	if name == "" {
		return "", false
	}
	return name, true
}
