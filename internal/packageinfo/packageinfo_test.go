package packageinfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/recipebuilder/internal/recipe"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestCollectLibs_DistinctSortedNonRecursive(t *testing.T) {
	pkg := t.TempDir()
	for _, f := range []string{
		"lib/libcppunix.so",
		"lib/libcppunix.a",
		"lib/fes.lib",
		"lib/libasync.dylib",
		"lib/README.txt",
		"lib/nested/libhidden.so",
	} {
		touch(t, filepath.Join(pkg, filepath.FromSlash(f)))
	}

	libs, err := CollectLibs(pkg)
	require.NoError(t, err)
	require.Equal(t, []string{"async", "cppunix", "fes"}, libs)
}

func TestCollectLibs_MissingLibDir(t *testing.T) {
	libs, err := CollectLibs(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, libs)
}

func TestLinkName(t *testing.T) {
	cases := map[string]string{
		"libfoo.so":    "foo",
		"libfoo.a":     "foo",
		"libfoo.dylib": "foo",
		"libfoo.lib":   "libfoo",
		"foo.lib":      "foo",
		"lib.so":       "lib",
	}
	for file, want := range cases {
		got, ok := LinkName(file)
		require.True(t, ok, file)
		require.Equal(t, want, got, file)
	}
	_, ok := LinkName("foo.dll")
	require.False(t, ok)
}

func sampleInfo(t *testing.T) *Info {
	t.Helper()
	r := recipe.Default()
	ref, err := r.Reference("npm-mas-mas", "testing")
	require.NoError(t, err)
	s := recipe.Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"}
	o := recipe.Options{Shared: true}
	info := New(r, ref, r.PackageID(s, o), s, o)
	info.Libs = []string{"cppunix"}
	return info
}

func TestWriteRead_RoundTripsDescriptor(t *testing.T) {
	dir := t.TempDir()
	info := sampleInfo(t)

	path, err := Write(dir, info)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, FileName), path)

	got, err := Read(dir)
	require.NoError(t, err)
	require.Equal(t, "cppunix/1.0.0@npm-mas-mas/testing", got.Reference)
	require.Equal(t, info.PackageID, got.PackageID)
	require.Equal(t, []string{"cppunix"}, got.Libs)
	require.Len(t, got.Requires, 2)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(t.TempDir())
	require.Error(t, err)
}

func TestGenerate_CMake(t *testing.T) {
	dir := t.TempDir()
	written, err := Generate(dir, []string{recipe.GeneratorCMake}, sampleInfo(t))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, CMakeFileName)}, written)

	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, `set(CPPUNIX_INCLUDE_DIRS "${CMAKE_CURRENT_LIST_DIR}/include")`)
	require.Contains(t, out, "set(CPPUNIX_LIBS cppunix)")
	require.Contains(t, out, "set(CPPUNIX_DEFINITIONS -DCPPUNIX_SHARED)")
}

func TestGenerate_StaticHasNoSharedDefinition(t *testing.T) {
	info := sampleInfo(t)
	info.Options.Shared = false
	dir := t.TempDir()
	_, err := Generate(dir, []string{recipe.GeneratorCMake}, info)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, CMakeFileName))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(data), "_SHARED"))
}

func TestGenerate_Unknown(t *testing.T) {
	_, err := Generate(t.TempDir(), []string{"premake"}, sampleInfo(t))
	require.Error(t, err)
}

func TestCMakeIdent(t *testing.T) {
	require.Equal(t, "FAST_EVENT_SYSTEM", cmakeIdent("fast-event-system"))
}
