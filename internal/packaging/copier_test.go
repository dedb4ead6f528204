package packaging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
)

func writeFile(t *testing.T, root, rel string, mode os.FileMode) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(rel), mode))
}

// sourceTree lays out a cloned library with artifacts for both build types.
func sourceTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	for _, rel := range []string{
		"cppunix/coroutine.h",
		"cppunix/detail/channel.h",
		"cppunix/node_modules/dep/dep.h",
		"cppunix/readerwriterqueue/readerwriterqueue.h",
		"cppunix/README.md",
		"cppunix/bin/Release/libcppunix.so",
		"cppunix/bin/Release/libcppunix.a",
		"cppunix/bin/Debug/libcppunix_d.so",
		"cppunix/bin/Debug/libcppunix_d.a",
	} {
		writeFile(t, src, rel, 0o644)
	}
	writeFile(t, src, "cppunix/bin/Release/test_channel_unittest", 0o755)
	writeFile(t, src, "cppunix/bin/Debug/test_channel_d_unittest", 0o755)
	return src
}

func copyDefault(t *testing.T, src, buildType string) (*Manifest, string) {
	t.Helper()
	dst := t.TempDir()
	rules := ExpandAll(DefaultRules(), Vars{Name: "cppunix", BuildType: buildType})
	m, err := NewCopier(src, dst).Copy(context.Background(), rules)
	require.NoError(t, err)
	return m, dst
}

func TestCopy_ReleaseOnlyInspectsReleaseDir(t *testing.T) {
	m, dst := copyDefault(t, sourceTree(t), "Release")

	require.ElementsMatch(t, []string{"lib/libcppunix.so", "lib/libcppunix.a"}, m.Files[CategoryLibraries])
	require.Equal(t, []string{"unittest/test_channel_unittest"}, m.Files[CategoryUnitTests])
	require.NoFileExists(t, filepath.Join(dst, "lib", "libcppunix_d.so"))
	require.NoFileExists(t, filepath.Join(dst, "unittest", "test_channel_d_unittest"))
}

func TestCopy_DebugOnlyInspectsDebugDir(t *testing.T) {
	m, dst := copyDefault(t, sourceTree(t), "Debug")

	require.ElementsMatch(t, []string{"lib/libcppunix_d.so", "lib/libcppunix_d.a"}, m.Files[CategoryLibraries])
	require.NoFileExists(t, filepath.Join(dst, "lib", "libcppunix.so"))
}

func TestCopy_HeadersKeepPathAndHonourExcludes(t *testing.T) {
	m, dst := copyDefault(t, sourceTree(t), "Release")

	require.ElementsMatch(t, []string{
		"include/cppunix/coroutine.h",
		"include/cppunix/detail/channel.h",
	}, m.Files[CategoryHeaders])
	require.FileExists(t, filepath.Join(dst, "include", "cppunix", "detail", "channel.h"))
	require.NoDirExists(t, filepath.Join(dst, "include", "cppunix", "node_modules"))
	require.NoDirExists(t, filepath.Join(dst, "include", "cppunix", "readerwriterqueue"))
}

func TestCopy_ZeroMatchesIsWarningNotError(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "cppunix/only.h", 0o644)

	m, dst := copyDefault(t, src, "Release")

	require.Equal(t, 1, m.Count(CategoryHeaders))
	require.Zero(t, m.Count(CategoryLibraries))
	require.Zero(t, m.Count(CategoryRuntime))
	require.Zero(t, m.Count(CategoryUnitTests))
	require.Len(t, m.Warnings, 6)
	for _, w := range m.Warnings {
		require.True(t, ferrors.IsPackagingWarning(w))
	}
	require.NoDirExists(t, filepath.Join(dst, "lib"))
}

func TestCopy_FlattensBinariesAndPreservesMode(t *testing.T) {
	_, dst := copyDefault(t, sourceTree(t), "Release")

	info, err := os.Stat(filepath.Join(dst, "unittest", "test_channel_unittest"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	data, err := os.ReadFile(filepath.Join(dst, "lib", "libcppunix.a"))
	require.NoError(t, err)
	require.Equal(t, "cppunix/bin/Release/libcppunix.a", string(data))
}

func TestCopy_RejectsEscapingDestination(t *testing.T) {
	_, err := NewCopier(t.TempDir(), t.TempDir()).Copy(context.Background(), []Rule{{Pattern: "*.h", Dst: "../outside"}})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPackaging))
}

func TestCopy_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCopier(sourceTree(t), t.TempDir()).Copy(ctx, DefaultRules())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRuleCategory(t *testing.T) {
	cases := map[string]Category{
		"include":  CategoryHeaders,
		"lib":      CategoryLibraries,
		"bin/":     CategoryRuntime,
		"unittest": CategoryUnitTests,
		"share":    CategoryOther,
	}
	for dst, want := range cases {
		require.Equal(t, want, Rule{Dst: dst}.Category(), dst)
	}
}

func TestExpandSubstitutesExcludes(t *testing.T) {
	r := DefaultRules()[0].Expand(Vars{Name: "lib", BuildType: "Debug"})
	require.Equal(t, "lib/**/*.h", r.Pattern)
	require.Equal(t, []string{"lib/node_modules", "lib/readerwriterqueue"}, r.Excludes)
}
