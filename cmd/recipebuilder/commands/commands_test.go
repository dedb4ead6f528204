package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/packageinfo"
	"git.home.luguber.info/inful/recipebuilder/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("recipebuilder"),
		kong.Vars{"version": "test"},
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
	)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

// seedLibrary creates a git repository holding one header and writes a
// recipe that fetches it and fakes a Release build.
func seedLibrary(t *testing.T) string {
	t.Helper()
	remote, _ := testutil.SeedGitRepo(t, map[string]string{"coroutine.h": "#pragma once\n"})

	recipePath := filepath.Join(t.TempDir(), "recipe.yaml")
	content := `name: cppunix
version: 1.0.0
url: ` + remote + `
requires:
  - fast-event-system/1.0.18@npm-mas-mas/testing
  - spdlog/1.3.1@bincrafters/stable
build:
  commands:
    - [sh, -c, "mkdir -p bin/Release && touch bin/Release/libcppunix.so"]
`
	require.NoError(t, os.WriteFile(recipePath, []byte(content), 0o600))
	return recipePath
}

func TestRequirements_BuiltInRecipe(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCLI(t, "requirements")
	require.NoError(t, err)
	require.Equal(t, "fast-event-system/1.0.18@npm-mas-mas/testing\nspdlog/1.3.1@bincrafters/stable\n", out)
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCLI(t, "init")
	require.NoError(t, err)
	require.Contains(t, out, "initialized successfully")
	require.FileExists(t, DefaultRecipePath)

	_, err = runCLI(t, "init")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = runCLI(t, "init", "--force")
	require.NoError(t, err)

	out, err = runCLI(t, "-r", DefaultRecipePath, "requirements")
	require.NoError(t, err)
	require.Contains(t, out, "spdlog/1.3.1@bincrafters/stable")
}

func TestCreate_FetchesBuildsPackagesAndPublishes(t *testing.T) {
	t.Chdir(t.TempDir())
	recipePath := seedLibrary(t)
	ws := filepath.Join(t.TempDir(), "ws")

	out, err := runCLI(t, "-r", recipePath, "create", "--workspace", ws, "--os", "Linux", "--arch", "x86_64", "--compiler", "gcc")
	require.NoError(t, err)
	require.Contains(t, out, "Package cppunix/1.0.0")
	require.Contains(t, out, "libs:    cppunix")
	require.Contains(t, out, "status:  succeeded_with_warnings")

	out, err = runCLI(t, "-r", recipePath, "info", "--workspace", ws, "--os", "Linux", "--arch", "x86_64", "--compiler", "gcc")
	require.NoError(t, err)
	require.Contains(t, out, "name: cppunix")
	require.Contains(t, out, "- cppunix")

	out, err = runCLI(t, "history", "--workspace", ws)
	require.NoError(t, err)
	require.Contains(t, out, "succeeded_with_warnings")
	require.Contains(t, out, "run_completed")
}

func TestPackage_StrictFailsOnEmptyRules(t *testing.T) {
	t.Chdir(t.TempDir())
	recipePath := seedLibrary(t)
	ws := filepath.Join(t.TempDir(), "ws")

	_, err := runCLI(t, "-r", recipePath, "source", "--workspace", ws)
	require.NoError(t, err)
	_, err = runCLI(t, "-r", recipePath, "build", "--workspace", ws)
	require.NoError(t, err)

	_, err = runCLI(t, "-r", recipePath, "package", "--workspace", ws, "--strict")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPackaging))

	out, err := runCLI(t, "-r", recipePath, "package", "--workspace", ws)
	require.NoError(t, err)
	require.Contains(t, out, "libs:    cppunix")
}

func TestBuild_WithoutSourceFails(t *testing.T) {
	t.Chdir(t.TempDir())
	recipePath := seedLibrary(t)

	_, err := runCLI(t, "-r", recipePath, "build", "--workspace", filepath.Join(t.TempDir(), "ws"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestCreate_EphemeralKeepsOnlyThePackage(t *testing.T) {
	t.Chdir(t.TempDir())
	recipePath := seedLibrary(t)
	base := filepath.Join(t.TempDir(), "base")

	out, err := runCLI(t, "-r", recipePath, "create", "--ephemeral", "--workspace", base)
	require.NoError(t, err)

	var folder string
	for _, line := range strings.Split(out, "\n") {
		if after, ok := strings.CutPrefix(strings.TrimSpace(line), "folder:"); ok {
			folder = strings.TrimSpace(after)
		}
	}
	require.Equal(t, filepath.Join(base, "package"), filepath.Dir(folder))

	info, err := packageinfo.Read(folder)
	require.NoError(t, err)
	require.Equal(t, []string{"cppunix"}, info.Libs)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.Name(), "recipebuilder-"), "ephemeral workspace %s left behind", e.Name())
	}
}

func TestSharedFlagsAreExclusive(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := runCLI(t, "source", "--shared", "--no-shared")
	require.Error(t, err)
}

func TestHistory_JournalOff(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recipebuilder.yaml"), []byte("journal:\n  path: \"off\"\n"), 0o600))

	_, err := runCLI(t, "history")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestWatch_NeedsRecipeFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := runCLI(t, "watch")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestSchedule_NeedsInterval(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := runCLI(t, "schedule")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestInfo_AcceptsOnlySettingsFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	for _, flag := range []string{"--strict", "--ephemeral", "--user=me", "--channel=stable"} {
		_, err := runCLI(t, "info", flag)
		require.Error(t, err, flag)
	}

	_, err := runCLI(t, "info", "--no-shared", "--build-type", "Debug", "--workspace", t.TempDir())
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestChildOutput_FollowsVerbose(t *testing.T) {
	require.Nil(t, (&CLI{}).childOutput())
	require.Equal(t, os.Stderr, (&CLI{Verbose: true}).childOutput())
}
