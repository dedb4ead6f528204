package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
)

func TestDeclareRequirements_FixedList(t *testing.T) {
	r := Default()
	want := []Requirement{
		{Name: "fast-event-system", Version: "1.0.18", User: "npm-mas-mas", Channel: "testing"},
		{Name: "spdlog", Version: "1.3.1", User: "bincrafters", Channel: "stable"},
	}

	require.Equal(t, want, r.DeclareRequirements())

	// Settings and options play no part in the declaration.
	_, err := r.ResolveOptions(ptr(false))
	require.NoError(t, err)
	require.Equal(t, want, r.DeclareRequirements())

	got := r.DeclareRequirements()
	got[0].Name = "mutated"
	require.Equal(t, "fast-event-system", r.DeclareRequirements()[0].Name)
}

func TestRequirementStrings(t *testing.T) {
	var got []string
	for _, req := range Default().DeclareRequirements() {
		got = append(got, req.String())
	}
	require.Equal(t, []string{
		"fast-event-system/1.0.18@npm-mas-mas/testing",
		"spdlog/1.3.1@bincrafters/stable",
	}, got)
}

func TestParseReference(t *testing.T) {
	ref, err := ParseReference("cppunix/1.0.0")
	require.NoError(t, err)
	require.Equal(t, Reference{Name: "cppunix", Version: "1.0.0"}, ref)
	require.Equal(t, "cppunix/1.0.0", ref.String())

	for _, bad := range []string{"", "cppunix", "cppunix/1.0@user", "cppunix/1.0@/testing", "cpp unix/1.0", "/1.0"} {
		_, err := ParseReference(bad)
		require.Error(t, err, bad)
	}
}

func TestParse_AppliesDefaults(t *testing.T) {
	r, err := Parse([]byte(`
name: mylib
version: 2.1.0
url: https://example.com/mylib.git
requires:
  - zlib/1.2.13@conan/stable
`))
	require.NoError(t, err)
	require.Equal(t, Default().Build, r.Build)
	require.Equal(t, Default().Package, r.Package)
	require.True(t, r.DefaultOptions.Shared)
	require.Len(t, r.DeclareRequirements(), 1)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing url":       "name: a\nversion: 1.0\n",
		"bad requirement":   "name: a\nversion: 1.0\nurl: x\nrequires: [nope]\n",
		"unknown generator": "name: a\nversion: 1.0\nurl: x\ngenerators: [scons]\n",
		"unknown setting":   "name: a\nversion: 1.0\nurl: x\nsettings: [os, libc]\n",
		"empty command":     "name: a\nversion: 1.0\nurl: x\nbuild:\n  commands: [[]]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation), err.Error())
		})
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("LIB_URL", "https://git.example.com/lib.git")
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: lib\nversion: 0.1.0\nurl: ${LIB_URL}\n"), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://git.example.com/lib.git", r.URL)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestInit_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false), "existing file needs --force")
	require.NoError(t, Init(path, true))

	r, err := Load(path)
	require.NoError(t, err)
	def := Default()
	require.Equal(t, def.DeclareRequirements(), r.DeclareRequirements())
	require.Equal(t, def.Package.Rules, r.Package.Rules)
	require.Equal(t, def.DefaultOptions, r.DefaultOptions)
}

func TestResolveOptions(t *testing.T) {
	r := Default()
	o, err := r.ResolveOptions(nil)
	require.NoError(t, err)
	require.True(t, o.Shared)

	r.Options.Shared = []bool{true}
	_, err = r.ResolveOptions(ptr(false))
	require.Error(t, err)
}

func TestPackageID(t *testing.T) {
	r := Default()
	release := Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"}
	debug := release
	debug.BuildType = "Debug"

	id := r.PackageID(release, Options{Shared: true})
	require.Len(t, id, 40)
	require.Equal(t, id, r.PackageID(release, Options{Shared: true}))
	require.NotEqual(t, id, r.PackageID(debug, Options{Shared: true}))
	require.NotEqual(t, id, r.PackageID(release, Options{Shared: false}))
}

func ptr[T any](v T) *T { return &v }
