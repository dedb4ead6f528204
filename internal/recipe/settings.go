package recipe

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/recipebuilder/internal/foundation/normalization"
)

// Setting names a recipe may declare.
const (
	SettingOS        = "os"
	SettingCompiler  = "compiler"
	SettingBuildType = "build_type"
	SettingArch      = "arch"
)

// Build types.
const (
	BuildTypeDebug          = "Debug"
	BuildTypeRelease        = "Release"
	BuildTypeRelWithDebInfo = "RelWithDebInfo"
	BuildTypeMinSizeRel     = "MinSizeRel"
)

var (
	osNormalizer = normalization.NewNormalizer(map[string]string{
		"linux":   "Linux",
		"macos":   "Macos",
		"darwin":  "Macos",
		"windows": "Windows",
		"freebsd": "FreeBSD",
	}, "")

	archNormalizer = normalization.NewNormalizer(map[string]string{
		"x86_64":  "x86_64",
		"amd64":   "x86_64",
		"x86":     "x86",
		"386":     "x86",
		"armv8":   "armv8",
		"arm64":   "armv8",
		"aarch64": "armv8",
		"armv7":   "armv7",
		"arm":     "armv7",
	}, "")

	buildTypeNormalizer = normalization.NewNormalizer(map[string]string{
		"debug":          BuildTypeDebug,
		"release":        BuildTypeRelease,
		"relwithdebinfo": BuildTypeRelWithDebInfo,
		"minsizerel":     BuildTypeMinSizeRel,
	}, "")
)

// Settings is the (os, compiler, build_type, arch) tuple supplied by the
// invoker at build time.
type Settings struct {
	OS        string `yaml:"os"`
	Compiler  string `yaml:"compiler"`
	BuildType string `yaml:"build_type"`
	Arch      string `yaml:"arch"`
}

// HostSettings describes the machine recipebuilder is running on.
func HostSettings() Settings {
	s := Settings{
		OS:        osNormalizer.Normalize(runtime.GOOS),
		Arch:      archNormalizer.Normalize(runtime.GOARCH),
		BuildType: BuildTypeRelease,
	}
	switch s.OS {
	case "Macos":
		s.Compiler = "apple-clang"
	case "Windows":
		s.Compiler = "Visual Studio"
	default:
		s.Compiler = "gcc"
	}
	return s
}

// WithDefaults fills empty fields from the given defaults.
func (s Settings) WithDefaults(d Settings) Settings {
	if s.OS == "" {
		s.OS = d.OS
	}
	if s.Compiler == "" {
		s.Compiler = d.Compiler
	}
	if s.BuildType == "" {
		s.BuildType = d.BuildType
	}
	if s.Arch == "" {
		s.Arch = d.Arch
	}
	return s
}

// Resolve validates the tuple and returns it in canonical spelling.
// Settings must be resolved before anything is built.
func (s Settings) Resolve() (Settings, error) {
	var err error
	out := Settings{Compiler: strings.TrimSpace(s.Compiler)}
	if out.OS, err = osNormalizer.NormalizeWithError(s.OS); err != nil {
		return Settings{}, fmt.Errorf("setting os: %w", err)
	}
	if out.Arch, err = archNormalizer.NormalizeWithError(s.Arch); err != nil {
		return Settings{}, fmt.Errorf("setting arch: %w", err)
	}
	if out.BuildType, err = buildTypeNormalizer.NormalizeWithError(s.BuildType); err != nil {
		return Settings{}, fmt.Errorf("setting build_type: %w", err)
	}
	if out.Compiler == "" {
		return Settings{}, fmt.Errorf("setting compiler: must not be empty")
	}
	return out, nil
}

// Value returns the setting by name.
func (s Settings) Value(name string) string {
	switch name {
	case SettingOS:
		return s.OS
	case SettingCompiler:
		return s.Compiler
	case SettingBuildType:
		return s.BuildType
	case SettingArch:
		return s.Arch
	default:
		return ""
	}
}

// Options are the recipe's build options.
type Options struct {
	Shared bool `yaml:"shared"`
}

// OptionValues lists the values a recipe accepts for each option.
type OptionValues struct {
	Shared []bool `yaml:"shared,flow"`
}

// Allows reports whether o is within the declared values.
func (v OptionValues) Allows(o Options) bool {
	for _, allowed := range v.Shared {
		if allowed == o.Shared {
			return true
		}
	}
	return false
}

// FormatBool renders option booleans the way package metadata spells them.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Env exports settings and options to build commands.
func Env(s Settings, o Options) []string {
	return []string{
		"RECIPE_OS=" + s.OS,
		"RECIPE_COMPILER=" + s.Compiler,
		"RECIPE_BUILD_TYPE=" + s.BuildType,
		"RECIPE_ARCH=" + s.Arch,
		"RECIPE_SHARED=" + strconv.FormatBool(o.Shared),
	}
}
