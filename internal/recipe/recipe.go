package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/packaging"
)

// GeneratorCMake writes a CMake include file describing the package.
const GeneratorCMake = "cmake"

var (
	knownGenerators = []string{GeneratorCMake}
	knownSettings   = []string{SettingOS, SettingCompiler, SettingBuildType, SettingArch}
)

// Recipe is the immutable package descriptor.
type Recipe struct {
	Name           string       `yaml:"name"`
	Version        string       `yaml:"version"`
	License        string       `yaml:"license,omitempty"`
	URL            string       `yaml:"url"`
	Description    string       `yaml:"description,omitempty"`
	Settings       []string     `yaml:"settings,flow"`
	Options        OptionValues `yaml:"options"`
	DefaultOptions Options      `yaml:"default_options"`
	Generators     []string     `yaml:"generators,omitempty,flow"`
	Requires       []string     `yaml:"requires"`
	Source         SourceSpec   `yaml:"source,omitempty"`
	Build          BuildSpec    `yaml:"build"`
	Package        PackageSpec  `yaml:"package"`

	requirements []Requirement
}

// SourceSpec configures the fetch phase.
type SourceSpec struct {
	Branch string      `yaml:"branch,omitempty"`
	Depth  int         `yaml:"depth,omitempty"`
	Auth   *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig represents clone authentication.
type AuthConfig struct {
	Type     string `yaml:"type"` // "none", "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// BuildSpec lists the commands of the build phase, run in order inside the
// cloned directory. The first is the install step, the rest are tests.
type BuildSpec struct {
	Commands [][]string `yaml:"commands,flow"`
}

// PackageSpec holds the artifact rule table.
type PackageSpec struct {
	Rules []packaging.Rule `yaml:"rules"`
}

// Default returns the built-in recipe for the cppunix event-system library.
func Default() *Recipe {
	r := &Recipe{
		Name:           "cppunix",
		Version:        "1.0.0",
		License:        "Attribution 4.0 International",
		URL:            "https://github.com/makiolo/asyncply",
		Description:    "This fast event system allows calls between two interfaces decoupled (sync or async)",
		Settings:       []string{SettingOS, SettingCompiler, SettingBuildType, SettingArch},
		Options:        OptionValues{Shared: []bool{true, false}},
		DefaultOptions: Options{Shared: true},
		Generators:     []string{GeneratorCMake},
		Requires: []string{
			"fast-event-system/1.0.18@npm-mas-mas/testing",
			"spdlog/1.3.1@bincrafters/stable",
		},
		Build: BuildSpec{Commands: [][]string{
			{"npm", "install"},
			{"npm", "test"},
		}},
		Package: PackageSpec{Rules: packaging.DefaultRules()},
	}
	if err := r.Validate(); err != nil {
		panic(err)
	}
	return r
}

// Load reads a recipe from a YAML file. Environment variables in the file
// are expanded; omitted sections fall back to the built-in defaults.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("recipe file not found").WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read recipe").Fatal().WithContext("path", path).Build()
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes and validates a YAML recipe.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "decode recipe").Fatal().Build()
	}
	r.applyDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Recipe) applyDefaults() {
	def := Default()
	if len(r.Settings) == 0 {
		r.Settings = def.Settings
	}
	if len(r.Options.Shared) == 0 {
		r.Options = def.Options
		r.DefaultOptions = def.DefaultOptions
	}
	if len(r.Build.Commands) == 0 {
		r.Build = def.Build
	}
	if len(r.Package.Rules) == 0 {
		r.Package = def.Package
	}
}

// Validate checks the static data and parses the requirement list.
func (r *Recipe) Validate() error {
	invalid := func(msg string) *errors.ErrorBuilder {
		return errors.ValidationError(msg).WithContext("recipe", r.Name)
	}
	if err := (Reference{Name: r.Name, Version: r.Version}).Validate(); err != nil {
		return invalid("invalid recipe name or version").WithCause(err).Build()
	}
	if strings.TrimSpace(r.URL) == "" {
		return invalid("recipe url is required").Build()
	}
	for _, s := range r.Settings {
		if !slices.Contains(knownSettings, s) {
			return invalid("unknown setting").WithContext("setting", s).Build()
		}
	}
	if !r.Options.Allows(r.DefaultOptions) {
		return invalid("default option shared is not an allowed value").Build()
	}
	for _, g := range r.Generators {
		if !slices.Contains(knownGenerators, g) {
			return invalid("unknown generator").WithContext("generator", g).Build()
		}
	}
	for i, cmd := range r.Build.Commands {
		if len(cmd) == 0 || strings.TrimSpace(cmd[0]) == "" {
			return invalid("empty build command").WithContext("index", i).Build()
		}
	}
	for _, rule := range r.Package.Rules {
		if rule.Pattern == "" || rule.Dst == "" {
			return invalid("packaging rule needs pattern and dst").WithContext("pattern", rule.Pattern).Build()
		}
	}

	reqs := make([]Requirement, 0, len(r.Requires))
	for _, raw := range r.Requires {
		ref, err := ParseReference(raw)
		if err != nil {
			return invalid("malformed requirement").WithCause(err).Build()
		}
		reqs = append(reqs, ref)
	}
	r.requirements = reqs
	return nil
}

// DeclareRequirements returns the declared dependency references. The result
// is a copy and does not depend on settings or options.
func (r *Recipe) DeclareRequirements() []Requirement {
	return slices.Clone(r.requirements)
}

// Reference names this recipe's own package.
func (r *Recipe) Reference(user, channel string) (Reference, error) {
	ref := Reference{Name: r.Name, Version: r.Version, User: user, Channel: channel}
	return ref, ref.Validate()
}

// ResolveOptions applies overrides to the defaults and checks them.
func (r *Recipe) ResolveOptions(shared *bool) (Options, error) {
	o := r.DefaultOptions
	if shared != nil {
		o.Shared = *shared
	}
	if !r.Options.Allows(o) {
		return Options{}, errors.ValidationError("option value not allowed by recipe").
			WithContext("shared", o.Shared).Build()
	}
	return o, nil
}

// PackageID hashes everything that changes the binary package: the declared
// settings, the options and the requirements.
func (r *Recipe) PackageID(s Settings, o Options) string {
	var sb strings.Builder
	sb.WriteString("[settings]\n")
	names := slices.Clone(r.Settings)
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s=%s\n", name, s.Value(name))
	}
	fmt.Fprintf(&sb, "[options]\nshared=%s\n[requires]\n", FormatBool(o.Shared))
	reqs := make([]string, 0, len(r.requirements))
	for _, req := range r.requirements {
		reqs = append(reqs, req.String())
	}
	slices.Sort(reqs)
	for _, req := range reqs {
		sb.WriteString(req + "\n")
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])[:40]
}

// Init writes the built-in recipe to path as a starting point.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("recipe file already exists (use --force to overwrite)").WithContext("path", path).Build()
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode recipe").Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write recipe").WithContext("path", path).Build()
	}
	return nil
}
