package packaging

import (
	"path"
	"strings"
)

// Category groups copied files by the kind of artifact they are.
type Category string

const (
	CategoryHeaders   Category = "headers"
	CategoryLibraries Category = "libraries"
	CategoryRuntime   Category = "runtime"
	CategoryUnitTests Category = "unittests"
	CategoryOther     Category = "other"
)

// Categories lists every category in reporting order.
var Categories = []Category{CategoryHeaders, CategoryLibraries, CategoryRuntime, CategoryUnitTests, CategoryOther}

// Standard destination directories inside a package folder.
const (
	DirInclude  = "include"
	DirLib      = "lib"
	DirBin      = "bin"
	DirUnitTest = "unittest"
)

// Rule maps a glob pattern to a destination directory.
//
// Pattern and Excludes may reference {name} (the recipe name, which is also
// the clone folder) and {build_type}. Patterns use doublestar syntax, so a
// single '*' never crosses a path separator and '**' does.
type Rule struct {
	Pattern  string   `yaml:"pattern"`
	Dst      string   `yaml:"dst"`
	KeepPath bool     `yaml:"keep_path,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`
}

// DefaultRules returns the artifact table for a library built into
// {name}/bin/{build_type}.
func DefaultRules() []Rule {
	return []Rule{
		{
			Pattern:  "{name}/**/*.h",
			Dst:      DirInclude,
			KeepPath: true,
			Excludes: []string{"{name}/node_modules", "{name}/readerwriterqueue"},
		},
		{Pattern: "{name}/bin/{build_type}/*.lib", Dst: DirLib},
		{Pattern: "{name}/bin/{build_type}/*.dll", Dst: DirBin},
		{Pattern: "{name}/bin/{build_type}/*_unittest", Dst: DirUnitTest},
		{Pattern: "{name}/bin/{build_type}/*.so", Dst: DirLib},
		{Pattern: "{name}/bin/{build_type}/*.dylib", Dst: DirLib},
		{Pattern: "{name}/bin/{build_type}/*.a", Dst: DirLib},
	}
}

// Vars are the placeholder values substituted into rules.
type Vars struct {
	Name      string
	BuildType string
}

func (v Vars) replacer() *strings.Replacer {
	return strings.NewReplacer("{name}", v.Name, "{build_type}", v.BuildType)
}

// Expand returns a copy of the rule with placeholders substituted.
func (r Rule) Expand(v Vars) Rule {
	rep := v.replacer()
	out := Rule{
		Pattern:  rep.Replace(r.Pattern),
		Dst:      r.Dst,
		KeepPath: r.KeepPath,
	}
	for _, ex := range r.Excludes {
		out.Excludes = append(out.Excludes, rep.Replace(ex))
	}
	return out
}

// Category classifies the rule by its destination directory.
func (r Rule) Category() Category {
	switch path.Clean(r.Dst) {
	case DirInclude:
		return CategoryHeaders
	case DirLib:
		return CategoryLibraries
	case DirBin:
		return CategoryRuntime
	case DirUnitTest:
		return CategoryUnitTests
	default:
		return CategoryOther
	}
}

// ExpandAll substitutes placeholders in every rule.
func ExpandAll(rules []Rule, v Vars) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Expand(v))
	}
	return out
}
