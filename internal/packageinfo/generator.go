package packageinfo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/recipe"
)

// Generator renders consumer build-system glue from package info.
type Generator interface {
	Name() string
	Generate(packageDir string, info *Info) (string, error)
}

var generators = map[string]Generator{
	recipe.GeneratorCMake: cmakeGenerator{},
}

// Generate runs the named generators and returns the files they wrote.
func Generate(packageDir string, names []string, info *Info) ([]string, error) {
	var written []string
	for _, name := range names {
		g, ok := generators[name]
		if !ok {
			return written, ferrors.ValidationError("unknown generator").WithContext("generator", name).Build()
		}
		path, err := g.Generate(packageDir, info)
		if err != nil {
			return written, ferrors.WrapError(err, ferrors.CategoryPublish, "generator failed").
				WithContext("generator", name).Build()
		}
		written = append(written, path)
	}
	return written, nil
}

// CMakeFileName is the include file written by the cmake generator.
const CMakeFileName = "buildinfo.cmake"

var cmakeTemplate = template.Must(template.New("cmake").Parse(`# Generated by recipebuilder for {{.Info.Reference}} ({{.Info.PackageID}})
set({{.Prefix}}_ROOT "${CMAKE_CURRENT_LIST_DIR}")
set({{.Prefix}}_INCLUDE_DIRS{{range .Info.IncludeDirs}} "${CMAKE_CURRENT_LIST_DIR}/{{.}}"{{end}})
set({{.Prefix}}_LIB_DIRS{{range .Info.LibDirs}} "${CMAKE_CURRENT_LIST_DIR}/{{.}}"{{end}})
set({{.Prefix}}_BIN_DIRS{{range .Info.BinDirs}} "${CMAKE_CURRENT_LIST_DIR}/{{.}}"{{end}})
set({{.Prefix}}_LIBS{{range .Info.Libs}} {{.}}{{end}})
set({{.Prefix}}_DEFINITIONS{{range .Definitions}} {{.}}{{end}})
`))

type cmakeGenerator struct{}

func (cmakeGenerator) Name() string { return recipe.GeneratorCMake }

func (cmakeGenerator) Generate(packageDir string, info *Info) (string, error) {
	prefix := cmakeIdent(info.Name)
	var defs []string
	if info.Options.Shared {
		defs = append(defs, fmt.Sprintf("-D%s_SHARED", prefix))
	}
	var buf bytes.Buffer
	if err := cmakeTemplate.Execute(&buf, struct {
		Prefix      string
		Info        *Info
		Definitions []string
	}{prefix, info, defs}); err != nil {
		return "", err
	}
	path := filepath.Join(packageDir, CMakeFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// cmakeIdent upper-cases name and replaces anything CMake would choke on.
func cmakeIdent(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
}
