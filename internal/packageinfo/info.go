package packageinfo

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/packaging"
	"git.home.luguber.info/inful/recipebuilder/internal/recipe"
)

// FileName is the descriptor written at the package root.
const FileName = "package_info.yaml"

// Info describes one binary package.
type Info struct {
	Name        string          `yaml:"name"`
	Version     string          `yaml:"version"`
	Reference   string          `yaml:"reference"`
	PackageID   string          `yaml:"package_id"`
	Settings    recipe.Settings `yaml:"settings"`
	Options     recipe.Options  `yaml:"options"`
	Requires    []string        `yaml:"requires"`
	Libs        []string        `yaml:"libs"`
	IncludeDirs []string        `yaml:"include_dirs"`
	LibDirs     []string        `yaml:"lib_dirs"`
	BinDirs     []string        `yaml:"bin_dirs"`
	Commit      string          `yaml:"commit,omitempty"`
	RunID       string          `yaml:"run_id,omitempty"`
	CreatedAt   time.Time       `yaml:"created_at"`
	Artifacts   map[string]int  `yaml:"artifacts,omitempty"`
}

// New builds the descriptor skeleton for a recipe; Libs are filled by the
// caller from CollectLibs.
func New(r *recipe.Recipe, ref recipe.Reference, id string, s recipe.Settings, o recipe.Options) *Info {
	reqs := make([]string, 0, len(r.Requires))
	for _, req := range r.DeclareRequirements() {
		reqs = append(reqs, req.String())
	}
	return &Info{
		Name:        r.Name,
		Version:     r.Version,
		Reference:   ref.String(),
		PackageID:   id,
		Settings:    s,
		Options:     o,
		Requires:    reqs,
		Libs:        []string{},
		IncludeDirs: []string{packaging.DirInclude},
		LibDirs:     []string{packaging.DirLib},
		BinDirs:     []string{packaging.DirBin},
		CreatedAt:   time.Now().UTC(),
	}
}

// Write stores info as package_info.yaml inside packageDir.
func Write(packageDir string, info *Info) (string, error) {
	data, err := yaml.Marshal(info)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryInternal, "encode package info").Build()
	}
	path := filepath.Join(packageDir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryPublish, "write package info").
			WithContext("path", path).Build()
	}
	return path, nil
}

// Read loads package_info.yaml from packageDir.
func Read(packageDir string) (*Info, error) {
	path := filepath.Join(packageDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.NewError(ferrors.CategoryNotFound, "package info not found").
				WithContext("path", path).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read package info").
			WithContext("path", path).Build()
	}
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryPublish, "decode package info").
			WithContext("path", path).Build()
	}
	return &info, nil
}
