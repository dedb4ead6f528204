package pipeline

import (
	"context"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/recipebuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/git"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
	"git.home.luguber.info/inful/recipebuilder/internal/notify"
	"git.home.luguber.info/inful/recipebuilder/internal/packageinfo"
	"git.home.luguber.info/inful/recipebuilder/internal/packaging"
)

// FetchSource clones url (the recipe URL when empty) into the source
// folder, replacing an earlier checkout. Failures are FetchErrors and are
// not retried.
func (r *Runner) FetchSource(ctx context.Context, url string) (*git.CloneResult, error) {
	var res *git.CloneResult
	err := r.runPhase(ctx, PhaseFetch, func(ctx context.Context) (map[string]any, error) {
		src := git.SourceFor(r.recipe)
		if url != "" {
			src.URL = url
		}
		var err error
		res, err = r.fetcher.Clone(ctx, src)
		if err != nil {
			return nil, err
		}
		r.commit = res.Commit
		return map[string]any{"url": src.URL, "commit": res.Commit, "path": res.Path}, nil
	})
	return res, err
}

// Build runs the recipe's build commands inside the source folder with the
// resolved settings exported to the environment.
func (r *Runner) Build(ctx context.Context) error {
	return r.runPhase(ctx, PhaseBuild, func(ctx context.Context) (map[string]any, error) {
		res, err := r.builder.Run(ctx, r.SourceDir(), r.recipe.Build.Commands)
		if err != nil {
			return nil, err
		}
		return map[string]any{"steps": len(res.Steps), "build_type": r.settings.BuildType}, nil
	})
}

// PackageArtifacts copies artifacts into a fresh package folder using the
// recipe's rule table. Rules matching nothing produce packaging warnings;
// in strict mode any warning fails the phase once all rules have run.
func (r *Runner) PackageArtifacts(ctx context.Context) (*packaging.Manifest, error) {
	var manifest *packaging.Manifest
	err := r.runPhase(ctx, PhasePackage, func(ctx context.Context) (map[string]any, error) {
		pkgDir := r.PackageDir()
		if err := os.RemoveAll(pkgDir); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "clear package folder").
				WithContext("path", pkgDir).Build()
		}
		if err := os.MkdirAll(pkgDir, 0o755); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create package folder").
				WithContext("path", pkgDir).Build()
		}

		rules := packaging.ExpandAll(r.recipe.Package.Rules, packaging.Vars{
			Name:      r.recipe.Name,
			BuildType: r.settings.BuildType,
		})
		m, err := packaging.NewCopier(r.ws.SourceDir(), pkgDir).Copy(ctx, rules)
		manifest, r.manifest = m, m
		if err != nil {
			return nil, err
		}

		r.warnings = m.Warnings
		patterns := make([]string, 0, len(m.Warnings))
		for _, w := range m.Warnings {
			pattern, _ := w.Context().GetString("pattern")
			dst, _ := w.Context().GetString("dst")
			patterns = append(patterns, pattern)
			r.emit(ctx, func() (*eventstore.BaseEvent, error) {
				return eventstore.NewPackagingWarning(r.runID, pattern, dst)
			})
		}
		r.recorder.AddPackagingWarnings(len(m.Warnings))

		counts := make(map[string]any)
		for _, c := range packaging.Categories {
			r.recorder.SetArtifacts(string(c), m.Count(c))
			counts[string(c)] = m.Count(c)
		}

		if r.strict && len(m.Warnings) > 0 {
			return nil, ferrors.PackagingError("packaging rules matched no files (strict mode)").
				Fatal().
				WithContext("patterns", patterns).
				Build()
		}
		return map[string]any{"artifacts": counts, "warnings": len(m.Warnings), "path": pkgDir}, nil
	})
	return manifest, err
}

// PublishPackageInfo returns the distinct link names found directly in the
// package's lib folder, sorted. It also writes package_info.yaml, runs the
// recipe's generators and announces the package.
func (r *Runner) PublishPackageInfo(ctx context.Context) ([]string, error) {
	var libs []string
	err := r.runPhase(ctx, PhasePublish, func(ctx context.Context) (map[string]any, error) {
		pkgDir := r.PackageDir()
		var err error
		libs, err = packageinfo.CollectLibs(pkgDir)
		if err != nil {
			return nil, err
		}
		r.libs = libs

		info := packageinfo.New(r.recipe, r.reference, r.packageID, r.settings, r.options)
		info.Libs = libs
		info.RunID = r.runID
		info.Commit = r.commit
		if info.Commit == "" {
			if head, herr := git.HeadCommit(r.SourceDir()); herr == nil {
				info.Commit = head
			}
		}
		if r.manifest != nil {
			info.Artifacts = make(map[string]int)
			for _, c := range packaging.Categories {
				info.Artifacts[string(c)] = r.manifest.Count(c)
			}
		}

		path, err := packageinfo.Write(pkgDir, info)
		if err != nil {
			return nil, err
		}
		generated, err := packageinfo.Generate(pkgDir, r.recipe.Generators, info)
		if err != nil {
			return nil, err
		}
		r.infoFiles = append([]string{path}, generated...)
		r.recorder.SetPublishedLibs(len(libs))

		event := &notify.PackagePublished{
			RunID:     r.runID,
			Reference: info.Reference,
			PackageID: r.packageID,
			BuildType: r.settings.BuildType,
			Libs:      libs,
			Path:      pkgDir,
			Warnings:  len(r.warnings),
		}
		if nerr := r.notifier.PackagePublished(ctx, event); nerr != nil {
			slog.Warn("Package notification failed", logfields.RunID(r.runID), logfields.Error(nerr))
		}

		slog.Info("Package info published", logfields.PackageID(r.packageID), slog.Any("libs", libs), logfields.Path(path))
		return map[string]any{"libs": libs, "files": r.infoFiles}, nil
	})
	return libs, err
}
