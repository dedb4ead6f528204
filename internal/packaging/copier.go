package packaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
)

// RuleResult records what a single rule copied.
type RuleResult struct {
	Rule  Rule
	Files []string // destination paths relative to the package root, slash separated
}

// Manifest is the artifact set produced by one packaging pass.
type Manifest struct {
	Results  []RuleResult
	Files    map[Category][]string
	Warnings []*ferrors.ClassifiedError
}

// Count returns the number of files copied for a category.
func (m *Manifest) Count(c Category) int {
	return len(m.Files[c])
}

// Total returns the number of files copied across all rules.
func (m *Manifest) Total() int {
	n := 0
	for _, files := range m.Files {
		n += len(files)
	}
	return n
}

// Copier applies rules from a source root into a package root.
type Copier struct {
	srcRoot string
	dstRoot string
}

// NewCopier creates a copier reading below srcRoot and writing below dstRoot.
func NewCopier(srcRoot, dstRoot string) *Copier {
	return &Copier{srcRoot: srcRoot, dstRoot: dstRoot}
}

// Copy applies the (already expanded) rules in order.
//
// Rules are independent: a rule matching nothing adds a packaging warning to
// the manifest and the next rule runs. Only invalid rules, I/O failures and
// cancellation return an error.
func (c *Copier) Copy(ctx context.Context, rules []Rule) (*Manifest, error) {
	m := &Manifest{Files: make(map[Category][]string)}
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		if err := validateRule(rule); err != nil {
			return m, err
		}

		files, err := c.apply(ctx, rule)
		if err != nil {
			return m, err
		}
		m.Results = append(m.Results, RuleResult{Rule: rule, Files: files})
		m.Files[rule.Category()] = append(m.Files[rule.Category()], files...)

		if len(files) == 0 {
			warn := ferrors.PackagingWarning("no files matched packaging rule").
				WithContext("pattern", rule.Pattern).
				WithContext("dst", rule.Dst).
				Build()
			m.Warnings = append(m.Warnings, warn)
			slog.Warn("Packaging rule matched no files", logfields.Pattern(rule.Pattern), logfields.Dst(rule.Dst))
			continue
		}
		slog.Debug("Packaging rule applied", logfields.Pattern(rule.Pattern), logfields.Dst(rule.Dst), logfields.Count(len(files)))
	}
	return m, nil
}

func validateRule(rule Rule) error {
	if !doublestar.ValidatePattern(rule.Pattern) {
		return ferrors.PackagingError("invalid packaging pattern").WithContext("pattern", rule.Pattern).Build()
	}
	for _, ex := range rule.Excludes {
		if !doublestar.ValidatePattern(ex) {
			return ferrors.PackagingError("invalid exclude pattern").WithContext("pattern", ex).Build()
		}
	}
	dst := path.Clean(filepath.ToSlash(rule.Dst))
	if rule.Dst == "" || path.IsAbs(dst) || dst == ".." || strings.HasPrefix(dst, "../") {
		return ferrors.PackagingError("packaging destination must be a relative directory inside the package").
			WithContext("dst", rule.Dst).Build()
	}
	return nil
}

// apply walks only the static prefix of the pattern, so a rule scoped to
// bin/Release never looks at bin/Debug.
func (c *Copier) apply(ctx context.Context, rule Rule) ([]string, error) {
	base, _ := doublestar.SplitPattern(rule.Pattern)
	walkRoot := c.srcRoot
	if base != "." && base != "" {
		walkRoot = filepath.Join(c.srcRoot, filepath.FromSlash(base))
	}
	if _, err := os.Stat(walkRoot); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat packaging source").
			WithContext("path", walkRoot).Build()
	}

	var copied []string
	err := filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(c.srcRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if excluded(rule.Excludes, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ok, err := doublestar.Match(rule.Pattern, rel)
		if err != nil || !ok {
			return err
		}
		if !isFile(p) {
			return nil
		}

		target := path.Join(rule.Dst, path.Base(rel))
		if rule.KeepPath {
			target = path.Join(rule.Dst, rel)
		}
		if err := copyFile(p, filepath.Join(c.dstRoot, filepath.FromSlash(target))); err != nil {
			return err
		}
		copied = append(copied, target)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errorsIsContext(err) {
			return copied, ctxErr
		}
		return copied, ferrors.WrapError(err, ferrors.CategoryFileSystem, "copy packaging artifacts").
			WithContext("pattern", rule.Pattern).Build()
	}
	return dedupe(copied), nil
}

func errorsIsContext(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func excluded(excludes []string, rel string) bool {
	for _, ex := range excludes {
		if ok, _ := doublestar.Match(ex, rel); ok {
			return true
		}
	}
	return false
}

// isFile reports whether p resolves to a regular file; symlinked libraries
// are followed.
func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// dedupe drops repeated destinations produced by flattening; the last
// source copied wins on disk.
func dedupe(files []string) []string {
	seen := make(map[string]bool, len(files))
	out := files[:0]
	for _, f := range files {
		if seen[f] {
			slog.Warn("Flattened artifact overwritten by a later match", logfields.Path(f))
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}
