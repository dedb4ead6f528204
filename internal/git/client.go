package git

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/logfields"
	"git.home.luguber.info/inful/recipebuilder/internal/recipe"
)

// Source describes what to clone.
type Source struct {
	Name   string // folder name below the source directory
	URL    string
	Branch string
	Depth  int
	Auth   *recipe.AuthConfig
}

// SourceFor builds the clone description of a recipe.
func SourceFor(r *recipe.Recipe) Source {
	return Source{
		Name:   r.Name,
		URL:    r.URL,
		Branch: r.Source.Branch,
		Depth:  r.Source.Depth,
		Auth:   r.Source.Auth,
	}
}

// CloneResult reports where the source landed.
type CloneResult struct {
	Path   string
	Commit string
}

// Client handles Git operations
type Client struct {
	sourceDir string
	progress  io.Writer
}

// NewClient creates a client cloning below sourceDir.
func NewClient(sourceDir string) *Client {
	return &Client{sourceDir: sourceDir}
}

// WithProgress streams clone progress to w (fluent helper).
func (c *Client) WithProgress(w io.Writer) *Client { c.progress = w; return c }

// Path returns the checkout location for a source name.
func (c *Client) Path(name string) string {
	return filepath.Join(c.sourceDir, name)
}

// Clone clones src.URL into <sourceDir>/<src.Name>, replacing any previous
// checkout. Failures are returned as classified fetch errors.
func (c *Client) Clone(ctx context.Context, src Source) (*CloneResult, error) {
	if strings.TrimSpace(src.URL) == "" {
		return nil, ferrors.FetchError("source url is empty").WithContext("recipe", src.Name).Build()
	}
	repoPath := c.Path(src.Name)
	slog.Debug("Cloning repository", logfields.URL(src.URL), logfields.Recipe(src.Name), slog.String("branch", src.Branch), logfields.Path(repoPath))

	if err := os.MkdirAll(c.sourceDir, 0o750); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create source directory").WithContext("path", c.sourceDir).Build()
	}
	if err := os.RemoveAll(repoPath); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove existing checkout").WithContext("path", repoPath).Build()
	}

	cloneOptions := &git.CloneOptions{URL: src.URL, Progress: c.progress}
	if src.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
		cloneOptions.SingleBranch = true
	}
	if src.Depth > 0 {
		cloneOptions.Depth = src.Depth
	}
	if src.Auth != nil {
		auth, err := getAuthentication(src.Auth)
		if err != nil {
			return nil, ferrors.FetchError("invalid source authentication").WithCause(err).
				WithContext("recipe", src.Name).WithContext("reason", "auth").Build()
		}
		cloneOptions.Auth = auth
	}

	repository, err := git.PlainCloneContext(ctx, repoPath, false, cloneOptions)
	if err != nil {
		_ = os.RemoveAll(repoPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("clone %s: %w", src.URL, ctxErr)
		}
		return nil, fetchError(src.Name, src.URL, err)
	}

	result := &CloneResult{Path: repoPath}
	if ref, herr := repository.Head(); herr == nil {
		result.Commit = ref.Hash().String()
		slog.Info("Repository cloned successfully", logfields.Recipe(src.Name), logfields.URL(src.URL), slog.String("commit", result.Commit[:8]), logfields.Path(repoPath))
	} else {
		slog.Info("Repository cloned successfully", logfields.Recipe(src.Name), logfields.URL(src.URL), logfields.Path(repoPath))
	}
	return result, nil
}

// IsCloned reports whether path holds a git checkout.
func IsCloned(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

// HeadCommit returns the checked out commit of an existing clone.
func HeadCommit(path string) (string, error) {
	repository, err := git.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	ref, err := repository.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}
