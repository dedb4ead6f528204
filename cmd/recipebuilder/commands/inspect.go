package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/recipebuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/recipebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/recipebuilder/internal/packageinfo"
	"git.home.luguber.info/inful/recipebuilder/internal/pipeline"
	"git.home.luguber.info/inful/recipebuilder/internal/workspace"
)

// RequirementsCmd implements the 'requirements' command.
type RequirementsCmd struct{}

func (c *RequirementsCmd) Run(g *Global, root *CLI) error {
	rc, err := root.LoadRecipe()
	if err != nil {
		return err
	}
	for _, req := range rc.DeclareRequirements() {
		_, _ = fmt.Fprintln(g.Out, req.String())
	}
	return nil
}

// InfoCmd implements the 'info' command.
type InfoCmd struct {
	SettingsFlags `embed:""`
	Dir           string `arg:"" optional:"" help:"Package folder (derived from the settings when omitted)"`
}

func (c *InfoCmd) Run(g *Global, root *CLI) error {
	dir := c.Dir
	if dir == "" {
		resolved, err := c.packageDir(root)
		if err != nil {
			return err
		}
		dir = resolved
	}
	info, err := packageinfo.Read(dir)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(g.Out)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(info); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode package info").Build()
	}
	return nil
}

// packageDir derives <base_dir>/package/<id> from the settings flags.
func (c *InfoCmd) packageDir(root *CLI) (string, error) {
	cfg, err := root.LoadConfig()
	if err != nil {
		return "", err
	}
	c.applyWorkspace(cfg)
	rc, err := root.LoadRecipe()
	if err != nil {
		return "", err
	}
	runner, err := pipeline.New(rc, workspace.NewPersistentManager(cfg.Workspace.BaseDir), c.baseRequest(TriggerCLI))
	if err != nil {
		return "", err
	}
	return runner.PackageDir(), nil
}

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	RunID     string `name:"run" help:"Show the events of this run instead of the latest"`
	Limit     int    `name:"limit" short:"n" help:"List the most recent runs instead of one run's events" default:"0"`
	Workspace string `name:"workspace" help:"Workspace directory (overrides workspace.base_dir)"`
}

func (c *HistoryCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if c.Workspace != "" {
		cfg.Workspace.BaseDir = c.Workspace
	}
	if !cfg.JournalEnabled() {
		return ferrors.ConfigError("run journal is disabled (journal.path: off)").Build()
	}
	store, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if c.Limit > 0 {
		runs, err := eventstore.History(ctx, store, c.Limit)
		if err != nil {
			return err
		}
		for _, s := range runs {
			printSummaryLine(g.Out, s)
		}
		return nil
	}

	runID := c.RunID
	if runID == "" {
		if runID, err = store.LatestRunID(ctx); err != nil {
			return err
		}
	}
	events, err := store.GetByRunID(ctx, runID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return ferrors.NewError(ferrors.CategoryNotFound, "no journaled events for run").WithContext("run_id", runID).Build()
	}
	printSummaryLine(g.Out, eventstore.Summarize(events))
	for _, e := range events {
		line := fmt.Sprintf("  %s  %-18s", e.Timestamp().Format(time.RFC3339), e.Type())
		if phase := e.Metadata()["phase"]; phase != "" {
			line += " " + phase
		}
		_, _ = fmt.Fprintln(g.Out, strings.TrimRight(line, " "))
	}
	return nil
}

func printSummaryLine(w io.Writer, s *eventstore.RunSummary) {
	line := fmt.Sprintf("%s  %s  %s  %s", s.StartedAt.Format(time.RFC3339), s.RunID, s.Reference, s.Status)
	if s.ErrorPhase != "" {
		line += fmt.Sprintf(" (%s: %s)", s.ErrorPhase, s.ErrorMessage)
	}
	if s.Warnings > 0 {
		line += fmt.Sprintf(" warnings=%d", s.Warnings)
	}
	_, _ = fmt.Fprintln(w, line)
}
