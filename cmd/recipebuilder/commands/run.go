package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"git.home.luguber.info/inful/recipebuilder/internal/pipeline"
)

// TriggerCLI marks runs started from the command line.
const TriggerCLI = "cli"

// CreateCmd implements the 'create' command.
type CreateCmd struct {
	RunFlags `embed:""`
}

func (c *CreateCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	return runPhases(ctx, g, root, &c.RunFlags)
}

// SourceCmd implements the 'source' command.
type SourceCmd struct {
	RunFlags `embed:""`
}

func (c *SourceCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	return runPhases(ctx, g, root, &c.RunFlags, pipeline.PhaseFetch)
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	RunFlags `embed:""`
}

func (c *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	return runPhases(ctx, g, root, &c.RunFlags, pipeline.PhaseBuild)
}

// PackageCmd implements the 'package' command.
type PackageCmd struct {
	RunFlags `embed:""`
}

func (c *PackageCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	return runPhases(ctx, g, root, &c.RunFlags, pipeline.PhasePackage, pipeline.PhasePublish)
}

func runPhases(ctx context.Context, g *Global, root *CLI, flags *RunFlags, phases ...pipeline.Phase) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	flags.apply(cfg)

	rc, err := root.LoadRecipe()
	if err != nil {
		return err
	}

	s, err := openSession(cfg, root.childOutput())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	res, err := s.execute(ctx, rc, flags.request(cfg, TriggerCLI), phases...)
	if res != nil {
		printResult(g.Out, res)
	}
	return err
}

func printResult(w io.Writer, res *pipeline.Result) {
	_, _ = fmt.Fprintf(w, "Package %s\n", res.Reference)
	_, _ = fmt.Fprintf(w, "  run:     %s\n", res.RunID)
	_, _ = fmt.Fprintf(w, "  id:      %s\n", res.PackageID)
	for _, p := range res.Phases {
		state := "ok"
		if !p.IsSuccess() {
			state = "failed"
		}
		_, _ = fmt.Fprintf(w, "  %-8s %s (%s)\n", string(p.Phase)+":", state, p.Duration.Round(time.Millisecond))
	}
	if res.Commit != "" {
		_, _ = fmt.Fprintf(w, "  commit:  %s\n", res.Commit)
	}
	if res.Manifest != nil {
		_, _ = fmt.Fprintf(w, "  folder:  %s\n", res.PackageDir)
		_, _ = fmt.Fprintf(w, "  files:   %d\n", res.Manifest.Total())
	}
	if len(res.Libs) > 0 {
		_, _ = fmt.Fprintf(w, "  libs:    %s\n", strings.Join(res.Libs, " "))
	}
	if len(res.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "  warnings: %d\n", len(res.Warnings))
	}
	_, _ = fmt.Fprintf(w, "  status:  %s\n", res.Status)
}
