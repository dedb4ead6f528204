package commands

import (
	"fmt"

	"git.home.luguber.info/inful/recipebuilder/internal/recipe"
)

// DefaultRecipePath is written by 'init' when --recipe is not given.
const DefaultRecipePath = "recipe.yaml"

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing recipe file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Recipe
	if path == "" {
		path = DefaultRecipePath
	}
	_, _ = fmt.Fprintf(g.Out, "Writing recipe to %s\n", path)
	if err := recipe.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Out, "initialized successfully")
	return nil
}
