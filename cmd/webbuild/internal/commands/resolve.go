package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type ResolveCmd struct {
	Overrides `embed:""`

	JSON bool `help:"Print JSON instead of YAML." name:"json"`

	out io.Writer `kong:"-"`
}

func (c *ResolveCmd) Run(ctx context.Context, globals *Globals) error {
	_, done := setup(ctx, globals)
	defer done()

	p, err := loadProject(ctx, globals, c.Overrides)
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}

	view := p.config.View()

	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
