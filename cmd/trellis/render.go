package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/trellis/internal/config"
	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/internal/examples"
	"github.com/vango-dev/trellis/pkg/app"
	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/dom/memdom"
	"github.com/vango-dev/trellis/pkg/reconcile"
)

type renderOptions struct {
	clicks []string
	events int
	asJSON bool
}

func renderCmd(g *globals) *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <example>",
		Short: "Render an example into an in-memory document",
		Long: `Render an example into an in-memory document and print the result.

Clicks are replayed in order after the first render. Each click renders
again and only the changed parts of the document are patched; the
summary shows how many operations that took.

Examples:
  trellis render counter
  trellis render counter --events 3
  trellis render todo --click '/html/body/*[2]' --click '/html/body/*[2]'
  trellis render greeter --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			return runRender(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.clicks, "click", nil, "Locator to click after mounting (repeatable)")
	cmd.Flags().IntVarP(&opts.events, "events", "n", 0, "Click the first bound element this many times")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")

	return cmd
}

// renderResult is the --json output.
type renderResult struct {
	Example string          `json:"example"`
	HTML    string          `json:"html"`
	Mount   reconcile.Stats `json:"mount"`
	Events  int             `json:"events"`
	Ops     map[string]int  `json:"ops"`
}

func runRender(stdout, stderr io.Writer, cfg *config.Config, name string, opts renderOptions) error {
	ex, err := examples.Lookup(name)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.Log)
	if err != nil {
		return err
	}

	doc, err := memdom.New(memdom.WithRoot(cfg.Root))
	if err != nil {
		return err
	}
	a := app.New(ex.Factory, doc, append(app.FromConfig(cfg), app.WithLogger(logger))...)

	mount, err := a.Render(context.Background())
	if err != nil {
		return err
	}
	doc.ResetLog()

	fired := 0
	for _, loc := range opts.clicks {
		if err := click(doc, loc); err != nil {
			return err
		}
		fired++
	}
	for i := 0; i < opts.events; i++ {
		bindings := doc.Bindings()
		if len(bindings) == 0 {
			return errors.Newf(errors.CategoryCLI, "no bound elements to click")
		}
		if err := click(doc, bindings[0].Locator); err != nil {
			return err
		}
		fired++
	}

	ops := make(map[string]int)
	for op, n := range doc.Counts() {
		ops[string(op)] = n
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(renderResult{
			Example: ex.Name,
			HTML:    doc.HTML(),
			Mount:   mount,
			Events:  fired,
			Ops:     ops,
		})
	}

	fmt.Fprintln(stdout, doc.HTML())
	fmt.Fprintln(stdout)
	success(stdout, "Mounted %s with %d operations", ex.Name, mount.Mutations())
	if fired > 0 {
		total := 0
		for _, n := range ops {
			total += n
		}
		success(stdout, "%d events patched with %d operations", fired, total)
		for _, op := range []dom.Op{dom.OpSetInnerHTML, dom.OpAppendText, dom.OpAddListener, dom.OpRemoveListeners} {
			if n := ops[string(op)]; n > 0 {
				info(stdout, "%-17s %d", op, n)
			}
		}
	}
	return nil
}

func click(doc *memdom.Document, loc string) error {
	n, err := doc.Fire(loc, "click")
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Newf(errors.CategoryCLI, "no click listener at %s", loc)
	}
	return nil
}
