package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/rask/internal/demo"
	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/render"
	"github.com/vango-dev/rask/pkg/snapshot"
	"github.com/vango-dev/rask/pkg/vdom"
)

// replayEvent is one --event argument: id:type or id:type=value.
type replayEvent struct {
	target string
	typ    string
	value  string
}

func parseEvent(s string) (replayEvent, error) {
	target, rest, ok := strings.Cut(s, ":")
	if !ok || target == "" || rest == "" {
		return replayEvent{}, fmt.Errorf("invalid event %q: want id:type or id:type=value", s)
	}
	typ, value, _ := strings.Cut(rest, "=")
	if typ == "" {
		return replayEvent{}, fmt.Errorf("invalid event %q: empty event type", s)
	}
	return replayEvent{target: target, typ: typ, value: value}, nil
}

func renderCmd(c *cli) *cobra.Command {
	var (
		out      string
		fragment bool
		pretty   bool
		events   []string
		snapName string
	)

	cmd := &cobra.Command{
		Use:   "render [app]",
		Short: "Render a demo app to HTML",
		Long: `Mount a demo app, replay events against it and print the resulting HTML.

Events are given as id:type or id:type=value and are dispatched in order
to the element with that id. Each event is followed by a full turn of the
runtime.

Examples:
  rask render counter
  rask render counter --event inc:click --event inc:click --fragment
  rask render todo --event draft:input="Buy milk" --event add:click
  rask render todo --snapshot after-add`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := c.cfg.Inspector.App
			if len(args) == 1 {
				name = args[0]
			}
			replay := make([]replayEvent, 0, len(events))
			for _, s := range events {
				ev, err := parseEvent(s)
				if err != nil {
					return err
				}
				replay = append(replay, ev)
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return c.runRender(cmd.Context(), w, name, replay, renderOptions{
				fragment: fragment,
				pretty:   pretty || c.cfg.Inspector.Pretty,
				snapshot: snapName,
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write HTML to a file instead of stdout")
	cmd.Flags().BoolVar(&fragment, "fragment", false, "Print only the rendered tree, not a full page")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the HTML output")
	cmd.Flags().StringArrayVarP(&events, "event", "e", nil, "Event to dispatch before rendering (repeatable)")
	cmd.Flags().StringVar(&snapName, "snapshot", "", "Also save the page as a snapshot with this name")

	return cmd
}

type renderOptions struct {
	fragment bool
	pretty   bool
	snapshot string
}

func (c *cli) runRender(ctx context.Context, w io.Writer, name string, events []replayEvent, opts renderOptions) error {
	app, err := demo.Lookup(name)
	if err != nil {
		return err
	}

	var unhandled error
	doc := dom.NewDocument()
	root, err := vdom.Render(app(), doc.Body(),
		vdom.WithLogger(c.logger),
		vdom.WithErrorHandler(func(err error) {
			if unhandled == nil {
				unhandled = err
			}
		}))
	if err != nil {
		return err
	}
	defer root.Unmount()
	root.Tick()

	for _, ev := range events {
		target := dom.Find(doc.Body(), dom.ByID(ev.target))
		if target == nil {
			return fmt.Errorf("event %s:%s: no element with id %q", ev.target, ev.typ, ev.target)
		}
		e := dom.NewEvent(ev.typ)
		e.Value = ev.value
		target.DispatchEvent(e)
		root.Tick()
		if unhandled != nil {
			return fmt.Errorf("event %s:%s: %w", ev.target, ev.typ, unhandled)
		}
		c.logger.Debug("rask: dispatched event", "target", ev.target, "type", ev.typ, "mutations", doc.Mutations())
	}

	rcfg := render.RendererConfig{Pretty: opts.pretty}
	r := render.NewRenderer(rcfg)
	if opts.fragment {
		if err := r.RenderChildren(w, doc.Body()); err != nil {
			return err
		}
	} else {
		if err := r.RenderPage(w, render.PageData{Body: doc.Body(), Title: name}); err != nil {
			return err
		}
	}

	if opts.snapshot == "" {
		return nil
	}
	snap, err := snapshot.Take(opts.snapshot, doc.Body(), rcfg)
	if err != nil {
		return err
	}
	store, err := openStore(c.cfg)
	if err != nil {
		return err
	}
	location, err := store.Save(ctx, snap)
	if err != nil {
		return err
	}
	success("Saved snapshot %s", location)
	info("%d nodes, %d mutations", snap.Nodes, snap.Mutations)
	return nil
}
