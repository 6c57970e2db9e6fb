// Package demo holds the sample applications served by the inspector and
// rendered by the CLI.
package demo

import (
	"fmt"
	"sort"

	"github.com/vango-dev/rask/pkg/vdom"
)

// App builds the root node of a demo application.
type App func() vdom.Node

var apps = map[string]App{
	"counter":  func() vdom.Node { return Counter.New(vdom.Props{"start": 0}) },
	"todo":     func() vdom.Node { return Todo.New(nil) },
	"boundary": func() vdom.Node { return Boundary.New(nil) },
}

// Lookup returns the named application.
func Lookup(name string) (App, error) {
	app, ok := apps[name]
	if !ok {
		return nil, fmt.Errorf("demo: unknown app %q (available: %v)", name, Names())
	}
	return app, nil
}

// Names returns the available application names in sorted order.
func Names() []string {
	names := make([]string, 0, len(apps))
	for name := range apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
