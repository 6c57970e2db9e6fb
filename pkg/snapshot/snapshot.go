// Package snapshot stores rendered HTML snapshots of mounted trees.
//
// A Snapshot is taken from a live container with Take and written to a
// Store. DiskStore writes files under a directory; S3Store writes objects
// to a bucket.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/render"
)

// ErrNotFound is returned when a snapshot doesn't exist.
var ErrNotFound = errors.New("snapshot: not found")

// ErrInvalidName is returned for names that are not safe as file names
// or object keys.
var ErrInvalidName = errors.New("snapshot: invalid name")

// Snapshot is the rendered HTML of a container at a point in time.
type Snapshot struct {
	Name      string
	HTML      []byte
	Nodes     int
	Mutations uint64
	TakenAt   time.Time
}

// Store persists snapshots.
type Store interface {
	// Save writes s and returns where it was stored.
	Save(ctx context.Context, s *Snapshot) (string, error)
	// Load returns the HTML of a saved snapshot.
	Load(ctx context.Context, name string) ([]byte, error)
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName reports whether name can be used as a snapshot name.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Take renders the children of container as a full page.
func Take(name string, container *dom.Node, config render.RendererConfig) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	r := render.NewRenderer(config)
	var buf bytes.Buffer
	if err := r.RenderPage(&buf, render.PageData{Body: container, Title: name}); err != nil {
		return nil, fmt.Errorf("snapshot: render %s: %w", name, err)
	}
	s := &Snapshot{
		Name:    name,
		HTML:    buf.Bytes(),
		Nodes:   countNodes(container),
		TakenAt: time.Now().UTC(),
	}
	if doc := container.Document(); doc != nil {
		s.Mutations = doc.Mutations()
	}
	return s, nil
}

func countNodes(n *dom.Node) int {
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += 1 + countNodes(c)
	}
	return total
}
