// Package snapshot persists serialized HTML of rendered containers.
//
// A snapshot is the markup of one host container at a point in time, stored
// under a short name. Stores exist for the local filesystem (DiskStore) and
// for S3 (S3Store).
//
//	html, _ := snapshot.Capture(tree, root, snapshot.CaptureOptions{Minify: true})
//	info, err := store.Save(ctx, "home", bytes.NewReader(html))
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/vango-dev/vtree/pkg/hosttree"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// ErrNotFound is returned when a snapshot doesn't exist.
var ErrNotFound = errors.New("snapshot: not found")

// ErrTooLarge is returned when a snapshot exceeds the store's size limit.
var ErrTooLarge = errors.New("snapshot: too large")

// ErrInvalidName is returned for names outside [A-Za-z0-9._-] or starting
// with a dot.
var ErrInvalidName = errors.New("snapshot: invalid name")

// ContentType is the media type of stored snapshots.
const ContentType = "text/html; charset=utf-8"

// Store is the interface for snapshot storage backends.
type Store interface {
	// Save stores the content read from r under name, replacing any
	// existing snapshot of that name.
	Save(ctx context.Context, name string, r io.Reader) (*Info, error)

	// Load opens the named snapshot. The caller closes the reader.
	Load(ctx context.Context, name string) (io.ReadCloser, *Info, error)

	// List returns all stored snapshots sorted by name.
	List(ctx context.Context) ([]Info, error)
}

// Info describes a stored snapshot.
type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// ValidateName reports whether name can be used as a snapshot name.
func ValidateName(name string) error {
	if len(name) > 128 || !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// CaptureOptions controls Capture.
type CaptureOptions struct {
	// Inner serializes only the container's children.
	Inner bool

	// Minify runs the markup through the HTML minifier.
	Minify bool
}

// Capture serializes the container h of tree.
func Capture(tree *hosttree.Tree, h vdom.Handle, opts CaptureOptions) ([]byte, error) {
	var out string
	if opts.Inner {
		out = tree.InnerHTML(h)
	} else {
		out = tree.OuterHTML(h)
	}
	if opts.Minify {
		m, err := markup.Minify(out)
		if err != nil {
			return nil, fmt.Errorf("snapshot: minify: %w", err)
		}
		out = m
	}
	return []byte(out), nil
}

// readLimited reads r fully, failing with ErrTooLarge beyond maxSize bytes.
// A maxSize of zero means no limit.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
