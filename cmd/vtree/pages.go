package main

import (
	"bytes"
	"log/slog"
	"os"
	"sync"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// parseFile reads one markup file into a tree.
func parseFile(path string) (*vdom.VNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("X002").WithFile(path).Wrap(err)
	}
	return parseMarkup(path, data)
}

func parseMarkup(path string, data []byte) (*vdom.VNode, error) {
	node, err := markup.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Classify(err, "M001").WithFile(path)
	}
	return node, nil
}

// pageSet serves markup files as views. Files are re-read on every Load so
// edits show up on the next render; a file that stops parsing keeps its
// last good content.
type pageSet struct {
	files  []string
	logger *slog.Logger

	mu   sync.Mutex
	good [][]byte
}

// loadPages reads and parses every file once, failing on the first bad one.
func loadPages(files []string, logger *slog.Logger) (*pageSet, error) {
	if len(files) == 0 {
		return nil, errors.New("X001")
	}
	p := &pageSet{files: files, logger: logger, good: make([][]byte, len(files))}
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.New("X002").WithFile(file).Wrap(err)
		}
		if _, err := parseMarkup(file, data); err != nil {
			return nil, err
		}
		p.good[i] = data
	}
	return p, nil
}

// Len returns the number of pages.
func (p *pageSet) Len() int {
	return len(p.files)
}

// Load returns a freshly parsed tree for page i. Each call returns new
// nodes, so callers may modify the result.
func (p *pageSet) Load(i int) *vdom.VNode {
	file := p.files[i]
	data, err := os.ReadFile(file)
	if err == nil {
		var node *vdom.VNode
		if node, err = parseMarkup(file, data); err == nil {
			p.mu.Lock()
			p.good[i] = data
			p.mu.Unlock()
			return node
		}
	}
	p.logger.Warn("page reload failed, keeping last good version", "file", file, "error", err)

	p.mu.Lock()
	data = p.good[i]
	p.mu.Unlock()
	node, _ := parseMarkup(file, data)
	return node
}
