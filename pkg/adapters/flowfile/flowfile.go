// Package flowfile loads flow definitions from YAML or JSON files.
//
// A flow file holds the graph and, optionally, an inline translation table:
//
//	version: 2
//	translations:
//	  email.start: "What is your email?"
//	nodes:
//	  - id: collect
//	    tasks:
//	      - id: ask_email
//	        type: getData
//	        template:
//	          mains:
//	            - id: email
//	              label: Email
//	              steps: {start: email.start}
//	    transitions:
//	      - to: done
//	  - id: done
//
// Legacy template spellings are normalized by internal/dto.
package flowfile

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aretw0/slotflow/internal/dto"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Flow is a parsed flow file.
type Flow struct {
	Name    string
	Graph   *domain.Graph
	Catalog ports.Catalog
}

// Parse decodes a flow definition. JSON is accepted as a YAML subset.
func Parse(data []byte) (*Flow, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow file: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("flow file is empty")
	}

	var file dto.FlowFile
	if err := dto.Decode(raw, &file); err != nil {
		return nil, fmt.Errorf("invalid flow file: %w", err)
	}
	g, err := dto.ToGraph(file)
	if err != nil {
		return nil, err
	}

	catalog := ports.Catalog{}
	for k, v := range file.Translations {
		catalog[k] = v
	}
	return &Flow{Name: file.Name, Graph: g, Catalog: catalog}, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	flow, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flow, nil
}

// Provider implements ports.GraphProvider by re-reading the file whenever
// it changed on disk, so new sessions pick up edits.
type Provider struct {
	path string

	mu      sync.Mutex
	modTime int64
	flow    *Flow
}

// NewProvider creates a provider for the file at path and loads it once to
// surface syntax errors early.
func NewProvider(path string) (*Provider, error) {
	p := &Provider{path: path}
	if _, err := p.Flow(); err != nil {
		return nil, err
	}
	return p, nil
}

// Flow returns the current parsed file, reloading it if it changed.
func (p *Provider) Flow() (*Flow, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat flow file: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.flow != nil && info.ModTime().UnixNano() == p.modTime {
		return p.flow, nil
	}
	flow, err := Load(p.path)
	if err != nil {
		return nil, err
	}
	p.flow, p.modTime = flow, info.ModTime().UnixNano()
	return flow, nil
}

// Graph implements ports.GraphProvider.
func (p *Provider) Graph(ctx context.Context) (*domain.Graph, error) {
	flow, err := p.Flow()
	if err != nil {
		return nil, err
	}
	return flow.Graph.Clone(), nil
}

// Lookup implements ports.Translations over the inline table.
func (p *Provider) Lookup(key string) (string, bool) {
	flow, err := p.Flow()
	if err != nil {
		return "", false
	}
	return flow.Catalog.Lookup(key)
}

// Snapshot implements ports.Snapshotter so sessions freeze the table they
// started with.
func (p *Provider) Snapshot() ports.Catalog {
	out := ports.Catalog{}
	flow, err := p.Flow()
	if err != nil {
		return out
	}
	for k, v := range flow.Catalog {
		out[k] = v
	}
	return out
}
