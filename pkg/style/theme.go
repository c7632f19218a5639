package style

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/docmap/pkg/model"
)

// DefaultBackground is the export background when no theme sets one.
const DefaultBackground = "#ffffff"

// Registry is an immutable set of edge, node and status styles.
type Registry struct {
	edges      map[model.EdgeType]EdgeStyle
	nodes      map[model.NodeType]NodePalette
	status     map[model.Status]string
	background string
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in registry.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = newDefault() })
	return defaultReg
}

func newDefault() *Registry {
	r := &Registry{
		edges:      make(map[model.EdgeType]EdgeStyle, len(defaultEdges)),
		nodes:      make(map[model.NodeType]NodePalette, len(defaultNodes)),
		status:     make(map[model.Status]string, len(defaultStatus)),
		background: DefaultBackground,
	}
	for k, v := range defaultEdges {
		r.edges[k] = copyStyle(v)
	}
	for k, v := range defaultNodes {
		r.nodes[k] = v
	}
	for k, v := range defaultStatus {
		r.status[k] = v
	}
	return r
}

// Theme is the TOML shape of a theme file. Every field is optional and is
// layered over the built-in registry.
//
//	background = "#0f172a"
//
//	[edges.dependency]
//	stroke = "#fb923c"
//	dash = [5, 3]
//
//	[nodes.product]
//	fill = "#1e1b4b"
//
//	[status]
//	beta = "#60a5fa"
type Theme struct {
	Background string               `toml:"background"`
	Edges      map[string]ThemeEdge `toml:"edges"`
	Nodes      map[string]ThemeNode `toml:"nodes"`
	Status     map[string]string    `toml:"status"`
}

// ThemeEdge overrides parts of one edge kind's style.
type ThemeEdge struct {
	Stroke      string    `toml:"stroke"`
	Width       float64   `toml:"width"`
	Dash        []float64 `toml:"dash"`
	Solid       bool      `toml:"solid"`
	MarkerStart *bool     `toml:"marker_start"`
	MarkerEnd   *bool     `toml:"marker_end"`
}

// ThemeNode overrides parts of one node type's palette.
type ThemeNode struct {
	Fill   string `toml:"fill"`
	Stroke string `toml:"stroke"`
	Text   string `toml:"text"`
	Muted  string `toml:"muted"`
}

// LoadTheme reads a TOML theme file and layers it over the defaults.
func LoadTheme(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTheme(data)
}

// ParseTheme decodes TOML theme data and layers it over the defaults.
func ParseTheme(data []byte) (*Registry, error) {
	var th Theme
	if err := toml.Unmarshal(data, &th); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	return th.Apply()
}

// Apply builds a registry from the defaults with th applied. Unknown edge
// kinds, node types or statuses are rejected so typos surface.
func (th Theme) Apply() (*Registry, error) {
	r := newDefault()
	if th.Background != "" {
		r.background = th.Background
	}
	for name, te := range th.Edges {
		kind := model.EdgeType(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("theme: unknown edge kind %q", name)
		}
		s := r.edges[kind]
		if te.Stroke != "" {
			s.Stroke = te.Stroke
		}
		if te.Width > 0 {
			s.StrokeWidth = te.Width
		}
		switch {
		case te.Solid:
			s.Dash = nil
		case len(te.Dash) == 1:
			s.Dash = dash(te.Dash[0], te.Dash[0])
		case len(te.Dash) >= 2:
			s.Dash = dash(te.Dash[0], te.Dash[1])
		}
		if te.MarkerStart != nil {
			s.MarkerStart = *te.MarkerStart
		}
		if te.MarkerEnd != nil {
			s.MarkerEnd = *te.MarkerEnd
		}
		r.edges[kind] = s
	}
	for name, tn := range th.Nodes {
		t := model.NodeType(name)
		if !t.Valid() {
			return nil, fmt.Errorf("theme: unknown node type %q", name)
		}
		p := r.nodes[t]
		p.Fill = pick(tn.Fill, p.Fill)
		p.Stroke = pick(tn.Stroke, p.Stroke)
		p.Text = pick(tn.Text, p.Text)
		p.Muted = pick(tn.Muted, p.Muted)
		r.nodes[t] = p
	}
	for name, c := range th.Status {
		s := model.Status(name)
		if !s.Valid() {
			return nil, fmt.Errorf("theme: unknown status %q", name)
		}
		r.status[s] = c
	}
	return r, nil
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
