package style

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/docmap/pkg/model"
)

// NodePalette holds the colours of one node card.
type NodePalette struct {
	Fill   string `json:"fill"`
	Stroke string `json:"stroke"`
	Text   string `json:"text"`
	Muted  string `json:"muted"` // description and secondary text
}

var defaultNodes = map[model.NodeType]NodePalette{
	model.NodeProduct:   {Fill: "#eef2ff", Stroke: "#6366f1", Text: "#1e1b4b", Muted: "#4338ca"},
	model.NodeFeature:   {Fill: "#ecfeff", Stroke: "#06b6d4", Text: "#164e63", Muted: "#0e7490"},
	model.NodeComponent: {Fill: "#f8fafc", Stroke: "#94a3b8", Text: "#0f172a", Muted: "#475569"},
	model.NodeTextBlock: {Fill: "#fffbeb", Stroke: "#fcd34d", Text: "#451a03", Muted: "#92400e"},
	model.NodeGroup:     {Fill: "#f1f5f9", Stroke: "#94a3b8", Text: "#334155", Muted: "#64748b"},
}

// Generic is the card used for nodes of an unknown type.
var Generic = NodePalette{Fill: "#ffffff", Stroke: "#cbd5e1", Text: "#334155", Muted: "#64748b"}

var defaultStatus = map[model.Status]string{
	model.StatusStable:       "#22c55e",
	model.StatusBeta:         "#3b82f6",
	model.StatusDeprecated:   "#ef4444",
	model.StatusExperimental: "#f59e0b",
}

// accentBlend is how far a custom accent is blended toward white to get the
// card fill.
const accentBlend = 0.88

var white = colorful.Color{R: 1, G: 1, B: 1}

// PaletteFor returns the card palette of a node type. Unknown types get
// Generic.
func (r *Registry) PaletteFor(t model.NodeType) NodePalette {
	if p, ok := r.nodes[t]; ok {
		return p
	}
	return Generic
}

// NodePalette returns the palette of n, tinted by its colour accent when
// that parses as a hex colour.
func (r *Registry) NodePalette(n model.Node) NodePalette {
	p := r.PaletteFor(n.Type)
	if c, ok := ParseColor(n.Data.Color); ok {
		p.Stroke = c.Hex()
		p.Fill = c.BlendLab(white, accentBlend).Clamped().Hex()
	}
	return p
}

// StatusColor returns the dot colour for a status.
func (r *Registry) StatusColor(s model.Status) (string, bool) {
	c, ok := r.status[s]
	return c, ok
}

// Background is the document background colour.
func (r *Registry) Background() string { return r.background }

// ParseColor parses a #rgb or #rrggbb accent.
func ParseColor(s string) (colorful.Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}
