package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/handles"
	"github.com/matzehuels/docmap/pkg/model"
)

func (c *CLI) handlesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "handles [node-type...]",
		Short: "List node types with their sizes and anchor handles",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := model.NodeTypes
			if len(args) > 0 {
				types = make([]model.NodeType, len(args))
				for i, a := range args {
					types[i] = model.NodeType(a)
				}
			}
			for i, t := range types {
				if i > 0 {
					fmt.Fprintln(c.out)
				}
				c.printNodeType(t)
			}
			return nil
		},
	}
}

func (c *CLI) printNodeType(t model.NodeType) {
	fmt.Fprintln(c.out, StyleTitle.Render(string(t)))
	if !t.Valid() {
		fmt.Fprintln(c.out, "  "+StyleWarning.Render("unknown node type: drawn as a generic card, floating edges only"))
		return
	}
	rule := geom.SizeFor(t)
	width := geom.Num(rule.MinWidth)
	if rule.MaxWidth > rule.MinWidth {
		width += "-" + geom.Num(rule.MaxWidth)
	}
	c.printKeyValue("width", width)
	c.printKeyValue("height", geom.Num(rule.Height))
	c.printKeyValue("font size", geom.Num(rule.FontSize))

	hs := handles.For(t)
	if len(hs) == 0 {
		c.printKeyValue("handles", "none (floating edges)")
		return
	}
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = fmt.Sprintf("%s (%s, %s)", h.ID, h.Type, h.Position)
	}
	c.printKeyValue("handles", strings.Join(parts, ", "))
}
