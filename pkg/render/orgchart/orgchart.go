// Package orgchart renders an organization structure as a hierarchy chart.
//
// Tiers are drawn top to bottom in the order given: the first tier (usually
// the patrons) at the top, operational members at the bottom. Members of a
// tier share one rank.
//
//	dot := orgchart.ToDOT(section.Tiers, orgchart.Options{})
//	img, err := orgchart.RenderImage(ctx, dot)
//
// This package uses [github.com/goccy/go-graphviz] for in-process layout and
// rasterization; no Graphviz installation is required.
package orgchart

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/suratkita/suratkita/pkg/document"
)

// Options configures chart generation.
type Options struct {
	// Color is the #RRGGBB used for box outlines and connectors.
	Color string

	// FontSize is the member label size in points.
	FontSize int
}

func (o Options) withDefaults() Options {
	if o.Color == "" {
		o.Color = "#1F2A5A"
	}
	if o.FontSize <= 0 {
		o.FontSize = 14
	}
	return o
}

// ToDOT converts tiers to Graphviz DOT source. Every tier gets a heading
// node; each member hangs off its tier heading, and headings are chained so
// rank order follows tier order.
func ToDOT(tiers []document.Tier, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  splines=ortho;\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded\", color=%q, fontname=\"Helvetica\", fontsize=%d, margin=\"0.2,0.1\"];\n",
		opts.Color, opts.FontSize)
	fmt.Fprintf(&buf, "  edge [arrowhead=none, color=%q];\n", opts.Color)
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for i, t := range tiers {
		head := tierID(i)
		fmt.Fprintf(&buf, "  %q [label=%q, shape=plaintext, fontsize=%d];\n", head, t.Name, opts.FontSize+2)
		if len(t.Members) > 0 {
			fmt.Fprintf(&buf, "  subgraph %q {\n    rank=same;\n", "rank_"+head)
			for j, m := range t.Members {
				fmt.Fprintf(&buf, "    %q [label=%q];\n", memberID(i, j), memberLabel(m))
			}
			buf.WriteString("  }\n")
		}
		for j := range t.Members {
			fmt.Fprintf(&buf, "  %q -> %q;\n", head, memberID(i, j))
		}
		if i > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [style=invis];\n", lastNode(tiers, i-1), head)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func tierID(i int) string      { return fmt.Sprintf("tier%d", i) }
func memberID(i, j int) string { return fmt.Sprintf("tier%d_m%d", i, j) }

// lastNode is the node the next tier attaches below.
func lastNode(tiers []document.Tier, i int) string {
	if n := len(tiers[i].Members); n > 0 {
		return memberID(i, 0)
	}
	return tierID(i)
}

func memberLabel(m document.Signatory) string {
	role := strings.TrimSpace(m.Role)
	name := strings.TrimSpace(m.Name)
	switch {
	case role == "":
		return name
	case name == "":
		return role
	}
	return role + "\n" + name
}

// RenderImage lays out and rasterizes DOT source.
func RenderImage(ctx context.Context, dot string) (image.Image, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	img, err := gv.RenderImage(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return img, nil
}

// RenderPNG lays out DOT source and encodes it as PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
