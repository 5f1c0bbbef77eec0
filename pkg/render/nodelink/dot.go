package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/space"
)

// Options configures space graph rendering.
type Options struct {
	// Detailed adds offsets and space IDs to node labels.
	// When false, labels show only the kind and roles of each space.
	Detailed bool
}

// ToDOT converts a space graph snapshot to Graphviz DOT. Edges point from
// parent to child, so the root is drawn at the top.
//
// Semantic spaces are filled, pose spaces are drawn as ellipses and null
// spaces with a dashed outline.
func ToDOT(g space.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Spaces {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(n), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes {
		if n.ID == g.Root {
			continue
		}
		parent, ok := g.Node(n.Parent)
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(parent), nodeID(n))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(n space.Node) string {
	return n.ID.String()
}

func fmtLabel(n space.Node, detailed bool) string {
	lines := []string{n.Kind.String()}

	for _, s := range n.Semantic {
		lines[0] += " · " + s.String()
	}
	if n.Origin != "" {
		lines = append(lines, "origin: "+n.Origin)
	}
	if n.Device != "" {
		lines = append(lines, fmt.Sprintf("follows: %s/%s", n.Device, n.Input))
	}
	if len(n.Bound) > 0 {
		lines = append(lines, "tracks: "+strings.Join(n.Bound, ", "))
	}

	if detailed {
		if n.Kind == space.KindOffset {
			lines = append(lines, fmtPose(n.Offset))
		}
		lines = append(lines, n.ID.String()[:8])
	}

	return strings.Join(lines, "\n")
}

func fmtPose(p pose.Pose) string {
	yaw := p.Orientation.Yaw() * 180 / math.Pi
	if math.Abs(yaw) < 0.05 {
		yaw = 0
	}
	return fmt.Sprintf("pos (%.2f, %.2f, %.2f) yaw %.1f°",
		p.Position.X, p.Position.Y, p.Position.Z, yaw)
}

func fmtAttrs(n space.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.Kind == space.KindPose:
		attrs = append(attrs, "shape=ellipse")
	case n.Kind == space.KindNull:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	if len(n.Semantic) > 0 {
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a plain
// viewBox so the image scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(header))
}
