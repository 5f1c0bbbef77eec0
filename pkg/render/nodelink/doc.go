// Package nodelink draws space graphs as node-link diagrams.
//
// # Usage
//
// Take a snapshot of an Overseer, convert it to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(o.Snapshot(), nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
