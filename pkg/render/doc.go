// Package render groups the visual outputs for space graphs.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage draws a snapshot of an Overseer's graph with
// Graphviz: the root at the top, each space below its parent, semantic
// spaces highlighted and pose spaces labelled with the device input they
// follow.
//
//	dot := nodelink.ToDOT(o.Snapshot(), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/xrspace/pkg/render/nodelink
package render
