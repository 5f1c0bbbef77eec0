// Package pkg provides the libraries behind xrspace, a spatial reference-frame
// engine for XR runtimes.
//
// # Overview
//
// xrspace keeps a tree of spaces rooted in one world space. Each space is
// the root, coincident with its parent (null), at a fixed offset from it, or
// following the live pose of a tracked device input. Any two spaces can be
// located in each other at a point in time by walking both up to the root
// and composing the steps. The pkg directory is organized as:
//
//  1. [pose] and [relation] - Rigid transform math and relations with
//     validity flags, plus the chain that composes them
//  2. [device] - The tracked device interface and reference space kinds;
//     [device/sim] has simulated devices
//  3. [space] - The space graph and its Overseer: creation, locate,
//     recenter, usage notifications
//  4. [session] - Session events such as reference space changes
//  5. [config] - TOML rig files that build a ready graph
//  6. [render] - Graphviz drawings of a graph
//  7. [observability] - Metric hooks, with a Prometheus backend in
//     [observability/prom]
//
// # Architecture
//
//	Device (TrackedPose)
//	         ↓
//	    [space] Overseer (tree of spaces, semantic spaces, bindings)
//	         ↓
//	    [relation] Chain (composed steps)
//	         ↓
//	    Relation of target in base
//
// # Quick Start
//
//	o := space.New()
//	defer o.Close()
//
//	if err := o.LegacySetup(devs, head, pose.Translation(0, 1.6, 0), true); err != nil {
//	    return err
//	}
//
//	local := o.Semantic(device.ReferenceSpaceLocal)
//	view := o.Semantic(device.ReferenceSpaceView)
//	defer local.Release()
//	defer view.Release()
//
//	rel := o.LocateSpace(local, pose.Identity(), space.MonotonicNS(), view, pose.Identity())
//
// [pose]: github.com/matzehuels/xrspace/pkg/pose
// [relation]: github.com/matzehuels/xrspace/pkg/relation
// [device]: github.com/matzehuels/xrspace/pkg/device
// [device/sim]: github.com/matzehuels/xrspace/pkg/device/sim
// [space]: github.com/matzehuels/xrspace/pkg/space
// [session]: github.com/matzehuels/xrspace/pkg/session
// [config]: github.com/matzehuels/xrspace/pkg/config
// [render]: github.com/matzehuels/xrspace/pkg/render
// [observability]: github.com/matzehuels/xrspace/pkg/observability
// [observability/prom]: github.com/matzehuels/xrspace/pkg/observability/prom
package pkg
