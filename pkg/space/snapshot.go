package space

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/pose"
)

// Graph is a point-in-time copy of the space graph, detached from the
// Overseer. Nodes are ordered so that every parent comes before its
// children, with the root first.
type Graph struct {
	Root  uuid.UUID
	Nodes []Node
}

// Node describes one space in a [Graph].
type Node struct {
	ID     uuid.UUID
	Parent uuid.UUID // uuid.Nil for the root
	Kind   Kind
	Offset pose.Pose

	// Pose spaces only.
	Device string
	Input  device.InputName

	// Semantic roles this space plays, in ReferenceSpace order.
	Semantic []device.ReferenceSpace
	// Devices bound to this space, sorted by name.
	Bound []string
	// Tracking origin this space was created for, if any.
	Origin string
}

// Node returns the node with the given ID.
func (g Graph) Node(id uuid.UUID) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Children returns the nodes whose parent is id, in graph order.
func (g Graph) Children(id uuid.UUID) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Parent == id && n.ID != g.Root {
			out = append(out, n)
		}
	}
	return out
}

// Snapshot copies every space the Overseer holds, along with extra spaces the
// caller wants shown, and all their ancestors. Spaces that only callers hold
// are not visible to the Overseer and appear only if passed in extra.
func (o *Overseer) Snapshot(extra ...*Space) Graph {
	for _, sp := range extra {
		o.mustOwn(sp)
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	b := graphBuilder{index: make(map[*Space]int)}

	b.add(o.root)
	for k, sp := range o.semantic {
		if sp != nil {
			n := b.add(sp)
			n.Semantic = append(n.Semantic, device.ReferenceSpace(k))
		}
	}

	origins := make([]*device.TrackingOrigin, 0, len(o.origins))
	for origin := range o.origins {
		origins = append(origins, origin)
	}
	slices.SortFunc(origins, func(a, b *device.TrackingOrigin) int { return cmp.Compare(a.Name, b.Name) })
	for _, origin := range origins {
		b.add(o.origins[origin]).Origin = origin.Name
	}

	bindings := make([]binding, 0, len(o.devices))
	for _, bd := range o.devices {
		bindings = append(bindings, bd)
	}
	slices.SortFunc(bindings, func(a, b binding) int { return cmp.Compare(a.dev.Name(), b.dev.Name()) })
	for _, bd := range bindings {
		n := b.add(bd.space)
		n.Bound = append(n.Bound, bd.dev.Name())
	}

	for _, sp := range extra {
		b.add(sp)
	}

	return Graph{Root: o.root.id, Nodes: b.nodes}
}

type graphBuilder struct {
	nodes []Node
	index map[*Space]int
}

// add records sp and any unrecorded ancestors, parents first, and returns
// sp's node for further annotation. Caller holds the owner's lock.
func (b *graphBuilder) add(sp *Space) *Node {
	if i, ok := b.index[sp]; ok {
		return &b.nodes[i]
	}

	var chain []*Space
	for s := sp; s != nil; s = s.parent {
		if _, ok := b.index[s]; ok {
			break
		}
		chain = append(chain, s)
	}

	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		n := Node{
			ID:     s.id,
			Kind:   s.kind,
			Offset: s.offsetLocked(),
			Input:  s.input,
		}
		if s.parent != nil {
			n.Parent = s.parent.id
		}
		if s.dev != nil {
			n.Device = s.dev.Name()
		}
		b.index[s] = len(b.nodes)
		b.nodes = append(b.nodes, n)
	}
	return &b.nodes[b.index[sp]]
}
