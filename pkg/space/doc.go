// Package space maintains the graph of coordinate frames an XR runtime
// resolves poses through.
//
// # Overview
//
// Every tracked thing in a session lives in some space: the head in the view
// space, a controller in its tracking system's space, the application's world
// in local or stage. An [Overseer] keeps these spaces as a tree rooted at a
// single root space and answers the one question everything else depends on:
// where is space B, as seen from space A, at time T?
//
// # Spaces
//
// A [Space] is one of four kinds:
//
//   - [KindRoot]: the single root. Every other space descends from it.
//   - [KindNull]: coincident with its parent.
//   - [KindOffset]: a fixed rigid transform from its parent.
//   - [KindPose]: follows a live device input, sampled whenever it is located.
//
// Spaces are reference counted. Every creator hands back one reference;
// [Space.Retain] and [Space.Release] add and drop references, and a space
// keeps its parent alive for as long as it lives:
//
//	local := o.CreateOffsetSpace(o.Root(), pose.Translation(0, 1.6, 0))
//	defer local.Release()
//
// # Locating
//
// [Overseer.LocateSpace] walks both spaces up to the root, builds a
// [relation.Chain] from the target up and back down into the base, and
// resolves it. Tracking loss anywhere along the way is not an error: the
// result simply carries fewer valid flags.
//
//	rel := o.LocateSpace(stage, pose.Identity(), now, view, pose.Identity())
//	if rel.Flags.Has(relation.PositionValid) {
//		// use rel.Pose.Position
//	}
//
// [Overseer.LocateSpaces] answers many targets against one base at once, and
// [Overseer.LocateDevice] locates the space a device reports its raw poses
// in.
//
// # Semantic Spaces
//
// The Overseer assigns the reference spaces applications ask for (view,
// local, local-floor, stage, unbounded) to nodes of the graph.
// [Overseer.LegacySetup] builds the standard arrangement for a fixed device
// list. [Overseer.RecenterLocalSpaces] moves local and local-floor under the
// current view and announces the change through the session event sink.
//
// Callers report which reference spaces are in use with
// [Overseer.RefSpaceInc] and [Overseer.RefSpaceDec]. The first user and the
// last user leaving each trigger one notification to the device behind the
// space, so drivers can power tracking up and down.
//
// # Concurrency
//
// All methods are safe for concurrent use. Graph shape is guarded by a
// single reader/writer lock; locate holds it only to copy the paths it
// needs, so device sampling never blocks writers. Reference counts and usage
// counters are atomic.
//
// # Errors
//
// Misuse that can only be a bug (nil or foreign spaces, releasing past zero,
// decrementing an unused reference space) panics. Conditions a caller can
// meet in a correct program, such as an unbound device or recentering
// without a tracked view, return an [errors.Error] with a code from
// [github.com/matzehuels/xrspace/pkg/errors].
package space
