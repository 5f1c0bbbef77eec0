package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/xrspace/pkg/device"
	"github.com/matzehuels/xrspace/pkg/errors"
	"github.com/matzehuels/xrspace/pkg/pose"
	"github.com/matzehuels/xrspace/pkg/relation"
	"github.com/matzehuels/xrspace/pkg/render/nodelink"
	"github.com/matzehuels/xrspace/pkg/space"
)

const defaultBase = "local"

// =============================================================================
// Graph
// =============================================================================

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	detailed, _ := strconv.ParseBool(q.Get("detailed"))
	dot := nodelink.ToDOT(s.rig.Overseer.Snapshot(), nodelink.Options{Detailed: detailed})

	switch format := q.Get("format"); format {
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = w.Write([]byte(dot))
	case "", "svg":
		svg, err := nodelink.RenderSVG(r.Context(), dot)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render graph"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown format %q", format))
	}
}

// =============================================================================
// Locate
// =============================================================================

// Located is one entry of a locate response.
type Located struct {
	Name        string     `json:"name"`
	Position    [3]float32 `json:"position"`
	Orientation [4]float32 `json:"orientation"`
	YawDeg      float64    `json:"yaw_deg"`
	Flags       string     `json:"flags"`
	Error       string     `json:"error,omitempty"`
}

// LocateResponse is the body of GET /locate.
type LocateResponse struct {
	Base    string    `json:"base"`
	AtNS    int64     `json:"at_ns"`
	Results []Located `json:"results"`
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	base := q.Get("base")
	if base == "" {
		base = defaultBase
	}
	names := q["name"]
	if len(names) == 0 {
		names = s.rig.Names()
	}

	atNS := space.MonotonicNS()
	if at := q.Get("at"); at != "" {
		d, err := time.ParseDuration(at)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad at %q", at))
			return
		}
		atNS = d.Nanoseconds()
	}

	located, err := s.rig.Locate(base, atNS, names)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := LocateResponse{Base: base, AtNS: atNS, Results: make([]Located, len(located))}
	for i, l := range located {
		resp.Results[i] = toLocated(l.Name, l.Relation, l.Err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toLocated(name string, rel relation.Relation, err error) Located {
	if err != nil {
		return Located{Name: name, Flags: relation.Flags(0).String(), Error: errors.UserMessage(err)}
	}
	p, o := rel.Pose.Position, rel.Pose.Orientation
	return Located{
		Name:        name,
		Position:    [3]float32{p.X, p.Y, p.Z},
		Orientation: [4]float32{o.X, o.Y, o.Z, o.W},
		YawDeg:      yawDeg(o),
		Flags:       rel.Flags.String(),
	}
}

func yawDeg(q pose.Quat) float64 {
	deg := q.Yaw() * 180 / math.Pi
	if math.Abs(deg) < 1e-6 {
		return 0
	}
	return deg
}

// =============================================================================
// Recenter
// =============================================================================

func (s *Server) handleRecenter(w http.ResponseWriter, _ *http.Request) {
	if err := s.rig.Overseer.RecenterLocalSpaces(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Offsets
// =============================================================================

// Offset is the body of GET and PUT /spaces/{space}/offset. GET fills in
// both the full orientation (x, y, z, w) and its yaw. On PUT an orientation,
// when present, wins over yaw_deg, so a GET body sent back unchanged restores
// the same offset.
type Offset struct {
	Position    [3]float32  `json:"position"`
	Orientation *[4]float32 `json:"orientation,omitempty"`
	YawDeg      float64     `json:"yaw_deg"`
}

func toOffset(p pose.Pose) Offset {
	o := p.Orientation
	return Offset{
		Position:    [3]float32{p.Position.X, p.Position.Y, p.Position.Z},
		Orientation: &[4]float32{o.X, o.Y, o.Z, o.W},
		YawDeg:      yawDeg(o),
	}
}

func (o Offset) pose() (pose.Pose, error) {
	q := pose.FromYaw(o.YawDeg * math.Pi / 180)
	if o.Orientation != nil {
		q = pose.Quat{X: o.Orientation[0], Y: o.Orientation[1], Z: o.Orientation[2], W: o.Orientation[3]}
		if q.Len() == 0 {
			return pose.Pose{}, errors.New(errors.ErrCodeInvalidInput, "zero orientation quaternion")
		}
		q = q.Normalize()
	}
	return pose.New(pose.Vec3{X: o.Position[0], Y: o.Position[1], Z: o.Position[2]}, q), nil
}

func spaceParam(r *http.Request) (device.ReferenceSpace, error) {
	name := chi.URLParam(r, "space")
	kind, err := device.ParseReferenceSpace(name)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad reference space %q", name)
	}
	return kind, nil
}

func (s *Server) handleGetOffset(w http.ResponseWriter, r *http.Request) {
	kind, err := spaceParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.rig.Overseer.GetReferenceSpaceOffset(kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOffset(p))
}

func (s *Server) handleSetOffset(w http.ResponseWriter, r *http.Request) {
	kind, err := spaceParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var body Offset
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode offset"))
		return
	}

	offset, err := body.pose()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.rig.Overseer.SetReferenceSpaceOffset(kind, offset); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("Reference space moved", "space", kind, "position", body.Position, "yaw_deg", yawDeg(offset.Orientation))
	w.WriteHeader(http.StatusNoContent)
}
