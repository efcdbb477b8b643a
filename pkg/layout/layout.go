package layout

import (
	"fmt"
	"math"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// Source is the read-only view of a graph the engine needs.
// *family.Graph satisfies it.
type Source interface {
	Members() []family.Member
	Relationships() []family.Relationship
}

// Placement is the computed annotation of one member.
type Placement struct {
	Position          family.Position `json:"position"`
	Generation        int             `json:"generation"`
	IsInDirectLineage bool            `json:"is_in_direct_lineage"`
	Anchor            string          `json:"anchor,omitempty"` // Spouse the member was placed next to
	Grid              bool            `json:"grid,omitempty"`   // Placed on the fallback grid row
}

// Annotation converts p to the value written back onto the member.
func (p Placement) Annotation() family.Annotation {
	return family.Annotation{
		Position:          p.Position,
		Generation:        p.Generation,
		IsInDirectLineage: p.IsInDirectLineage,
	}
}

// Bounds is the bounding box of all positions.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Result is the output of Compute.
type Result struct {
	Kind   Kind
	Config Config
	Roots  []string
	Nodes  map[string]Placement
	Order  []string // Member insertion order
	Bounds Bounds
}

// Placement returns the placement of a member.
func (r *Result) Placement(id string) (Placement, bool) {
	p, ok := r.Nodes[id]
	return p, ok
}

// Apply writes every placement onto g in member order. It stops at the first
// member missing from g, which means g changed since Compute ran.
func (r *Result) Apply(g *family.Graph) error {
	for _, id := range r.Order {
		if err := g.Annotate(id, r.Nodes[id].Annotation()); err != nil {
			return fmt.Errorf("apply %s layout: %w", r.Kind, err)
		}
	}
	return nil
}

// Compute lays out every member of src. It fails only for an unknown kind
// (ErrCodeInvalidLayout); cycles and disconnected members are placed by the
// fallbacks described in the package documentation.
func Compute(src Source, kind Kind, opts ...Option) (*Result, error) {
	if !kind.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "unknown layout kind %q", kind)
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.WithDefaults()

	f := buildForest(src)
	f.traverse()

	e := &engine{
		f:          f,
		cfg:        cfg,
		kind:       kind,
		nodes:      make(map[string]Placement, len(f.order)),
		stacked:    make(map[string]int),
		companions: make(map[string]int),
	}
	partners := f.partnerRoots()
	var trees []string
	for _, r := range f.roots {
		if s, ok := partners[r]; ok {
			e.companions[s]++
			continue
		}
		trees = append(trees, r)
	}
	for _, id := range f.order {
		if s, ok := f.marriedInto(id); ok {
			e.companions[s]++
		}
	}

	switch kind {
	case Radial:
		e.radial(trees)
	default:
		e.linear(trees)
	}

	for _, r := range f.roots {
		if s, ok := partners[r]; ok {
			e.besideSpouse(r, s, 0, true)
		}
	}
	e.grid()
	for _, id := range f.order {
		if _, placed := e.nodes[id]; placed {
			continue
		}
		if s, ok := f.marriedInto(id); ok {
			e.besideSpouse(id, s, e.nodes[s].Generation, false)
		}
	}

	return &Result{
		Kind:   kind,
		Config: cfg,
		Roots:  append([]string(nil), f.roots...),
		Nodes:  e.nodes,
		Order:  f.order,
		Bounds: e.bounds(),
	}, nil
}

type engine struct {
	f          *forest
	cfg        Config
	kind       Kind
	nodes      map[string]Placement
	stacked    map[string]int // anchor -> members already placed beside it
	companions map[string]int // anchor -> members that will be placed beside it
	maxRadius  float64
}

func (e *engine) at(x, y float64) family.Position {
	return family.Position{X: round(e.cfg.Center.X + x), Y: round(e.cfg.Center.Y + y)}
}

// linear places trees for the vertical and horizontal kinds.
func (e *engine) linear(trees []string) {
	slots := make(map[string]float64, len(e.f.depth))
	next := 0.0

	// Every spouse placed beside a member takes half a slot on its row, so
	// the next member of that row starts after them.
	reserve := func(id string) {
		if c := e.companions[id]; c > 0 {
			next = math.Max(next, slots[id]+1+float64(c)/2)
		}
	}

	var assign func(id string) float64
	assign = func(id string) float64 {
		kids := e.f.tree[id]
		if len(kids) == 0 {
			slots[id] = next
			next++
			reserve(id)
			return slots[id]
		}
		first := assign(kids[0])
		last := first
		for _, k := range kids[1:] {
			last = assign(k)
		}
		slots[id] = (first + last) / 2
		reserve(id)
		return slots[id]
	}

	for i, r := range trees {
		if i > 0 {
			next++
		}
		assign(r)
	}

	for _, id := range e.f.order {
		slot, ok := slots[id]
		if !ok {
			continue
		}
		gen := float64(e.f.depth[id])
		var pos family.Position
		if e.kind == Horizontal {
			pos = e.at(gen*e.cfg.HorizontalSpacing, slot*e.cfg.VerticalSpacing)
		} else {
			pos = e.at(slot*e.cfg.HorizontalSpacing, gen*e.cfg.VerticalSpacing)
		}
		e.nodes[id] = Placement{Position: pos, Generation: e.f.depth[id], IsInDirectLineage: true}
	}
}

// Radial layouts start at the top of the circle and run clockwise in screen
// coordinates.
const startAngle = -math.Pi / 2

func (e *engine) radial(trees []string) {
	switch len(trees) {
	case 0:
		return
	case 1:
		root := trees[0]
		e.nodes[root] = Placement{Position: e.at(0, 0), IsInDirectLineage: true}
		e.fan(root, startAngle, startAngle+2*math.Pi, 0)
		return
	}

	width := 2 * math.Pi / float64(len(trees))
	for i, root := range trees {
		from := startAngle + float64(i)*width
		e.polar(root, e.cfg.InnerRadius, from+width/2)
		e.fan(root, from, from+width, e.cfg.InnerRadius)
	}
}

// fan splits the sector [from, to) of id evenly among its children.
func (e *engine) fan(id string, from, to, base float64) {
	kids := e.f.tree[id]
	if len(kids) == 0 {
		return
	}
	width := (to - from) / float64(len(kids))
	for i, k := range kids {
		a := from + float64(i)*width
		e.polar(k, base+float64(e.f.depth[k])*e.cfg.RadialStep, a+width/2)
		e.fan(k, a, a+width, base)
	}
}

func (e *engine) polar(id string, radius, angle float64) {
	e.maxRadius = math.Max(e.maxRadius, radius)
	e.nodes[id] = Placement{
		Position:          e.at(radius*math.Cos(angle), radius*math.Sin(angle)),
		Generation:        e.f.depth[id],
		IsInDirectLineage: true,
	}
}

// besideSpouse places id next to its spouse along the sibling axis,
// stacking outward when several members share the same spouse.
func (e *engine) besideSpouse(id, spouse string, generation int, lineage bool) {
	anchor := e.nodes[spouse].Position
	e.stacked[spouse]++
	k := float64(e.stacked[spouse])

	var dx, dy float64
	switch e.kind {
	case Vertical:
		dx = k * e.cfg.HorizontalSpacing / 2
	case Horizontal:
		dy = k * e.cfg.VerticalSpacing / 2
	case Radial:
		step := k * e.cfg.RadialStep / 2
		rx, ry := anchor.X-e.cfg.Center.X, anchor.Y-e.cfg.Center.Y
		if r := math.Hypot(rx, ry); r > 1e-9 {
			dx, dy = -ry/r*step, rx/r*step
		} else {
			dx = step
		}
	}

	e.nodes[id] = Placement{
		Position:          family.Position{X: round(anchor.X + dx), Y: round(anchor.Y + dy)},
		Generation:        generation,
		IsInDirectLineage: lineage,
		Anchor:            spouse,
	}
}

// grid places members no root reaches on a row below the deepest
// generation. Radial layouts spread them evenly on a ring one step outside
// the outermost member, starting at the top.
func (e *engine) grid() {
	var ids []string
	for _, id := range e.f.order {
		if _, placed := e.nodes[id]; placed || e.f.reached(id) {
			continue
		}
		if _, married := e.f.marriedInto(id); married {
			continue
		}
		ids = append(ids, id)
	}

	row := float64(e.f.maxDepth() + 1)
	ring := e.maxRadius + e.cfg.RadialStep
	for i, id := range ids {
		slot := float64(i)
		var pos family.Position
		switch e.kind {
		case Horizontal:
			pos = e.at(row*e.cfg.HorizontalSpacing, slot*e.cfg.VerticalSpacing)
		case Radial:
			angle := startAngle + slot*2*math.Pi/float64(len(ids))
			pos = e.at(ring*math.Cos(angle), ring*math.Sin(angle))
		default:
			pos = e.at(slot*e.cfg.HorizontalSpacing, row*e.cfg.VerticalSpacing)
		}
		e.nodes[id] = Placement{Position: pos, Grid: true}
	}
}

func (e *engine) bounds() Bounds {
	var b Bounds
	first := true
	for _, id := range e.f.order {
		p, ok := e.nodes[id]
		if !ok {
			continue
		}
		if first {
			b = Bounds{MinX: p.Position.X, MinY: p.Position.Y, MaxX: p.Position.X, MaxY: p.Position.Y}
			first = false
			continue
		}
		b.MinX = math.Min(b.MinX, p.Position.X)
		b.MinY = math.Min(b.MinY, p.Position.Y)
		b.MaxX = math.Max(b.MaxX, p.Position.X)
		b.MaxY = math.Max(b.MaxY, p.Position.Y)
	}
	return b
}

// round trims floating point noise from trigonometry so equal inputs print
// identically.
func round(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return r
}
