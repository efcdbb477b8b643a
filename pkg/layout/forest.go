package layout

import "github.com/matzehuels/kintree/pkg/family"

// forest is the parent_child structure of a Source plus the traversal state.
type forest struct {
	order     []string
	children  map[string][]string // parent -> children, edge insertion order
	hasParent map[string]bool
	linked    map[string]bool     // member has at least one parent_child edge
	spouses   map[string][]string // edge insertion order, both directions

	roots  []string
	depth  map[string]int    // set for every reached member
	parent map[string]string // shortest-path parent
	tree   map[string][]string
}

func buildForest(src Source) *forest {
	members := src.Members()
	f := &forest{
		order:     make([]string, 0, len(members)),
		children:  make(map[string][]string),
		hasParent: make(map[string]bool),
		linked:    make(map[string]bool),
		spouses:   make(map[string][]string),
		depth:     make(map[string]int),
		parent:    make(map[string]string),
		tree:      make(map[string][]string),
	}
	known := make(map[string]bool, len(members))
	for _, m := range members {
		if known[m.ID] {
			continue
		}
		known[m.ID] = true
		f.order = append(f.order, m.ID)
	}

	seen := make(map[[2]string]bool)
	for _, r := range src.Relationships() {
		if !known[r.SourceID] || !known[r.TargetID] || r.SourceID == r.TargetID {
			continue
		}
		switch r.Kind {
		case family.KindParentChild:
			key := [2]string{r.SourceID, r.TargetID}
			if seen[key] {
				continue
			}
			seen[key] = true
			f.children[r.SourceID] = append(f.children[r.SourceID], r.TargetID)
			f.hasParent[r.TargetID] = true
			f.linked[r.SourceID] = true
			f.linked[r.TargetID] = true
		case family.KindSpouse:
			f.spouses[r.SourceID] = append(f.spouses[r.SourceID], r.TargetID)
			f.spouses[r.TargetID] = append(f.spouses[r.TargetID], r.SourceID)
		}
	}
	return f
}

// marriedInto returns the spouse through which a member without parent_child
// edges joins the forest.
func (f *forest) marriedInto(id string) (string, bool) {
	if f.linked[id] {
		return "", false
	}
	for _, s := range f.spouses[id] {
		if f.linked[s] {
			return s, true
		}
	}
	return "", false
}

func (f *forest) reached(id string) bool {
	_, ok := f.depth[id]
	return ok
}

// traverse finds the roots and builds the shortest-path placement tree.
func (f *forest) traverse() {
	for _, id := range f.order {
		if f.hasParent[id] {
			continue
		}
		if _, ok := f.marriedInto(id); ok {
			continue
		}
		f.roots = append(f.roots, id)
		f.depth[id] = 0
	}

	active := make(map[string]bool)
	for _, r := range f.roots {
		f.visit(r, active)
	}

	for _, id := range f.order {
		for _, c := range f.children[id] {
			if p, ok := f.parent[c]; ok && p == id {
				f.tree[id] = append(f.tree[id], c)
			}
		}
	}
}

// visit walks the children of id. Members on the active path are treated as
// leaves; members already reached are re-entered only when the new path is
// strictly shorter.
func (f *forest) visit(id string, active map[string]bool) {
	active[id] = true
	d := f.depth[id]
	for _, c := range f.children[id] {
		if active[c] {
			continue
		}
		if cur, ok := f.depth[c]; ok && cur <= d+1 {
			continue
		}
		f.depth[c] = d + 1
		f.parent[c] = id
		f.visit(c, active)
	}
	delete(active, id)
}

// partnerRoots returns the roots with an empty placement tree that sit next
// to a spouse instead of taking a slot of their own, keyed by root.
//
// A spouse qualifies when it is reached and is either a descendant, a root
// with children, or an earlier root that keeps its own slot.
func (f *forest) partnerRoots() map[string]string {
	index := make(map[string]int, len(f.roots))
	for i, r := range f.roots {
		index[r] = i
	}

	out := make(map[string]string)
	for i, r := range f.roots {
		if len(f.tree[r]) > 0 {
			continue
		}
		for _, s := range f.spouses[r] {
			if !f.reached(s) {
				continue
			}
			j, isRoot := index[s]
			_, attached := out[s]
			if !isRoot || len(f.tree[s]) > 0 || (j < i && !attached) {
				out[r] = s
				break
			}
		}
	}
	return out
}

func (f *forest) maxDepth() int {
	deepest := -1
	for _, id := range f.order {
		if d, ok := f.depth[id]; ok && d > deepest {
			deepest = d
		}
	}
	return deepest
}
