package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/layout"
)

func sampleTree(t *testing.T) (graph.Document, graph.LayoutDocument) {
	t.Helper()
	g := family.New()
	for _, m := range []family.Member{
		{ID: "john", DisplayName: "John", Role: "grandfather"},
		{ID: "mary", DisplayName: "Mary"},
		{ID: "ann", DisplayName: "Ann", StoryCount: 3},
	} {
		if _, err := g.AddMember(m); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.Connect("john", "ann", family.KindParentChild); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Connect("john", "mary", family.KindSpouse); err != nil {
		t.Fatal(err)
	}
	res, err := layout.Compute(g, layout.Vertical)
	if err != nil {
		t.Fatal(err)
	}
	return graph.Export(g), graph.FromResult(res, g)
}

func TestToDOT(t *testing.T) {
	doc, lay := sampleTree(t)
	dot := ToDOT(doc, lay, Options{Scale: 1})

	tests := []struct {
		name string
		want string
	}{
		{"undirected graph", "graph G {"},
		{"input scale", "inputscale=72;"},
		{"pinned root", `"john" [label="John", fillcolor="#e8f0fe", pos="0,0!"]`},
		{"child flipped y", `pos="0,-150!"`},
		{"parent edge", `"john" -- "ann" [dir=forward];`},
		{"spouse edge", `"john" -- "mary" [style=dashed];`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(dot, tt.want) {
				t.Errorf("DOT missing %q:\n%s", tt.want, dot)
			}
		})
	}
}

func TestToDOTDetailed(t *testing.T) {
	doc, lay := sampleTree(t)
	dot := ToDOT(doc, lay, Options{Detailed: true})

	for _, want := range []string{`John\ngrandfather\ngen: 0`, `Ann\ngen: 1\nstories: 3`} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTUnplaced(t *testing.T) {
	doc := graph.Document{Nodes: []graph.Node{{ID: "x", DisplayName: "X"}}}
	dot := ToDOT(doc, graph.LayoutDocument{}, Options{})
	if strings.Contains(dot, "pos=") {
		t.Errorf("unplaced member should have no pos:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 10.00 20.00" width="10" height="20"`) {
		t.Errorf("unexpected svg tag: %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("svg without viewBox should be unchanged, got %s", got)
	}
}
