package layout_test

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
)

func ExampleCompute() {
	// Two children below one parent, a spouse married into the family
	g := family.New()
	_, _ = g.AddMember(family.Member{ID: "john", DisplayName: "John"})
	_, _ = g.AddMember(family.Member{ID: "mary", DisplayName: "Mary"})
	_, _ = g.AddMember(family.Member{ID: "ann", DisplayName: "Ann"})
	_, _ = g.AddMember(family.Member{ID: "bob", DisplayName: "Bob"})
	_, _ = g.Connect("john", "ann", family.KindParentChild)
	_, _ = g.Connect("john", "bob", family.KindParentChild)
	_, _ = g.Connect("john", "mary", family.KindSpouse)

	res, _ := layout.Compute(g, layout.Vertical)
	for _, id := range res.Order {
		p := res.Nodes[id]
		fmt.Printf("%s (%g,%g) gen=%d lineage=%v\n", id, p.Position.X, p.Position.Y, p.Generation, p.IsInDirectLineage)
	}
	// Output:
	// john (100,0) gen=0 lineage=true
	// mary (200,0) gen=0 lineage=false
	// ann (0,150) gen=1 lineage=true
	// bob (200,150) gen=1 lineage=true
}

func ExampleResult_Apply() {
	g := family.New()
	_, _ = g.AddMember(family.Member{ID: "a", DisplayName: "A"})
	_, _ = g.AddMember(family.Member{ID: "b", DisplayName: "B"})
	_, _ = g.Connect("a", "b", family.KindParentChild)

	res, _ := layout.Compute(g, layout.Horizontal, layout.WithSpacing(120, 80))
	_ = res.Apply(g)

	b, _ := g.Member("b")
	fmt.Println(b.Position, b.Generation)
	// Output:
	// {120 0} 1
}
