package family

// Position is a 2D coordinate in layout space.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Member is a node of the family graph.
//
// The zero value is not usable - DisplayName must be set before adding it
// to a Graph. ID may be left empty to have one assigned.
type Member struct {
	ID          string
	DisplayName string
	Role        string // Free-form: "parent", "child", "spouse", "member", ...

	BirthDate string
	DeathDate string
	Bio       string
	AvatarRef string

	// Externally supplied annotations.
	StoryCount    int
	HasNewStories bool

	Position Position

	// Derived by the layout engine, overwritten on every run.
	Generation        int
	IsInDirectLineage bool
}

// Annotation is the set of derived values the layout engine writes back.
type Annotation struct {
	Position          Position
	Generation        int
	IsInDirectLineage bool
}
