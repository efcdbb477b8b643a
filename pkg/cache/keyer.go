package cache

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey keys a computed layout by graph fingerprint and options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered preview by layout hash and options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the options that change a layout.
type LayoutKeyOpts struct {
	Kind              string  `json:"kind"`
	HorizontalSpacing float64 `json:"h"`
	VerticalSpacing   float64 `json:"v"`
	RadialStep        float64 `json:"step"`
	InnerRadius       float64 `json:"inner"`
	CenterX           float64 `json:"cx"`
	CenterY           float64 `json:"cy"`
}

// ArtifactKeyOpts are the options that change a rendered preview.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed"`
	Scale    float64 `json:"scale"`
}

// DefaultKeyer hashes the options together with the content hash.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
