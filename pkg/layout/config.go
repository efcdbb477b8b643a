package layout

import (
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// Kind selects the positioning strategy.
type Kind string

const (
	Vertical   Kind = "vertical"
	Horizontal Kind = "horizontal"
	Radial     Kind = "radial"
)

// Kinds lists the supported layout kinds.
var Kinds = []Kind{Vertical, Horizontal, Radial}

// ParseKind resolves a layout kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", errors.New(errors.ErrCodeInvalidLayout, "unknown layout kind %q (want vertical, horizontal or radial)", s)
	}
	return k, nil
}

// Valid reports whether k is a supported layout kind.
func (k Kind) Valid() bool {
	return k == Vertical || k == Horizontal || k == Radial
}

// Default spacing constants.
const (
	DefaultHorizontalSpacing = 200
	DefaultVerticalSpacing   = 150
	DefaultRadialStep        = 180
	DefaultInnerRadius       = 90
)

// Config holds the spacing constants. Zero fields fall back to the defaults.
type Config struct {
	HorizontalSpacing float64         `toml:"horizontal_spacing" json:"horizontal_spacing" bson:"horizontal_spacing"`
	VerticalSpacing   float64         `toml:"vertical_spacing" json:"vertical_spacing" bson:"vertical_spacing"`
	RadialStep        float64         `toml:"radial_step" json:"radial_step" bson:"radial_step"`
	InnerRadius       float64         `toml:"inner_radius" json:"inner_radius" bson:"inner_radius"`
	Center            family.Position `toml:"center" json:"center" bson:"center"` // Origin of every kind, centre of radial layouts
}

// DefaultConfig returns the default spacing constants.
func DefaultConfig() Config {
	return Config{
		HorizontalSpacing: DefaultHorizontalSpacing,
		VerticalSpacing:   DefaultVerticalSpacing,
		RadialStep:        DefaultRadialStep,
		InnerRadius:       DefaultInnerRadius,
	}
}

// WithDefaults returns c with every non-positive spacing replaced by its default.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.HorizontalSpacing <= 0 {
		c.HorizontalSpacing = d.HorizontalSpacing
	}
	if c.VerticalSpacing <= 0 {
		c.VerticalSpacing = d.VerticalSpacing
	}
	if c.RadialStep <= 0 {
		c.RadialStep = d.RadialStep
	}
	if c.InnerRadius <= 0 {
		c.InnerRadius = d.InnerRadius
	}
	return c
}

// Option overrides part of the Config used by Compute.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option { return func(cfg *Config) { *cfg = c } }

// WithSpacing sets the horizontal and vertical spacing.
func WithSpacing(horizontal, vertical float64) Option {
	return func(cfg *Config) {
		cfg.HorizontalSpacing = horizontal
		cfg.VerticalSpacing = vertical
	}
}

// WithRadialStep sets the radius added per generation in radial layouts.
func WithRadialStep(step float64) Option { return func(cfg *Config) { cfg.RadialStep = step } }

// WithInnerRadius sets the radius of the circle multiple radial roots sit on.
func WithInnerRadius(r float64) Option { return func(cfg *Config) { cfg.InnerRadius = r } }

// WithCenter moves the layout origin.
func WithCenter(p family.Position) Option { return func(cfg *Config) { cfg.Center = p } }
