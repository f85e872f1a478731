package pipeline

import (
	"github.com/MeKo-Tech/folio/internal/background"
	"github.com/MeKo-Tech/folio/internal/contour"
	"github.com/MeKo-Tech/folio/internal/correct"
	"github.com/MeKo-Tech/folio/internal/edges"
	"github.com/MeKo-Tech/folio/internal/fold"
	"github.com/MeKo-Tech/folio/internal/format"
	"github.com/MeKo-Tech/folio/internal/gradient"
	"github.com/MeKo-Tech/folio/internal/split"
)

// Config aggregates the configuration of every processing stage.
type Config struct {
	Seed            int64             `mapstructure:"seed"             json:"seed"             yaml:"seed"`
	DPI             float64           `mapstructure:"dpi"              json:"dpi"              yaml:"dpi"`
	AutoSplit       bool              `mapstructure:"auto_split"       json:"auto_split"       yaml:"auto_split"`
	SplitConfidence float64           `mapstructure:"split_confidence" json:"split_confidence" yaml:"split_confidence"`
	Gradient        gradient.Config   `mapstructure:"gradient"         json:"gradient"         yaml:"gradient"`
	Background      background.Config `mapstructure:"background"       json:"background"       yaml:"background"`
	Edges           edges.Config      `mapstructure:"edges"            json:"edges"            yaml:"edges"`
	Contour         contour.Config    `mapstructure:"contour"          json:"contour"          yaml:"contour"`
	Correct         correct.Config    `mapstructure:"correct"          json:"correct"          yaml:"correct"`
	Fold            fold.Config       `mapstructure:"fold"             json:"fold"             yaml:"fold"`
	Split           split.Config      `mapstructure:"split"            json:"split"            yaml:"split"`
	Format          format.Config     `mapstructure:"format"           json:"format"           yaml:"format"`
}

// DefaultConfig returns a processor config with component defaults.
func DefaultConfig() Config {
	return Config{
		Seed:            1,
		DPI:             0,
		AutoSplit:       false,
		SplitConfidence: 0.6,
		Gradient:        gradient.DefaultConfig(),
		Background:      background.DefaultConfig(),
		Edges:           edges.DefaultConfig(),
		Contour:         contour.DefaultConfig(),
		Correct:         correct.DefaultConfig(),
		Fold:            fold.DefaultConfig(),
		Split:           split.DefaultConfig(),
		Format:          format.DefaultConfig(),
	}
}

// Builder constructs a Processor with fluent configuration.
type Builder struct {
	cfg      Config
	observer Observer
}

// NewBuilder creates a builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithSeed sets the random seed used by consensus fitting and fold
// detection row sampling.
func (b *Builder) WithSeed(seed int64) *Builder {
	b.cfg.Seed = seed
	return b
}

// WithDPI sets the scan resolution; 0 means unknown.
func (b *Builder) WithDPI(dpi float64) *Builder {
	if dpi >= 0 {
		b.cfg.DPI = dpi
	}
	return b
}

// WithMargin sets the crop margin. 0 selects rotation-only mode.
func (b *Builder) WithMargin(margin int) *Builder {
	if margin >= 0 {
		b.cfg.Correct.Margin = margin
	}
	return b
}

// WithAutoSplit enables splitting when a fold is found with at least the
// given confidence.
func (b *Builder) WithAutoSplit(enabled bool, minConfidence float64) *Builder {
	b.cfg.AutoSplit = enabled
	if minConfidence > 0 {
		b.cfg.SplitConfidence = minConfidence
	}
	return b
}

// WithSmartCrop toggles brightness-drop edge refinement during splitting.
func (b *Builder) WithSmartCrop(enabled bool) *Builder {
	b.cfg.Split.SmartCrop = enabled
	return b
}

// WithObserver installs a stage observer.
func (b *Builder) WithObserver(obs Observer) *Builder {
	b.observer = obs
	return b
}

// Build creates the processor.
func (b *Builder) Build() (*Processor, error) {
	return NewProcessor(b.cfg, b.observer)
}
