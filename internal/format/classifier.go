// Package format classifies page pixel dimensions against standard paper
// sizes, deciding among other things whether an image can be a two-page
// spread worth running fold detection on.
package format

import (
	"math"
)

// Class is a physical paper size class.
type Class string

const (
	ClassA3      Class = "A3"
	ClassA4      Class = "A4"
	ClassA5      Class = "A5"
	ClassLetter  Class = "Letter"
	ClassLegal   Class = "Legal"
	ClassTabloid Class = "Tabloid"
	ClassUnknown Class = "Unknown"
)

// Orientation of the classified page.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Result is a classification with a match confidence in [0,1].
type Result struct {
	Class       Class
	Orientation Orientation
	Confidence  float64
}

// paperSize is a physical format in centimeters, portrait order.
type paperSize struct {
	class  Class
	wCm    float64
	hCm    float64
	noLand bool // never matched in landscape orientation
}

// A4 in landscape is indistinguishable from half of an A3 spread, so it is
// only matched in portrait.
var paperSizes = []paperSize{
	{class: ClassA3, wCm: 29.7, hCm: 42.0},
	{class: ClassA4, wCm: 21.0, hCm: 29.7, noLand: true},
	{class: ClassA5, wCm: 14.8, hCm: 21.0},
	{class: ClassLetter, wCm: 21.59, hCm: 27.94},
	{class: ClassLegal, wCm: 21.59, hCm: 35.56},
	{class: ClassTabloid, wCm: 27.94, hCm: 43.18},
}

// Config holds classification tolerances.
type Config struct {
	DefaultDPI      float64 `mapstructure:"default_dpi"      json:"default_dpi"      yaml:"default_dpi"`
	SizeTolerance   float64 `mapstructure:"size_tolerance"   json:"size_tolerance"   yaml:"size_tolerance"`
	AspectTolerance float64 `mapstructure:"aspect_tolerance" json:"aspect_tolerance" yaml:"aspect_tolerance"`
}

// DefaultConfig returns classification defaults.
func DefaultConfig() Config {
	return Config{
		DefaultDPI:      300,
		SizeTolerance:   0.05,
		AspectTolerance: 0.03,
	}
}

// Classifier matches pixel dimensions against the paper size table.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify converts pixel dimensions to centimeters via DPI and matches the
// size table within the configured tolerance. dpi<=0 means unknown; the
// classifier then falls back to a pure aspect-ratio check against the A3
// spread shape.
func (c *Classifier) Classify(widthPx, heightPx int, dpi float64) Result {
	if widthPx <= 0 || heightPx <= 0 {
		return Result{Class: ClassUnknown, Orientation: OrientationPortrait, Confidence: 0}
	}

	orientation := OrientationPortrait
	if widthPx > heightPx {
		orientation = OrientationLandscape
	}

	if dpi <= 0 {
		return c.classifyByAspect(widthPx, heightPx, orientation)
	}

	wCm := float64(widthPx) / dpi * 2.54
	hCm := float64(heightPx) / dpi * 2.54
	// compare in portrait order
	if wCm > hCm {
		wCm, hCm = hCm, wCm
	}

	best := Result{Class: ClassUnknown, Orientation: orientation, Confidence: 0}
	for _, size := range paperSizes {
		if size.noLand && orientation == OrientationLandscape {
			continue
		}
		dw := math.Abs(wCm-size.wCm) / size.wCm
		dh := math.Abs(hCm-size.hCm) / size.hCm
		if dw > c.cfg.SizeTolerance || dh > c.cfg.SizeTolerance {
			continue
		}
		conf := 1 - (dw+dh)/(2*c.cfg.SizeTolerance)
		if conf > best.Confidence {
			best = Result{Class: size.class, Orientation: orientation, Confidence: conf}
		}
	}
	return best
}

// classifyByAspect matches the landscape A3 aspect ratio 42:29.7, the shape
// of an open book spread of A4 pages.
func (c *Classifier) classifyByAspect(widthPx, heightPx int, orientation Orientation) Result {
	long := float64(widthPx)
	short := float64(heightPx)
	if short > long {
		long, short = short, long
	}
	target := 42.0 / 29.7
	dev := math.Abs(long/short-target) / target
	if dev > c.cfg.AspectTolerance {
		return Result{Class: ClassUnknown, Orientation: orientation, Confidence: 0}
	}
	return Result{
		Class:       ClassA3,
		Orientation: orientation,
		Confidence:  1 - dev/c.cfg.AspectTolerance,
	}
}

// IsSpreadCandidate reports whether fold detection should run: landscape
// pages whose size class can hold two facing pages.
func IsSpreadCandidate(r Result) bool {
	if r.Orientation != OrientationLandscape {
		return false
	}
	switch r.Class {
	case ClassA3, ClassTabloid:
		return true
	case ClassUnknown:
		// aspect fallback already filtered for the spread shape
		return r.Confidence > 0
	default:
		return false
	}
}
