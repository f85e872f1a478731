package pipeline

import (
	"image"
	"time"

	"github.com/MeKo-Tech/folio/internal/contour"
	"github.com/MeKo-Tech/folio/internal/correct"
	"github.com/MeKo-Tech/folio/internal/fold"
	"github.com/MeKo-Tech/folio/internal/format"
	"github.com/MeKo-Tech/folio/internal/split"
	"github.com/MeKo-Tech/folio/internal/utils"
)

// ReasonNoContour marks a pass-through where neither line fitting nor the
// mask fallback found a page.
const ReasonNoContour = "no-contour"

// Result is everything one processed image yields. When Applied is false
// the input image passes through unchanged and Reason names why.
type Result struct {
	Applied bool
	Reason  string

	Image image.Image // corrected image, or the original on pass-through

	Contour       *contour.Quad
	ContourSource contour.Source
	Angle         float64 // degrees
	Rotated       bool

	Crop       utils.Box         // un-rotated bounding crop in source coordinates
	ToOriginal correct.Transform // corrected -> source coordinate mapping

	Format format.Result
	Fold   *fold.Estimate // nil when the image is not a spread candidate
	Pages  *split.Pages   // set when auto-split ran

	Timings map[string]time.Duration
}

// FoldConfident reports whether a fold was found with at least the given
// confidence.
func (r *Result) FoldConfident(min float64) bool {
	return r.Fold != nil && r.Fold.Confidence >= min
}
