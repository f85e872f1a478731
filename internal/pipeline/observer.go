package pipeline

import (
	"github.com/MeKo-Tech/folio/internal/background"
	"github.com/MeKo-Tech/folio/internal/contour"
	"github.com/MeKo-Tech/folio/internal/edges"
	"github.com/MeKo-Tech/folio/internal/fold"
)

// Observer receives intermediate stage results during processing. All hooks
// run synchronously on the processing goroutine; implementations should
// return quickly.
type Observer interface {
	OnBackground(stats background.Stats)
	OnEdgePoints(points edges.PointSets)
	OnContour(res contour.Result)
	OnFold(est fold.Estimate)
}

// NopObserver ignores every stage.
type NopObserver struct{}

func (NopObserver) OnBackground(background.Stats)  {}
func (NopObserver) OnEdgePoints(edges.PointSets)   {}
func (NopObserver) OnContour(contour.Result)       {}
func (NopObserver) OnFold(fold.Estimate)           {}
