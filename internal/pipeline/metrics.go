package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	imagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_images_processed_total",
			Help: "Total number of images processed",
		},
		[]string{"outcome"}, // outcome: corrected, passthrough, error
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_stage_duration_seconds",
			Help:    "Processing stage duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	skewAngleDegrees = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_skew_angle_degrees",
			Help:    "Absolute detected skew angle in degrees",
			Buckets: []float64{0, .1, .25, .5, 1, 2, 5, 10, 20, 45},
		},
	)

	foldConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_fold_confidence",
			Help:    "Confidence of fold position estimates",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	contourSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_contour_source_total",
			Help: "How page outlines were obtained",
		},
		[]string{"source"}, // source: gradient, polygon, none
	)
)
