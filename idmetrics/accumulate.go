package idmetrics

import (
	"gonum.org/v1/gonum/mat"
)

// coOccurrence aggregates per-frame match evidence into global statistics:
// matches[g,t] counts the frames where similarity(g,t) reached the threshold,
// gtCounts and trackerCounts hold the total detection count per identity.
// Built once per evaluation call, consumed once, then discarded.
type coOccurrence struct {
	matches       *mat.Dense
	gtCounts      []float64
	trackerCounts []float64
}

// accumulate visits every frame exactly once. Accumulation is commutative,
// the frame order does not matter.
func accumulate(data *SequenceData, threshold float64) *coOccurrence {
	acc := &coOccurrence{
		matches:       mat.NewDense(data.NumGtIDs, data.NumTrackerIDs, nil),
		gtCounts:      make([]float64, data.NumGtIDs),
		trackerCounts: make([]float64, data.NumTrackerIDs),
	}
	for _, frame := range data.Frames {
		for i, gtID := range frame.GtIDs {
			for j, trackerID := range frame.TrackerIDs {
				if frame.Similarity[i][j] >= threshold {
					acc.matches.Set(gtID, trackerID, acc.matches.At(gtID, trackerID)+1)
				}
			}
			acc.gtCounts[gtID]++
		}
		for _, trackerID := range frame.TrackerIDs {
			acc.trackerCounts[trackerID]++
		}
	}
	return acc
}
