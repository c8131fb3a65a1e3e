package idmetrics

import (
	"github.com/pkg/errors"
)

// Frame describes a single timestep of a sequence: which ground-truth and
// tracker identities are present, and the pairwise similarity between them.
type Frame struct {
	// Global ground-truth identity indices present at this timestep
	GtIDs []int
	// Global tracker identity indices present at this timestep
	TrackerIDs []int
	// Similarity scores in [0,1], one row per entry of GtIDs,
	// one column per entry of TrackerIDs
	Similarity [][]float64
}

// SequenceData is the fully assembled input for scoring one sequence.
// It is produced by an external loader and never mutated by the evaluators.
// Identity indices are contiguous: [0, NumGtIDs) and [0, NumTrackerIDs).
type SequenceData struct {
	// Number of distinct ground-truth identities in the sequence
	NumGtIDs int
	// Number of distinct tracker identities in the sequence
	NumTrackerIDs int
	// Total ground-truth detection count across all frames
	NumGtDets int
	// Total tracker detection count across all frames
	NumTrackerDets int
	// One entry per timestep, in sequence order
	Frames []Frame
}

// Validate checks the declared shape of the sequence before any accumulation
// runs, so a malformed frame can never corrupt the co-occurrence tables.
func (data *SequenceData) Validate() error {
	if data == nil {
		return errors.New("sequence data must not be nil")
	}
	if data.NumGtIDs < 0 || data.NumTrackerIDs < 0 {
		return errors.Errorf("negative identity counts: %d gt, %d tracker", data.NumGtIDs, data.NumTrackerIDs)
	}
	if data.NumGtDets < 0 || data.NumTrackerDets < 0 {
		return errors.Errorf("negative detection counts: %d gt, %d tracker", data.NumGtDets, data.NumTrackerDets)
	}
	for t, frame := range data.Frames {
		if len(frame.Similarity) != len(frame.GtIDs) {
			return errors.Errorf("frame %d: similarity matrix has %d rows, expected %d", t, len(frame.Similarity), len(frame.GtIDs))
		}
		for i, row := range frame.Similarity {
			if len(row) != len(frame.TrackerIDs) {
				return errors.Errorf("frame %d: similarity row %d has %d columns, expected %d", t, i, len(row), len(frame.TrackerIDs))
			}
		}
		for _, gtID := range frame.GtIDs {
			if gtID < 0 || gtID >= data.NumGtIDs {
				return errors.Errorf("frame %d: gt identity %d outside [0, %d)", t, gtID, data.NumGtIDs)
			}
		}
		for _, trackerID := range frame.TrackerIDs {
			if trackerID < 0 || trackerID >= data.NumTrackerIDs {
				return errors.Errorf("frame %d: tracker identity %d outside [0, %d)", t, trackerID, data.NumTrackerIDs)
			}
		}
	}
	return nil
}
