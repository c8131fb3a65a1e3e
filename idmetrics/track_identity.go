package idmetrics

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Average modes accepted by TrackIdentity.CombineSequences.
const (
	// AverageMicro re-derives the ratio fields from counts summed across sequences
	AverageMicro = "micro"
	// AverageMacro averages the already-computed per-sequence ratio fields
	AverageMacro = "macro"
)

// selfSinkCost prices the "this identity is entirely unmatched" option just
// below 1, so going unmatched is strictly preferable to a correspondence
// whose normalized cost would otherwise tie at 1 (zero overlap).
const selfSinkCost = 1.0 - 1e-6

// TrackIdentity computes the track-level variant of the ID metrics: the
// correspondence between ground-truth and tracker identities is still chosen
// globally, but correctness is relaxed from per-detection agreement to
// per-track overlap, so IDTP/IDFN/IDFP count whole tracks instead of
// detections.
type TrackIdentity struct {
	threshold      float64
	trackIoUThresh float64
	solver         AssignmentSolver
}

// NewTrackIdentity creates a track-level evaluator with the default
// assignment backend.
func NewTrackIdentity(cfg Config) (*TrackIdentity, error) {
	return NewTrackIdentityWithSolver(cfg, NewSolver(SolverMunkres))
}

// NewTrackIdentityWithSolver creates a track-level evaluator with a custom
// assignment backend.
func NewTrackIdentityWithSolver(cfg Config, solver AssignmentSolver) (*TrackIdentity, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		return nil, errors.New("assignment solver must not be nil")
	}
	return &TrackIdentity{
		threshold:      cfg.Threshold,
		trackIoUThresh: cfg.TrackIoUThresh,
		solver:         solver,
	}, nil
}

// EvalSequence calculates the track-level ID metrics for one sequence.
// Empty sequences report whole missed or false tracks and keep the ratio
// fields at zero without running the derivation, matching the established
// scoring of this metric.
func (tid *TrackIdentity) EvalSequence(data *SequenceData) (Result, error) {
	if err := data.Validate(); err != nil {
		return Result{}, err
	}

	if data.NumTrackerDets == 0 {
		return Result{IDFN: data.NumGtIDs}, nil
	}
	if data.NumGtDets == 0 {
		return Result{IDFP: data.NumTrackerIDs}, nil
	}

	acc := accumulate(data, tid.threshold)
	cost := buildTrackCost(data, acc)

	assignment, err := tid.solver.Solve(cost)
	if err != nil {
		return Result{}, errors.Wrap(err, "can't solve track identity assignment")
	}

	numGt, numTracker := data.NumGtIDs, data.NumTrackerIDs
	res := Result{}
	reassigned := 0
	for row, col := range assignment {
		switch {
		case row < numGt && col < numTracker:
			// A matched pair only counts as a true correspondence when the
			// overlap is large enough relative to the tracker track length.
			// The boundary value is rejected.
			overlap := acc.matches.At(row, col) / acc.trackerCounts[col]
			if overlap <= tid.trackIoUThresh {
				reassigned++
			}
		case row < numGt && col >= numTracker:
			res.IDFN++
		case row >= numGt && col < numTracker:
			res.IDFP++
		}
	}
	// A rejected pair is both a missed gt track and a false tracker track
	res.IDFN += reassigned
	res.IDFP += reassigned
	res.IDTP = numGt - res.IDFN
	return computeFinalFields(res), nil
}

// buildTrackCost assembles the normalized track-overlap cost matrix. The
// layout is the same augmented square as the detection-level variant, but a
// real cell holds the Jaccard-style distance between the two tracks
// (mismatched detections over the union of detections, bounded in [0,1]),
// sinks cost selfSinkCost against their own identity and 1 elsewhere, and
// the sink-to-sink filler block is fixed at 1.
func buildTrackCost(data *SequenceData, acc *coOccurrence) *mat.Dense {
	numGt, numTracker := data.NumGtIDs, data.NumTrackerIDs
	n := numGt + numTracker
	fn := mat.NewDense(n, n, nil)
	fp := mat.NewDense(n, n, nil)

	for t := 0; t < numTracker; t++ {
		for col := 0; col < numTracker; col++ {
			fp.Set(numGt+t, col, 1)
		}
		fp.Set(numGt+t, t, selfSinkCost)
	}
	for g := 0; g < numGt; g++ {
		for col := 0; col < numGt; col++ {
			fn.Set(g, numTracker+col, 1)
		}
		fn.Set(g, numTracker+g, selfSinkCost)
	}
	for g := 0; g < numGt; g++ {
		for t := 0; t < numTracker; t++ {
			m := acc.matches.At(g, t)
			fn.Set(g, t, acc.gtCounts[g]-m)
			fp.Set(g, t, acc.trackerCounts[t]-m)
		}
	}

	cost := mat.NewDense(n, n, nil)
	cost.Add(fn, fp)
	for g := 0; g < numGt; g++ {
		for t := 0; t < numTracker; t++ {
			m := acc.matches.At(g, t)
			raw := cost.At(g, t)
			if union := raw + m; union > 0 {
				cost.Set(g, t, raw/union)
			} else {
				// Two identities that never appear have nothing to disagree on
				cost.Set(g, t, 0)
			}
		}
	}
	for t := 0; t < numTracker; t++ {
		for g := 0; g < numGt; g++ {
			cost.Set(numGt+t, numTracker+g, 1)
		}
	}
	return cost
}

// CombineSequences combines per-sequence results. Integer fields are always
// summed; AverageMicro re-derives the ratio fields from the summed counts,
// AverageMacro averages the per-sequence ratio fields directly. Any other
// mode is a configuration error, never silently defaulted.
func (tid *TrackIdentity) CombineSequences(all map[string]Result, average string) (Result, error) {
	res, err := sumIntegerFields(all)
	if err != nil {
		return Result{}, err
	}
	switch average {
	case AverageMicro:
		return computeFinalFields(res), nil
	case AverageMacro:
		if res.IDF1, err = combineMean(all, FieldIDF1); err != nil {
			return Result{}, err
		}
		if res.IDR, err = combineMean(all, FieldIDR); err != nil {
			return Result{}, err
		}
		if res.IDP, err = combineMean(all, FieldIDP); err != nil {
			return Result{}, err
		}
		return res, nil
	default:
		return Result{}, errors.Errorf("unexpected average value: %s", average)
	}
}
