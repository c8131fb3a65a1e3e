package idmetrics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Identity computes the detection-level ID metrics (IDTP/IDFN/IDFP counts and
// the IDF1/IDR/IDP ratios) for finished sequences. A single globally-optimal
// correspondence between ground-truth and tracker identities is chosen for
// the whole sequence by a minimum-cost bipartite matching over an augmented
// square cost matrix, and every detection is then scored against it.
type Identity struct {
	threshold float64
	solver    AssignmentSolver
}

// NewIdentity creates a detection-level evaluator with the default
// assignment backend.
func NewIdentity(cfg Config) (*Identity, error) {
	return NewIdentityWithSolver(cfg, NewSolver(SolverMunkres))
}

// NewIdentityWithSolver creates a detection-level evaluator with a custom
// assignment backend.
func NewIdentityWithSolver(cfg Config, solver AssignmentSolver) (*Identity, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		return nil, errors.New("assignment solver must not be nil")
	}
	return &Identity{
		threshold: cfg.Threshold,
		solver:    solver,
	}, nil
}

// EvalSequence calculates the ID metrics for one sequence. Calls for distinct
// sequences share no state and are safe to run concurrently.
func (id *Identity) EvalSequence(data *SequenceData) (Result, error) {
	if err := data.Validate(); err != nil {
		return Result{}, err
	}

	// Empty sequences resolve without touching the matrices
	if data.NumTrackerDets == 0 {
		return computeFinalFields(Result{IDFN: data.NumGtDets}), nil
	}
	if data.NumGtDets == 0 {
		return computeFinalFields(Result{IDFP: data.NumTrackerDets}), nil
	}

	acc := accumulate(data, id.threshold)
	fn, fp := buildDetectionCost(data, acc)

	n := data.NumGtIDs + data.NumTrackerIDs
	cost := mat.NewDense(n, n, nil)
	cost.Add(fn, fp)

	assignment, err := id.solver.Solve(cost)
	if err != nil {
		return Result{}, errors.Wrap(err, "can't solve identity assignment")
	}

	// Matched fn/fp cells are whole detection counts stored as floats
	var idfn, idfp float64
	for row, col := range assignment {
		idfn += fn.At(row, col)
		idfp += fp.At(row, col)
	}
	res := Result{
		IDFN: int(math.Round(idfn)),
		IDFP: int(math.Round(idfp)),
	}
	res.IDTP = data.NumGtDets - res.IDFN
	return computeFinalFields(res), nil
}

// buildDetectionCost assembles the augmented square fn/fp matrices. Rows
// [0,G) are ground-truth identities followed by one unmatched-sink row per
// tracker identity; columns [0,T) are tracker identities followed by one
// unmatched-sink column per gt identity, which squares the inherently
// rectangular matching problem. Pairing a sink with anything but its own
// identity carries a penalty derived from the total detection count, which
// strictly dominates any achievable real cost regardless of sequence size.
func buildDetectionCost(data *SequenceData, acc *coOccurrence) (fn, fp *mat.Dense) {
	numGt, numTracker := data.NumGtIDs, data.NumTrackerIDs
	n := numGt + numTracker
	fn = mat.NewDense(n, n, nil)
	fp = mat.NewDense(n, n, nil)

	penalty := float64(data.NumGtDets + data.NumTrackerDets + 1)
	for t := 0; t < numTracker; t++ {
		for col := 0; col < numTracker; col++ {
			fp.Set(numGt+t, col, penalty)
		}
		// Matching a tracker to its own sink turns its detections into FPs
		fp.Set(numGt+t, t, acc.trackerCounts[t])
	}
	for g := 0; g < numGt; g++ {
		for col := 0; col < numGt; col++ {
			fn.Set(g, numTracker+col, penalty)
		}
		// Matching a gt to its own sink turns its detections into FNs
		fn.Set(g, numTracker+g, acc.gtCounts[g])
	}
	for g := 0; g < numGt; g++ {
		for t := 0; t < numTracker; t++ {
			m := acc.matches.At(g, t)
			fn.Set(g, t, acc.gtCounts[g]-m)
			fp.Set(g, t, acc.trackerCounts[t]-m)
		}
	}
	return fn, fp
}

// CombineSequences combines per-sequence results: integer fields are summed
// and the ratio fields re-derived from the sums.
func (id *Identity) CombineSequences(all map[string]Result) (Result, error) {
	res, err := sumIntegerFields(all)
	if err != nil {
		return Result{}, err
	}
	return computeFinalFields(res), nil
}

// CombineClassesDetAveraged combines per-class results by averaging over
// detections: integer fields are summed across classes and the ratio fields
// re-derived from the sums.
func (id *Identity) CombineClassesDetAveraged(all map[string]Result) (Result, error) {
	res, err := sumIntegerFields(all)
	if err != nil {
		return Result{}, err
	}
	return computeFinalFields(res), nil
}

// CombineClassesClassAveraged combines per-class results by averaging over
// the class values: integer fields are summed, ratio fields are the
// arithmetic mean across classes. With ignoreEmpty, classes without a single
// matched, missed or false detection are left out of both reductions; if
// every class is empty the ratio fields come out NaN, the mean of an empty
// set.
func (id *Identity) CombineClassesClassAveraged(all map[string]Result, ignoreEmpty bool) (Result, error) {
	selected := all
	if ignoreEmpty {
		selected = make(map[string]Result, len(all))
		for name, res := range all {
			if float64(res.IDTP+res.IDFN+res.IDFP) > floatEps {
				selected[name] = res
			}
		}
	}
	res, err := sumIntegerFields(selected)
	if err != nil {
		return Result{}, err
	}
	if res.IDF1, err = combineMean(selected, FieldIDF1); err != nil {
		return Result{}, err
	}
	if res.IDR, err = combineMean(selected, FieldIDR); err != nil {
		return Result{}, err
	}
	if res.IDP, err = combineMean(selected, FieldIDP); err != nil {
		return Result{}, err
	}
	return res, nil
}
