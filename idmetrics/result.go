package idmetrics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Metric field names reported by both evaluators. The field list is fixed,
// independent of the input being scored.
const (
	FieldIDTP = "IDTP"
	FieldIDFN = "IDFN"
	FieldIDFP = "IDFP"
	FieldIDF1 = "IDF1"
	FieldIDR  = "IDR"
	FieldIDP  = "IDP"
)

var (
	// IntegerFields are the count fields, combined across units by summation
	IntegerFields = []string{FieldIDTP, FieldIDFN, FieldIDFP}
	// FloatFields are the ratio fields derived from the counts
	FloatFields = []string{FieldIDF1, FieldIDR, FieldIDP}
)

// floatEps guards float comparisons against exact-equality pitfalls when
// filtering empty classes.
const floatEps = 2.220446049250313e-16

// Result holds the identity metrics for one sequence, one class, or a
// combination of those. Values are never mutated after creation, combination
// produces fresh results.
type Result struct {
	// Identity-level true positive detection count
	IDTP int
	// Identity-level false negative detection count
	IDFN int
	// Identity-level false positive detection count
	IDFP int
	// Harmonic mean of IDP and IDR
	IDF1 float64
	// Identity-level recall
	IDR float64
	// Identity-level precision
	IDP float64
}

// Fields returns the result as a field-name to value mapping containing
// exactly the IntegerFields and FloatFields.
func (res Result) Fields() map[string]float64 {
	return map[string]float64{
		FieldIDTP: float64(res.IDTP),
		FieldIDFN: float64(res.IDFN),
		FieldIDFP: float64(res.IDFP),
		FieldIDF1: res.IDF1,
		FieldIDR:  res.IDR,
		FieldIDP:  res.IDP,
	}
}

func (res Result) intField(field string) (int, error) {
	switch field {
	case FieldIDTP:
		return res.IDTP, nil
	case FieldIDFN:
		return res.IDFN, nil
	case FieldIDFP:
		return res.IDFP, nil
	default:
		return 0, errors.Errorf("unknown integer field %q", field)
	}
}

func (res Result) floatField(field string) (float64, error) {
	switch field {
	case FieldIDF1:
		return res.IDF1, nil
	case FieldIDR:
		return res.IDR, nil
	case FieldIDP:
		return res.IDP, nil
	default:
		return 0, errors.Errorf("unknown float field %q", field)
	}
}

// computeFinalFields derives the ratio fields from the counts with explicit
// zero-denominator handling. It is the single source of truth for
// counts to ratios and is reused by every combiner after summing counts
// across sequences or classes.
func computeFinalFields(res Result) Result {
	if res.IDFN != 0 {
		res.IDR = float64(res.IDTP) / math.Max(1.0, float64(res.IDTP+res.IDFN))
	} else {
		res.IDR = 1
	}
	if res.IDFP != 0 {
		res.IDP = float64(res.IDTP) / math.Max(1.0, float64(res.IDTP+res.IDFP))
	} else {
		res.IDP = 1
	}
	if res.IDFN != 0 || res.IDFP != 0 {
		res.IDF1 = float64(res.IDTP) / math.Max(1.0, float64(res.IDTP)+0.5*float64(res.IDFP)+0.5*float64(res.IDFN))
	} else {
		res.IDF1 = 1
	}
	return res
}

// combineSum sums the named integer field across a mapping of per-unit results.
func combineSum(all map[string]Result, field string) (int, error) {
	total := 0
	for name, res := range all {
		value, err := res.intField(field)
		if err != nil {
			return 0, errors.Wrapf(err, "can't sum results for %q", name)
		}
		total += value
	}
	return total, nil
}

// combineMean averages the named float field across a mapping of per-unit
// results. The mean of an empty mapping is NaN, the mean of an empty set:
// callers that filter units before averaging propagate NaN ratios when every
// unit is filtered out.
func combineMean(all map[string]Result, field string) (float64, error) {
	values := make([]float64, 0, len(all))
	for name, res := range all {
		value, err := res.floatField(field)
		if err != nil {
			return 0, errors.Wrapf(err, "can't average results for %q", name)
		}
		values = append(values, value)
	}
	return stat.Mean(values, nil), nil
}

// sumIntegerFields sums every integer field across per-unit results, leaving
// the ratio fields at zero for the caller to fill in.
func sumIntegerFields(all map[string]Result) (Result, error) {
	res := Result{}
	var err error
	if res.IDTP, err = combineSum(all, FieldIDTP); err != nil {
		return Result{}, err
	}
	if res.IDFN, err = combineSum(all, FieldIDFN); err != nil {
		return Result{}, err
	}
	if res.IDFP, err = combineSum(all, FieldIDFP); err != nil {
		return Result{}, err
	}
	return res, nil
}
