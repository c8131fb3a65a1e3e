package idmetrics

import (
	hg "github.com/charles-haynes/munkres"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SolverAlgorithm selects the assignment backend.
type SolverAlgorithm uint16

const (
	// SolverMunkres uses the Kuhn-Munkres implementation from
	// charles-haynes/munkres. This is the default and the canonical backend:
	// its tie-break among equal-cost optima is the fixed lowest-row-first
	// augmenting order, so results are reproducible across runs.
	SolverMunkres SolverAlgorithm = iota
	// SolverJonkerVolgenant uses the dense Jonker-Volgenant implementation
	// in this package
	SolverJonkerVolgenant
)

// AssignmentSolver is the bipartite minimum-cost perfect-matching capability:
// given a square matrix of non-negative finite costs it returns a bijection
// from rows to columns minimizing the total assigned cost, as a slice where
// element r is the column assigned to row r. Solving is O(n^3) in the matrix
// dimension, callers with very large identity spaces should chunk accordingly.
// Deterministic for a fixed matrix; the tie-break among equal-cost optima is
// backend-specific, so use one backend consistently when comparing results.
type AssignmentSolver interface {
	Solve(cost *mat.Dense) ([]int, error)
}

// NewSolver creates the backend for the requested algorithm. Unrecognized
// values select the default Munkres backend.
func NewSolver(algorithm SolverAlgorithm) AssignmentSolver {
	switch algorithm {
	case SolverJonkerVolgenant:
		return JonkerVolgenantSolver{}
	default:
		return MunkresSolver{}
	}
}

// costRows copies the matrix into the row-slice form the backends accept.
// The backends are free to reorder their input while the evaluators still
// need the original matrix to read costs off the matching afterwards.
func costRows(cost *mat.Dense) ([][]float64, int, error) {
	n, m := cost.Dims()
	if n != m {
		return nil, 0, errors.Errorf("cost matrix must be square, got %dx%d", n, m)
	}
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		copy(row, cost.RawRowView(i))
		rows[i] = row
	}
	return rows, n, nil
}

// MunkresSolver solves the assignment with the classical Kuhn-Munkres
// algorithm via charles-haynes/munkres.
type MunkresSolver struct{}

// Solve implements AssignmentSolver.
func (MunkresSolver) Solve(cost *mat.Dense) ([]int, error) {
	rows, n, err := costRows(cost)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []int{}, nil
	}
	algorithm, err := hg.NewHungarianAlgorithm(rows)
	if err != nil {
		return nil, errors.Wrap(err, "can't initialize munkres solver")
	}
	assignment := algorithm.Execute()
	if len(assignment) != n {
		return nil, errors.Errorf("munkres solver assigned %d rows, expected %d", len(assignment), n)
	}
	for row, col := range assignment {
		if col < 0 || col >= n {
			return nil, errors.Errorf("munkres solver left row %d unassigned", row)
		}
	}
	return assignment, nil
}

// JonkerVolgenantSolver solves the assignment with the dense
// Jonker-Volgenant algorithm. Fully deterministic: every scan runs in fixed
// row and column order, so equal-cost optima always resolve the same way.
type JonkerVolgenantSolver struct{}

// Solve implements AssignmentSolver.
func (JonkerVolgenantSolver) Solve(cost *mat.Dense) ([]int, error) {
	rows, n, err := costRows(cost)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []int{}, nil
	}
	assignment, err := solveDenseLap(rows, n)
	if err != nil {
		return nil, errors.Wrap(err, "can't solve dense assignment")
	}
	return assignment, nil
}
