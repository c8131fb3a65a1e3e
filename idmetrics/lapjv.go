package idmetrics

import "github.com/pkg/errors"

// Dense Jonker-Volgenant linear assignment: column reduction with reduction
// transfer, two rounds of augmenting row reduction, then augmentation along
// shortest alternating paths for any rows still free. O(n^3) overall.

// dominatingValue returns a finite stand-in for infinity, strictly larger
// than any cost or dual value the solve can produce.
func dominatingValue(cost [][]float64, n int) float64 {
	maxCost := 1.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if cost[i][j] > maxCost {
				maxCost = cost[i][j]
			}
		}
	}
	return 2 * (maxCost + 1) * float64(n)
}

// solveDenseLap returns the minimum-cost bijection for a square cost matrix
// as a row-to-column slice.
func solveDenseLap(cost [][]float64, n int) ([]int, error) {
	rowToCol := make([]int, n)
	colToRow := make([]int, n)
	colPrice := make([]float64, n)
	freeRows := make([]int, n)
	big := dominatingValue(cost, n)

	numFree := reduceColumns(n, cost, big, freeRows, rowToCol, colToRow, colPrice)
	for round := 0; numFree > 0 && round < 2; round++ {
		numFree = reduceRowsAugmenting(n, cost, big, numFree, freeRows, rowToCol, colToRow, colPrice)
	}
	if numFree > 0 {
		if err := augmentFreeRows(n, cost, numFree, freeRows, rowToCol, colToRow, colPrice); err != nil {
			return nil, err
		}
	}
	return rowToCol, nil
}

// reduceColumns assigns each column to its cheapest row, deduplicates rows
// that won several columns, and transfers slack for rows that won exactly
// one. Rows left unassigned are collected into freeRows; returns their count.
func reduceColumns(n int, cost [][]float64, big float64, freeRows, rowToCol, colToRow []int, colPrice []float64) int {
	uniqueRow := make([]bool, n)
	for i := 0; i < n; i++ {
		rowToCol[i] = -1
		colToRow[i] = 0
		colPrice[i] = big
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if c := cost[i][j]; c < colPrice[j] {
				colPrice[j] = c
				colToRow[j] = i
			}
		}
	}
	for i := range uniqueRow {
		uniqueRow[i] = true
	}
	for j := n - 1; j >= 0; j-- {
		i := colToRow[j]
		if rowToCol[i] < 0 {
			rowToCol[i] = j
		} else {
			uniqueRow[i] = false
			colToRow[j] = -1
		}
	}
	numFree := 0
	for i := 0; i < n; i++ {
		switch {
		case rowToCol[i] < 0:
			freeRows[numFree] = i
			numFree++
		case uniqueRow[i]:
			j := rowToCol[i]
			slack := big
			for j2 := 0; j2 < n; j2++ {
				if j2 == j {
					continue
				}
				if c := cost[i][j2] - colPrice[j2]; c < slack {
					slack = c
				}
			}
			colPrice[j] -= slack
		}
	}
	return numFree
}

// reduceRowsAugmenting runs one round of augmenting row reduction over the
// free rows: each free row grabs its cheapest column, displacing the previous
// owner when the second-cheapest slack allows lowering the column price.
// Returns how many rows remain free.
func reduceRowsAugmenting(n int, cost [][]float64, big float64, numFree int, freeRows, rowToCol, colToRow []int, colPrice []float64) int {
	current := 0
	newNumFree := 0
	scans := 0
	for current < numFree {
		scans++
		freeRow := freeRows[current]
		current++

		best := 0
		bestReduced := cost[freeRow][0] - colPrice[0]
		second := -1
		secondReduced := big
		for j := 1; j < n; j++ {
			reduced := cost[freeRow][j] - colPrice[j]
			if reduced < secondReduced {
				if reduced >= bestReduced {
					secondReduced = reduced
					second = j
				} else {
					secondReduced = bestReduced
					bestReduced = reduced
					second = best
					best = j
				}
			}
		}

		displaced := colToRow[best]
		loweredPrice := colPrice[best] - (secondReduced - bestReduced)
		lowers := loweredPrice < colPrice[best]
		if scans < current*n {
			if lowers {
				colPrice[best] = loweredPrice
			} else if displaced >= 0 && second >= 0 {
				best = second
				displaced = colToRow[second]
			}
			if displaced >= 0 {
				if lowers {
					current--
					freeRows[current] = displaced
				} else {
					freeRows[newNumFree] = displaced
					newNumFree++
				}
			}
		} else if displaced >= 0 {
			freeRows[newNumFree] = displaced
			newNumFree++
		}
		rowToCol[freeRow] = best
		colToRow[best] = freeRow
	}
	return newNumFree
}

// collectMinColumns moves every column tied at the current minimum distance
// to the front of the unscanned region of cols and returns the new bound.
func collectMinColumns(n, lo int, dist []float64, cols []int) int {
	hi := lo + 1
	minDist := dist[cols[lo]]
	for k := hi; k < n; k++ {
		j := cols[k]
		if dist[j] <= minDist {
			if dist[j] < minDist {
				hi = lo
				minDist = dist[j]
			}
			cols[k] = cols[hi]
			cols[hi] = j
			hi++
		}
	}
	return hi
}

// scanColumns relaxes distances through the rows owning the minimum-distance
// columns. Returns a free column at minimum distance as soon as one appears,
// or -1 once the current band is exhausted.
func scanColumns(n int, cost [][]float64, lo, hi *int, dist []float64, cols, pred, colToRow []int, colPrice []float64) int {
	for *lo != *hi {
		j := cols[*lo]
		(*lo)++
		i := colToRow[j]
		minDist := dist[j]
		h := cost[i][j] - colPrice[j] - minDist
		for k := *hi; k < n; k++ {
			j = cols[k]
			reduced := cost[i][j] - colPrice[j] - h
			if reduced < dist[j] {
				dist[j] = reduced
				pred[j] = i
				if reduced == minDist {
					if colToRow[j] < 0 {
						return j
					}
					cols[k] = cols[*hi]
					cols[*hi] = j
					(*hi)++
				}
			}
		}
	}
	return -1
}

// shortestAugmentingPath runs the modified Dijkstra search from startRow,
// updating column prices for the settled columns, and returns the free
// column that ends the shortest alternating path.
func shortestAugmentingPath(n int, cost [][]float64, startRow int, colToRow, pred []int, colPrice []float64) int {
	lo, hi := 0, 0
	finalCol := -1
	numReady := 0
	cols := make([]int, n)
	dist := make([]float64, n)
	for j := 0; j < n; j++ {
		cols[j] = j
		pred[j] = startRow
		dist[j] = cost[startRow][j] - colPrice[j]
	}
	for finalCol == -1 {
		if lo == hi {
			numReady = lo
			hi = collectMinColumns(n, lo, dist, cols)
			for k := lo; k < hi; k++ {
				if j := cols[k]; colToRow[j] < 0 {
					finalCol = j
				}
			}
		}
		if finalCol == -1 {
			finalCol = scanColumns(n, cost, &lo, &hi, dist, cols, pred, colToRow, colPrice)
		}
	}
	minDist := dist[cols[lo]]
	for k := 0; k < numReady; k++ {
		j := cols[k]
		colPrice[j] += dist[j] - minDist
	}
	return finalCol
}

// augmentFreeRows augments the matching along a shortest alternating path
// for every row still free after the reduction rounds.
func augmentFreeRows(n int, cost [][]float64, numFree int, freeRows, rowToCol, colToRow []int, colPrice []float64) error {
	pred := make([]int, n)
	for _, freeRow := range freeRows[:numFree] {
		j := shortestAugmentingPath(n, cost, freeRow, colToRow, pred, colPrice)
		if j < 0 || j >= n {
			return errors.Errorf("augmenting path ended at column %d", j)
		}
		i := -1
		for steps := 0; i != freeRow; steps++ {
			if steps >= n {
				return errors.New("augmenting path longer than the matrix dimension")
			}
			i = pred[j]
			colToRow[j] = i
			j, rowToCol[i] = rowToCol[i], j
		}
	}
	return nil
}
