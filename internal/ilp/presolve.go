package ilp

import "gonum.org/v1/gonum/mat"

// removeEmptyRows drops every row of A that is entirely zero, together with
// the corresponding entry of b. A structurally empty row never binds the
// simplex solve (0 = b_i is either always true or never satisfiable, and
// the latter is already ruled out by construction upstream), so dropping it
// shrinks the system handed to gonum's simplex without changing its
// feasible region.
func removeEmptyRows(A *mat.Dense, b []float64) (*mat.Dense, []float64) {
	if A == nil {
		return A, b
	}

	rows, cols := A.Dims()

	var keep []int
	for i := 0; i < rows; i++ {
		if !isZeroRow(A, i, cols) {
			keep = append(keep, i)
		}
	}

	if len(keep) == rows {
		return A, b
	}

	Anew := mat.NewDense(len(keep), cols, nil)
	bNew := make([]float64, len(keep))
	for newRow, oldRow := range keep {
		Anew.SetRow(newRow, mat.Row(nil, oldRow, A))
		bNew[newRow] = b[oldRow]
	}

	return Anew, bNew
}

func isZeroRow(A *mat.Dense, row, cols int) bool {
	for j := 0; j < cols; j++ {
		if A.At(row, j) != 0 {
			return false
		}
	}
	return true
}
