package raster

import "math"

// SolveLinearSystem solves the linear system given as an n×(n+1) augmented
// matrix using Gaussian elimination with partial pivoting. The matrix is
// modified in place. Returns nil when the system is singular (a pivot
// column's maximum absolute value is exactly zero).
func SolveLinearSystem(mat [][]float64) []float64 {
	n := len(mat)

	for i := 0; i < n; i++ {
		// pivot on the largest absolute value in column i, rows i..n-1
		maxRow := i
		maxVal := math.Abs(mat[i][i])
		for r := i + 1; r < n; r++ {
			if v := math.Abs(mat[r][i]); v > maxVal {
				maxRow = r
				maxVal = v
			}
		}
		if maxVal == 0 {
			return nil
		}
		mat[i], mat[maxRow] = mat[maxRow], mat[i]

		for r := i + 1; r < n; r++ {
			f := mat[r][i] / mat[i][i]
			for c := i; c <= n; c++ {
				mat[r][c] -= f * mat[i][c]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := mat[i][n]
		for c := i + 1; c < n; c++ {
			sum -= mat[i][c] * x[c]
		}
		x[i] = sum / mat[i][i]
	}
	return x
}
