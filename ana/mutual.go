// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ana implements analytical solutions
package ana

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// MutualDipoles computes the exact self-consistent induced dipoles for a
// dense interaction matrix T ([3n][3n]) by direct inversion:
//   u = (I − diag(α)·T)⁻¹ · diag(α) · E0
// with α replicated over the three components of each atom. Only feasible for
// small systems; intended as a reference for iterative and extrapolated
// results.
func MutualDipoles(α []float64, T [][]float64, E0 []float64) (u []float64) {
	n := len(E0)
	chk.IntAssert(len(T), n)
	chk.IntAssert(3*len(α), n)

	// A = I − diag(α)·T
	A := la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			A[i][j] = -α[i/3] * T[i][j]
		}
		A[i][i] += 1.0
	}

	// u = A⁻¹ · diag(α)·E0
	Ai := la.MatAlloc(n, n)
	err := la.MatInvG(Ai, A, 1e-13)
	if err != nil {
		chk.Panic("inversion of mutual polarization matrix failed:\n%v", err)
	}
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		b[i] = α[i/3] * E0[i]
	}
	u = make([]float64, n)
	la.MatVecMul(u, 1, Ai, b)
	return
}

// SeriesDipoles computes the truncated perturbation approximation
//   u = Σ_k c_k (diag(α)·T)ᵏ · diag(α)·E0,   k = 0 … len(c)−1
// for the same dense matrix, with mixing coefficients c
func SeriesDipoles(α []float64, T [][]float64, E0 []float64, c []float64) (u []float64) {
	n := len(E0)
	chk.IntAssert(len(T), n)
	term := make([]float64, n)
	for i := 0; i < n; i++ {
		term[i] = α[i/3] * E0[i]
	}
	u = make([]float64, n)
	w := make([]float64, n)
	for k := 0; k < len(c); k++ {
		if k > 0 {
			la.MatVecMul(w, 1, T, term)
			for i := 0; i < n; i++ {
				term[i] = α[i/3] * w[i]
			}
		}
		la.VecAdd(u, c[k], term)
	}
	return
}
