// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"math"

	"github.com/cpmech/gosl/la"
)

// MaxPrevDipoles is the default number of previous iterates kept by DIIS
const MaxPrevDipoles = 20

// rmsToDebye converts the RMS dipole change from internal units (e·nm) to
// Debye, so that the tolerance is a physically meaningful quantity
const rmsToDebye = 48.033324

// Diis accelerates the mutual-polarization fixed point by direct inversion
// of the iterative subspace: it keeps a short history of dipole iterates and
// their residuals and, each iteration, solves a small bordered linear system
// for the optimal mixing coefficients (∑c = 1 via a Lagrange multiplier).
type Diis struct {

	// configuration
	np    int     // number of atoms
	nch   int     // number of dipole channels
	nhist int     // max number of stored iterates
	nproc int     // number of parallel workers
	eps   float64 // convergence tolerance [Debye]

	// history; index 0 is the oldest iterate. The histories of all channels
	// advance in lock-step so that matrix indices always refer to the same
	// logical iterate everywhere.
	nprev int           // number of stored iterates (≤ nhist)
	μprev [][][]float64 // [nch][nhist][3·np] previous unmixed dipoles
	rprev [][][]float64 // [2][nhist][3·np] previous residuals (accelerated channels)

	// bordered system
	mat   [][]float64 // [nhist][nhist] residual dot products
	b     [][]float64 // [nhist+1][nhist+1] bordered work matrix
	piv   []int       // pivot permutation
	x     []float64   // solution workspace
	coefs []float64   // [nhist] mixing coefficients (nprev used)

	// convergence metric
	resid []float64 // [2] sum of squared residual components per channel
	Rms   float64   // last RMS dipole change [Debye]
}

// Init initialises the accelerator
func (o *Diis) Init(np, nch, nhist, nproc int, eps float64) {
	o.np = np
	o.nch = nch
	o.nhist = nhist
	o.nproc = nworkers(nproc)
	o.eps = eps
	o.μprev = make([][][]float64, nch)
	for ch := 0; ch < nch; ch++ {
		o.μprev[ch] = la.MatAlloc(nhist, 3*np)
	}
	o.rprev = make([][][]float64, 2)
	for c := 0; c < 2; c++ {
		o.rprev[c] = la.MatAlloc(nhist, 3*np)
	}
	o.mat = la.MatAlloc(nhist, nhist)
	o.b = la.MatAlloc(nhist+1, nhist+1)
	o.piv = make([]int, nhist+1)
	o.x = make([]float64, nhist+1)
	o.coefs = make([]float64, nhist)
	o.resid = make([]float64, 2)
}

// Update records the new unmixed dipoles µ = α·(E0+F) and their residuals,
// extends the bordered matrix, solves for the mixing coefficients and
// returns the convergence status. It must be called once per iteration,
// after the field evaluation; Mix must follow unless converged.
func (o *Diis) Update(it int, st *State, E0 [][]float64, α []float64) (converged bool) {

	// history full: discard the oldest entry and shift the matrix
	if o.nprev == o.nhist {
		for ch := 0; ch < o.nch; ch++ {
			first := o.μprev[ch][0]
			copy(o.μprev[ch], o.μprev[ch][1:])
			o.μprev[ch][o.nhist-1] = first
		}
		for c := 0; c < 2; c++ {
			first := o.rprev[c][0]
			copy(o.rprev[c], o.rprev[c][1:])
			o.rprev[c][o.nhist-1] = first
		}
		for i := 0; i < o.nhist-1; i++ {
			for j := 0; j < o.nhist-1; j++ {
				o.mat[i][j] = o.mat[i+1][j+1]
			}
		}
		o.nprev--
	}
	idx := o.nprev
	o.nprev++

	// record new dipoles and residuals; accumulate the squared residuals
	// with per-worker partials combined in fixed order
	nw := o.nproc
	if nw > o.np {
		nw = o.np
	}
	if nw < 1 {
		nw = 1
	}
	partial := la.MatAlloc(nw, 2)
	pfor(o.np, nw, func(lo, hi, iw int) {
		for ch := 0; ch < o.nch; ch++ {
			newμ := o.μprev[ch][idx]
			for i := lo; i < hi; i++ {
				for k := 0; k < 3; k++ {
					newμ[3*i+k] = α[i] * (E0[ch][3*i+k] + st.F[ch][3*i+k])
				}
			}
			if ch < 2 {
				r := o.rprev[ch][idx]
				sum := 0.0
				for i := 3 * lo; i < 3*hi; i++ {
					r[i] = newμ[i] - st.U[ch][i]
					sum += r[i] * r[i]
				}
				partial[iw][ch] = sum
			}
		}
	})
	o.resid[0] = 0
	o.resid[1] = 0
	for iw := 0; iw < nw; iw++ {
		o.resid[0] += partial[iw][0]
		o.resid[1] += partial[iw][1]
	}

	// new matrix row/column: dot products of the primary-channel residuals
	for i := 0; i <= idx; i++ {
		v := pdot(o.rprev[0][i], o.rprev[0][idx], o.nproc)
		o.mat[i][idx] = v
		o.mat[idx][i] = v
	}

	// nothing to mix on the first iteration
	if it == 0 {
		o.coefs[0] = 1
		return false
	}

	// solve the bordered system for the mixing coefficients
	o.solve()

	// convergence metric: RMS dipole change, worst channel
	sumSq := o.resid[0]
	if o.resid[1] > sumSq {
		sumSq = o.resid[1]
	}
	o.Rms = rmsToDebye * math.Sqrt(sumSq/float64(o.np))
	return o.Rms < o.eps
}

// Mix replaces the dipoles with the coefficient-weighted sum of the history
func (o *Diis) Mix(st *State) {
	pfor(3*o.np, o.nproc, func(lo, hi, iw int) {
		for ch := 0; ch < o.nch; ch++ {
			u := st.U[ch]
			for i := lo; i < hi; i++ {
				sum := 0.0
				for k := 0; k < o.nprev; k++ {
					sum += o.coefs[k] * o.μprev[ch][k][i]
				}
				u[i] = sum
			}
		}
	})
}

// solve computes the mixing coefficients from the bordered matrix by LU
// decomposition with partial pivoting. The border entries are scaled by the
// mean absolute value of the residual block before solving and the solution
// is rescaled afterwards; without this preconditioning the solve loses all
// accuracy when the residuals become tiny relative to 1.
func (o *Diis) solve() {

	// load bordered matrix
	rank := o.nprev + 1
	for i := 0; i < o.nprev; i++ {
		for j := 0; j < o.nprev; j++ {
			o.b[i+1][j+1] = o.mat[i][j]
		}
	}
	mean := 0.0
	for i := 0; i < o.nprev; i++ {
		for j := 0; j < o.nprev; j++ {
			mean += math.Abs(o.b[i+1][j+1])
		}
	}
	mean /= float64(o.nprev * o.nprev)
	o.b[0][0] = 0
	for i := 1; i < rank; i++ {
		o.b[0][i] = -mean
		o.b[i][0] = -1
	}
	for i := 0; i < rank; i++ {
		o.piv[i] = i
	}

	// LU decomposition (Crout with row pivoting)
	for j := 0; j < rank; j++ {
		for i := 0; i < rank; i++ {
			kmax := i
			if j < kmax {
				kmax = j
			}
			s := 0.0
			for k := 0; k < kmax; k++ {
				s += o.b[i][k] * o.b[k][j]
			}
			o.b[i][j] -= s
		}
		p := j
		for i := j + 1; i < rank; i++ {
			if math.Abs(o.b[i][j]) > math.Abs(o.b[p][j]) {
				p = i
			}
		}
		if p != j {
			o.b[p], o.b[j] = o.b[j], o.b[p]
			o.piv[p], o.piv[j] = o.piv[j], o.piv[p]
		}
		if o.b[j][j] != 0 {
			for i := j + 1; i < rank; i++ {
				o.b[i][j] /= o.b[j][j]
			}
		}
	}

	// singular matrix: keep only the newest iterate, unmixed
	for i := 0; i < rank; i++ {
		if o.b[i][i] == 0 {
			for k := 0; k < o.nprev; k++ {
				o.coefs[k] = 0
			}
			o.coefs[o.nprev-1] = 1
			return
		}
	}

	// forward and back substitution of the permuted unit right-hand side
	for i := 0; i < rank; i++ {
		if o.piv[i] == 0 {
			o.x[i] = -1
		} else {
			o.x[i] = 0
		}
	}
	for k := 0; k < rank; k++ {
		for i := k + 1; i < rank; i++ {
			o.x[i] -= o.x[k] * o.b[i][k]
		}
	}
	for k := rank - 1; k >= 0; k-- {
		o.x[k] /= o.b[k][k]
		for i := 0; i < k; i++ {
			o.x[i] -= o.x[k] * o.b[i][k]
		}
	}

	// rescale; x[0] is the Lagrange multiplier. The last coefficient is set
	// to one minus the sum of the others so that the mixing weights sum to
	// exactly one even when the solve is imprecise.
	sum := 0.0
	for i := 0; i < o.nprev-1; i++ {
		o.coefs[i] = o.x[i+1] * mean
		sum += o.coefs[i]
	}
	o.coefs[o.nprev-1] = 1.0 - sum
}
