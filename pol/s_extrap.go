// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"github.com/cpmech/gopol/inp"
	"github.com/cpmech/gopol/mfield"

	"github.com/cpmech/gosl/la"
)

// SolverExtrap approximates the mutual polarization by a truncated
// perturbation (Neumann) series: the operator α·T is applied norder−1 times
// to the direct dipoles and the final dipole is a fixed linear combination
// of the series terms. There is no feedback loop, hence no convergence test
// and no possibility of divergence: the cost is always norder−1 field
// evaluations plus one final evaluation for downstream consistency.
type SolverExtrap struct {

	// configuration
	sim    *inp.Simulation
	fld    mfield.Model
	norder int       // perturbation order
	coefs  []float64 // mixing coefficients (suffix sums of the user input)
	nproc  int
	distr  bool

	// series; reset at the start of every Run
	μs [][][]float64 // [nch][norder][3·np] dipole series
	gs [][][]float64 // [2][norder−1][6·np] field-gradient series
	g  [][]float64   // [2][6·np] gradient work buffers
}

// set factory
func init() {
	allocators["ext"] = func() Solver { return new(SolverExtrap) }
}

// Init initialises solver
func (o *SolverExtrap) Init(sim *inp.Simulation, fld mfield.Model) (err error) {
	o.sim = sim
	o.fld = fld
	o.norder = sim.Solver.ExtOrder
	o.coefs = sim.Solver.MixCoefs
	o.nproc = nworkers(sim.Solver.Nproc)
	o.distr = distributed()
	np := sim.Atoms.Natoms()
	nch := 2
	if sim.Solver.Solvent {
		nch = 4
	}
	o.μs = make([][][]float64, nch)
	for ch := 0; ch < nch; ch++ {
		o.μs[ch] = la.MatAlloc(o.norder, 3*np)
	}
	o.gs = make([][][]float64, 2)
	for c := 0; c < 2; c++ {
		if o.norder > 1 {
			o.gs[c] = la.MatAlloc(o.norder-1, 6*np)
		}
	}
	o.g = la.MatAlloc(2, 6*np)
	return
}

// Run builds the series and mixes it
func (o *SolverExtrap) Run(st *State, E0 [][]float64) (err error) {

	// order 0: the direct dipoles
	α := o.sim.Atoms.Alpha
	for ch := 0; ch < st.Nch; ch++ {
		copy(o.μs[ch][0], st.U[ch])
	}

	// recursively apply α·T to order n to generate order n+1. Each order is
	// a pure application of the operator to the previous order only.
	for order := 1; order < o.norder; order++ {
		calcFieldsGrad(st, o.fld, o.g, o.distr)
		pfor(st.Natoms, o.nproc, func(lo, hi, iw int) {
			for ch := 0; ch < st.Nch; ch++ {
				for i := lo; i < hi; i++ {
					for k := 0; k < 3; k++ {
						v := α[i] * st.F[ch][3*i+k]
						st.U[ch][3*i+k] = v
						o.μs[ch][order][3*i+k] = v
					}
				}
			}
		})
		if _, ok := o.fld.(mfield.Gradient); ok {
			for c := 0; c < 2; c++ {
				copy(o.gs[c][order-1], o.g[c])
			}
		}
		st.Niter = order
	}

	// final dipole: linear combination of the series terms
	pfor(3*st.Natoms, o.nproc, func(lo, hi, iw int) {
		for ch := 0; ch < st.Nch; ch++ {
			u := st.U[ch]
			for i := lo; i < hi; i++ {
				sum := 0.0
				for order := 0; order < o.norder; order++ {
					sum += o.coefs[order] * o.μs[ch][order][i]
				}
				u[i] = sum
			}
		}
	})

	// one more evaluation so that downstream consumers receive a field
	// consistent with the mixed dipoles
	calcFields(st, o.fld, o.distr)
	st.Converged = true
	return
}

// Series returns the dipole series of one channel: [norder][3·natoms]
func (o *SolverExtrap) Series(ch int) [][]float64 {
	return o.μs[ch]
}

// GradSeries returns the field-gradient series of an accelerated channel:
// [norder−1][6·natoms] with components xx, yy, zz, xy, xz, yz
func (o *SolverExtrap) GradSeries(ch int) [][]float64 {
	return o.gs[ch]
}
