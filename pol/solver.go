// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"github.com/cpmech/gopol/inp"
	"github.com/cpmech/gopol/mfield"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/mpi"
)

// Solver computes induced dipoles consistent with the mutual field; e.g.
// direct, DIIS-accelerated mutual iteration, perturbation extrapolation
type Solver interface {
	Init(sim *inp.Simulation, fld mfield.Model) (err error)
	Run(st *State, E0 [][]float64) (err error)
}

// allocators holds all available solvers
var allocators = make(map[string]func() Solver)

// Solve validates the configuration, seeds the dipoles from the fixed field
// and runs the configured convergence strategy. On return st.U holds the
// final induced dipoles and st.Converged tells whether the tolerance was met
// (budget exhaustion is not an error: the last iterate is kept). The solver
// is returned so that callers can retrieve strategy-specific results such as
// the extrapolated dipole series.
func Solve(st *State, E0 [][]float64, sim *inp.Simulation, fld mfield.Model) (sv Solver, err error) {

	// fail fast on malformed configuration, before any field evaluation;
	// derived quantities are computed here for simulations built in code
	// rather than read from a file
	sim.Atoms.Validate()
	sim.Solver.Validate()
	if sim.Atoms.Damp == nil {
		sim.Atoms.PostProcess()
	}
	if sim.Solver.MixCoefs == nil {
		sim.Solver.PostProcess()
	}

	// allocate solver
	alloc, ok := allocators[sim.Solver.Type]
	if !ok {
		return nil, chk.Err("cannot find solver type=%q. e.g. {dir, mut, ext} => direct, mutual, extrapolated", sim.Solver.Type)
	}
	sv = alloc()
	err = sv.Init(sim, fld)
	if err != nil {
		return
	}

	// seed and run
	st.Seed(E0, sim.Atoms.Alpha)
	err = sv.Run(st, E0)
	return
}

// calcFields evaluates the field produced by the current dipoles for all
// channels. This is one synchronous Jacobi step: every output depends only
// on the dipoles as they were on entry. Under MPI the partial fields of each
// rank are reduced before returning.
func calcFields(st *State, fld mfield.Model, distr bool) {
	for ch := 0; ch < st.Nch; ch++ {
		la.VecFill(st.F[ch], 0)
		fld.AddField(st.U[ch], st.F[ch])
	}
	if distr {
		for ch := 0; ch < st.Nch; ch++ {
			mpi.AllReduceSum(st.F[ch], st.W)
		}
	}
	st.Nfeval++
}

// calcFieldsGrad is calcFields plus field-gradient accumulation for the two
// accelerated channels, when the model supports it (g == [2][6·Natoms])
func calcFieldsGrad(st *State, fld mfield.Model, g [][]float64, distr bool) {
	gm, ok := fld.(mfield.Gradient)
	if !ok {
		calcFields(st, fld, distr)
		return
	}
	for ch := 0; ch < st.Nch; ch++ {
		la.VecFill(st.F[ch], 0)
		if ch < 2 {
			la.VecFill(g[ch], 0)
			gm.AddFieldGrad(st.U[ch], st.F[ch], g[ch])
		} else {
			fld.AddField(st.U[ch], st.F[ch])
		}
	}
	if distr {
		for ch := 0; ch < st.Nch; ch++ {
			mpi.AllReduceSum(st.F[ch], st.W)
		}
		wg := make([]float64, len(g[0]))
		for ch := 0; ch < 2; ch++ {
			mpi.AllReduceSum(g[ch], wg)
		}
	}
	st.Nfeval++
}

// distributed tells whether this is a multi-rank MPI run
func distributed() bool {
	return mpi.IsOn() && mpi.Size() > 1
}
