// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"github.com/cpmech/gopol/inp"
	"github.com/cpmech/gopol/mfield"

	"github.com/cpmech/gosl/io"
)

// SolverMutual solves the mutual polarization fixed point iteratively with
// DIIS acceleration
type SolverMutual struct {
	sim   *inp.Simulation
	fld   mfield.Model
	diis  Diis
	distr bool
}

// set factory
func init() {
	allocators["mut"] = func() Solver { return new(SolverMutual) }
}

// Init initialises solver
func (o *SolverMutual) Init(sim *inp.Simulation, fld mfield.Model) (err error) {
	o.sim = sim
	o.fld = fld
	o.distr = distributed()
	nch := 2
	if sim.Solver.Solvent {
		nch = 4
	}
	o.diis.Init(sim.Atoms.Natoms(), nch, sim.Solver.Nhist, sim.Solver.Nproc, sim.Solver.Epsilon)
	return
}

// Run iterates until the dipoles converge or the budget is exhausted. Budget
// exhaustion is not a failure: the last iterate is kept and st.Converged
// stays false.
func (o *SolverMutual) Run(st *State, E0 [][]float64) (err error) {

	// auxiliary
	sd := &o.sim.Solver
	α := o.sim.Atoms.Alpha

	// message
	var it int
	if sd.ShowR {
		io.Pf("\n%4s%23s\n", "it", "rms [D]")
		defer func() {
			io.Pf("%4d%23.15e\n", it, o.diis.Rms)
		}()
	}

	// iterations
	for it = 0; it < sd.NmaxIt; it++ {

		// evaluate field from current dipoles (synchronous Jacobi step)
		calcFields(st, o.fld, o.distr)

		// record iterate, solve for mixing coefficients, check convergence
		converged := o.diis.Update(it, st, E0, α)
		st.Niter = it + 1

		// message
		if sd.ShowR && it > 0 {
			io.Pf("%4d%23.15e\n", it, o.diis.Rms)
		}

		// converged: the dipoles used for the last field evaluation are the
		// certified ones; do not mix further
		if converged {
			st.Converged = true
			break
		}

		// next estimate
		o.diis.Mix(st)
	}
	return
}
