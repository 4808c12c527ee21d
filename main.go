// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"math"
	"time"

	"github.com/cpmech/gopol/inp"
	"github.com/cpmech/gopol/mfield"
	"github.com/cpmech/gopol/pol"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/gosl/utl"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
				io.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	// read input parameters
	fnamepath, _ := io.ArgToFilename(0, "", ".pol", true)
	verbose := io.ArgToBool(1, true)

	// message
	if mpi.Rank() == 0 && verbose {
		io.PfWhite("\nGopol -- Induced Dipole Polarization Solver\n\n")
		io.Pf("Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n\n")

		io.Pf("\n%v\n", io.ArgsTable(
			"filename path", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
		))
	}

	// profiling?
	defer utl.DoProf(false)()

	// simulation data
	sim := inp.ReadSim(fnamepath)
	if sim == nil {
		chk.Panic("cannot read simulation file %q", fnamepath)
	}

	// field model
	fld, err := mfield.New(sim.Field.Model)
	if err != nil {
		chk.Panic("cannot allocate field model:\n%v", err)
	}
	err = fld.Init(&sim.Atoms, sim.Field.Prms)
	if err != nil {
		chk.Panic("cannot initialise field model:\n%v", err)
	}

	// fixed field and state
	np := sim.Atoms.Natoms()
	E0 := sim.FixedFields()
	st := pol.NewState(np, sim.Solver.Solvent)

	// solve
	t0 := time.Now()
	_, err = pol.Solve(st, E0, sim, fld)
	if err != nil {
		chk.Panic("solver failed:\n%v", err)
	}
	cpu := time.Since(t0)

	// results
	if mpi.Rank() == 0 && verbose {
		sumSq := 0.0
		for _, v := range st.U[pol.ChD] {
			sumSq += v * v
		}
		rms := math.Sqrt(sumSq / float64(np))
		E := pol.Energy(st.U[pol.ChD], E0[pol.ChD], sim.Data.Fscale)
		io.Pf("\n")
		io.Pf("converged   = %v\n", st.Converged)
		io.Pf("iterations  = %d\n", st.Niter)
		io.Pf("field evals = %d\n", st.Nfeval)
		io.Pf("rms dipole  = %23.15e\n", rms)
		io.Pf("energy      = %23.15e\n", E)
		io.Pf("cpu time    = %v\n", cpu)
	}
}
