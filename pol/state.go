// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package pol implements the self-consistent induced-dipole solvers: direct,
// mutual (DIIS-accelerated fixed-point iteration) and extrapolated
// (truncated perturbation series)
package pol

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Channel indices. The "d" and "p" channels are always present; the solvent
// pair exists only when the continuum model is active. All channels are
// allocated together and advance in lock-step.
const (
	ChD  = 0 // primary ("d" field) channel
	ChP  = 1 // polarization-group ("p" field) channel
	ChDs = 2 // solvent counterpart of ChD
	ChPs = 3 // solvent counterpart of ChP
)

// State holds the induced dipoles of one solve. Vectors are flat with 3
// components per atom. A State is exclusively owned by one Solve call and
// must not be shared across concurrent solves.
type State struct {

	// dimensions
	Natoms int // number of atoms
	Nch    int // number of channels: 2, or 4 with the solvent pair

	// solution
	U [][]float64 // [Nch][3·Natoms] induced dipoles
	F [][]float64 // [Nch][3·Natoms] field produced by U (last evaluation)
	W []float64   // [3·Natoms] workspace for distributed reductions

	// diagnostics
	Converged bool // tolerance met within the iteration budget
	Niter     int  // number of iterations taken
	Nfeval    int  // number of field evaluations
}

// NewState allocates a state with all channels
func NewState(natoms int, solvent bool) (o *State) {
	o = new(State)
	o.Natoms = natoms
	o.Nch = 2
	if solvent {
		o.Nch = 4
	}
	o.U = la.MatAlloc(o.Nch, 3*natoms)
	o.F = la.MatAlloc(o.Nch, 3*natoms)
	o.W = make([]float64, 3*natoms)
	return
}

// Seed sets the non-iterated ("direct") dipoles: u = α·E0 per channel, with
// atoms of zero polarizability pinned at zero
func (o *State) Seed(E0 [][]float64, α []float64) {
	if len(E0) != o.Nch {
		chk.Panic("number of fixed-field channels (%d) must equal number of dipole channels (%d)", len(E0), o.Nch)
	}
	if len(α) != o.Natoms {
		chk.Panic("number of polarizabilities (%d) must equal number of atoms (%d)", len(α), o.Natoms)
	}
	for ch := 0; ch < o.Nch; ch++ {
		if len(E0[ch]) != 3*o.Natoms {
			chk.Panic("fixed field of channel %d has wrong size: %d != %d", ch, len(E0[ch]), 3*o.Natoms)
		}
		for i := 0; i < o.Natoms; i++ {
			o.U[ch][3*i] = α[i] * E0[ch][3*i]
			o.U[ch][3*i+1] = α[i] * E0[ch][3*i+1]
			o.U[ch][3*i+2] = α[i] * E0[ch][3*i+2]
		}
		la.VecFill(o.F[ch], 0)
	}
	o.Converged = false
	o.Niter = 0
	o.Nfeval = 0
}
