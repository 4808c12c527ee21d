// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"github.com/cpmech/gopol/mfield"
)

// Energy computes the polarization energy −fscale/2 · Σ u·E0 for one channel.
// The seed dipoles satisfy u0/α = E0, so this equals −fscale/2 · Σ u·u0/α.
func Energy(u, E0 []float64, fscale float64) (E float64) {
	for i := 0; i < len(u); i++ {
		E += u[i] * E0[i]
	}
	return -0.5 * fscale * E
}

// AddForce accumulates into frc ([3·natoms]) the force correction that makes
// the truncated-series dipoles energy-consistent: the cross terms between the
// dipole series of one accelerated channel and the field-gradient series of
// the other, weighted by the mixing coefficients of the combined order. The
// field model must provide gradients, otherwise this is a no-op.
func (o *SolverExtrap) AddForce(fscale float64, frc []float64) {
	if _, ok := o.fld.(mfield.Gradient); !ok {
		return
	}
	np := o.sim.Atoms.Natoms()
	for l := 0; l < o.norder-1; l++ {
		μd := o.μs[ChD][l]
		μp := o.μs[ChP][l]
		for m := 0; m < o.norder-1-l; m++ {
			scale := 0.5 * o.coefs[l+m+1] * fscale
			gd := o.gs[ChD][m]
			gp := o.gs[ChP][m]
			for i := 0; i < np; i++ {
				ux, uy, uz := μd[3*i], μd[3*i+1], μd[3*i+2]
				vx, vy, vz := μp[3*i], μp[3*i+1], μp[3*i+2]
				g := gp[6*i : 6*i+6]
				h := gd[6*i : 6*i+6]
				frc[3*i] += scale * (ux*g[0] + uy*g[3] + uz*g[4] + vx*h[0] + vy*h[3] + vz*h[4])
				frc[3*i+1] += scale * (ux*g[3] + uy*g[1] + uz*g[5] + vx*h[3] + vy*h[1] + vz*h[5])
				frc[3*i+2] += scale * (ux*g[4] + uy*g[5] + uz*g[2] + vx*h[4] + vy*h[5] + vz*h[2])
			}
		}
	}
}
