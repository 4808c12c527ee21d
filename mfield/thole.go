// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mfield

import (
	"math"
	"runtime"
	"sync"

	"github.com/cpmech/gopol/inp"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/mpi"
)

// Thole implements the real-space mutual dipole field with Thole damping:
// the field at atom i due to the induced dipole at atom j is
//   E_i = rr3·u_j + rr5·(Δ·u_j)Δ,  Δ = x_j − x_i
// with rr3, rr5 the damped −1/r³ and 3/r⁵ radial factors. No cutoff and no
// periodicity: all pairs interact.
type Thole struct {

	// atom data
	np    int         // number of atoms
	x     [][]float64 // positions
	thole []float64   // Thole factors
	damp  []float64   // damping radii

	// control
	nproc int // number of parallel workers
}

// add model to factory
func init() {
	allocators["thole"] = func() Model { return new(Thole) }
}

// Init initialises model
func (o *Thole) Init(atoms *inp.AtomsData, prms fun.Prms) (err error) {
	if atoms.Damp == nil {
		atoms.PostProcess()
	}
	o.np = atoms.Natoms()
	o.x = atoms.X
	o.thole = atoms.Thole
	o.damp = atoms.Damp
	for _, p := range prms {
		switch p.N {
		case "nproc":
			o.nproc = int(p.V)
		default:
			return chk.Err("thole: parameter named %q is incorrect", p.N)
		}
	}
	if o.nproc < 1 {
		o.nproc = runtime.NumCPU()
	}
	return
}

// AddField adds the mutual field from dipoles u to f
func (o *Thole) AddField(u, f []float64) {
	o.run(u, f, nil)
}

// AddFieldGrad adds the mutual field to f and the field gradient to g
// (6 components per atom: xx, yy, zz, xy, xz, yz)
func (o *Thole) AddFieldGrad(u, f, g []float64) {
	o.run(u, f, g)
}

// run loops over rows (receiving atoms) in parallel. Each worker owns a
// disjoint row range and sums its pair contributions in index order, so the
// result is independent of scheduling. Under MPI, each rank only fills its
// share of rows and the caller reduces across ranks.
func (o *Thole) run(u, f, g []float64) {
	lo, hi := rowRange(o.np)
	nw := o.nproc
	if nw > hi-lo {
		nw = hi - lo
	}
	if nw < 2 {
		o.rows(lo, hi, u, f, g)
		return
	}
	var wg sync.WaitGroup
	wg.Add(nw)
	for iw := 0; iw < nw; iw++ {
		a := lo + iw*(hi-lo)/nw
		b := lo + (iw+1)*(hi-lo)/nw
		go func(a, b int) {
			defer wg.Done()
			o.rows(a, b, u, f, g)
		}(a, b)
	}
	wg.Wait()
}

// rows accumulates the field (and gradient) at atoms [a,b) from all dipoles
func (o *Thole) rows(a, b int, u, f, g []float64) {
	for i := a; i < b; i++ {
		xi := o.x[i]
		for j := 0; j < o.np; j++ {
			if j == i {
				continue
			}
			xj := o.x[j]
			dx := xj[0] - xi[0]
			dy := xj[1] - xi[1]
			dz := xj[2] - xi[2]
			r2 := dx*dx + dy*dy + dz*dz
			r := math.Sqrt(r2)
			rI := 1.0 / r
			r2I := rI * rI
			rr3 := -rI * r2I
			rr5 := -3.0 * rr3 * r2I
			rr7 := 5.0 * rr5 * r2I

			// Thole damping
			dampProd := o.damp[i] * o.damp[j]
			ratio := 1.0
			if dampProd != 0 {
				ratio = r / dampProd
			}
			pγ := o.thole[i]
			if o.thole[j] < pγ {
				pγ = o.thole[j]
			}
			av := ratio * ratio * ratio * pγ
			dampExp := 0.0
			if dampProd != 0 {
				dampExp = math.Exp(-av)
			}
			rr3 *= 1.0 - dampExp
			rr5 *= 1.0 - (1.0+av)*dampExp
			rr7 *= 1.0 - (1.0+av+0.6*av*av)*dampExp

			// field at i from dipole at j
			ux, uy, uz := u[3*j], u[3*j+1], u[3*j+2]
			dDotU := rr5 * (dx*ux + dy*uy + dz*uz)
			f[3*i] += rr3*ux + dDotU*dx
			f[3*i+1] += rr3*uy + dDotU*dy
			f[3*i+2] += rr3*uz + dDotU*dz

			// field gradient at i from dipole at j
			if g != nil {
				μDotR := ux*dx + uy*dy + uz*dz
				g[6*i] += (μDotR*rr7)*dx*dx - (2.0*ux*dx+μDotR)*rr5
				g[6*i+1] += (μDotR*rr7)*dy*dy - (2.0*uy*dy+μDotR)*rr5
				g[6*i+2] += (μDotR*rr7)*dz*dz - (2.0*uz*dz+μDotR)*rr5
				g[6*i+3] += (μDotR*rr7)*dx*dy - (ux*dy+uy*dx)*rr5
				g[6*i+4] += (μDotR*rr7)*dx*dz - (ux*dz+uz*dx)*rr5
				g[6*i+5] += (μDotR*rr7)*dy*dz - (uy*dz+uz*dy)*rr5
			}
		}
	}
}

// rowRange returns this rank's share of rows; all rows if MPI is off
func rowRange(n int) (lo, hi int) {
	if mpi.IsOn() && mpi.Size() > 1 {
		rank, size := mpi.Rank(), mpi.Size()
		return rank * n / size, (rank + 1) * n / size
	}
	return 0, n
}
