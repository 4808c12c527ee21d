// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mfield

import (
	"github.com/cpmech/gopol/inp"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/la"
)

// LinOp implements a constant mutual-field operator given as a dense
// [3·natoms][3·natoms] matrix. It is meant for verification runs against
// closed-form solutions; it runs in a single worker.
type LinOp struct {
	np int         // number of atoms
	T  [][]float64 // the operator
	w  []float64   // workspace
}

// add model to factory
func init() {
	allocators["linop"] = func() Model { return new(LinOp) }
}

// Init initialises model
func (o *LinOp) Init(atoms *inp.AtomsData, prms fun.Prms) (err error) {
	o.np = atoms.Natoms()
	o.T = la.MatAlloc(3*o.np, 3*o.np)
	o.w = make([]float64, 3*o.np)
	for _, p := range prms {
		switch p.N {
		default:
			return chk.Err("linop: parameter named %q is incorrect", p.N)
		}
	}
	return
}

// SetMatrix copies the operator matrix
func (o *LinOp) SetMatrix(T [][]float64) {
	if len(T) != 3*o.np {
		chk.Panic("operator matrix must be %d by %d", 3*o.np, 3*o.np)
	}
	for i := 0; i < 3*o.np; i++ {
		copy(o.T[i], T[i])
	}
}

// AddField adds T·u to f
func (o *LinOp) AddField(u, f []float64) {
	la.MatVecMul(o.w, 1, o.T, u)
	la.VecAdd(f, 1, o.w)
}
