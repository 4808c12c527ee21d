// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mfield implements models for the mutual-field operator; i.e. the
// linear map from a set of atomic dipoles to the field they produce at all
// other atoms
package mfield

import (
	"github.com/cpmech/gopol/inp"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
)

// Model computes the field produced at every atom by a given set of induced
// dipoles. Vectors are flat with 3 components per atom: [x0 y0 z0 x1 ...].
// AddField adds T·u to f; it never reads f other than to accumulate, so the
// caller controls the Jacobi barrier by zeroing f before each evaluation.
type Model interface {
	Init(atoms *inp.AtomsData, prms fun.Prms) (err error)
	AddField(u, f []float64)
}

// Gradient is implemented by models that can also report the field gradient
// (6-component symmetric tensor per atom: xx, yy, zz, xy, xz, yz), needed by
// the extrapolated polarization force correction
type Gradient interface {
	AddFieldGrad(u, f, g []float64)
}

// allocators holds all available models
var allocators = make(map[string]func() Model)

// New allocates a new model by name
func New(name string) (Model, error) {
	if alloc, ok := allocators[name]; ok {
		return alloc(), nil
	}
	return nil, chk.Err("cannot find field model named %q", name)
}
