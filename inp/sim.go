// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.pol) JSON file
package inp

import (
	"encoding/json"
	"math"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"
)

// Data holds global data for polarization runs
type Data struct {
	Desc   string  `json:"desc"`   // description of simulation
	Fscale float64 `json:"fscale"` // factor converting e²/nm to the energy unit of choice; e.g. 138.935 => kJ/mol
}

// AtomsData holds the per-atom input: positions, polarizabilities, damping
// parameters and the fixed (permanent) field computed by an external
// electrostatics stage
type AtomsData struct {

	// input data
	X     [][]float64 `json:"x"`     // [natoms][3] positions
	Alpha []float64   `json:"alpha"` // [natoms] polarizability; 0 => dipole pinned at zero
	Thole []float64   `json:"thole"` // [natoms] Thole damping factor
	E0    [][]float64 `json:"e0"`    // [natoms][3] fixed field ("d" channel)
	E0p   [][]float64 `json:"e0p"`   // [natoms][3] fixed field ("p" channel); empty => same as E0

	// derived
	Damp []float64 // [natoms] damping radius == alpha^(1/6)
}

// Natoms returns the number of atoms
func (o *AtomsData) Natoms() int {
	return len(o.Alpha)
}

// PostProcess computes derived quantities
func (o *AtomsData) PostProcess() {
	o.Damp = make([]float64, len(o.Alpha))
	for i, α := range o.Alpha {
		o.Damp[i] = math.Pow(α, 1.0/6.0)
	}
}

// Validate checks atoms data; panics on programmer errors
func (o *AtomsData) Validate() {
	n := len(o.Alpha)
	if n < 1 {
		chk.Panic("at least one atom is required")
	}
	if len(o.X) != n {
		chk.Panic("number of positions (%d) must equal number of atoms (%d)", len(o.X), n)
	}
	if len(o.Thole) != n {
		chk.Panic("number of thole factors (%d) must equal number of atoms (%d)", len(o.Thole), n)
	}
	if len(o.E0) != n {
		chk.Panic("number of fixed field values (%d) must equal number of atoms (%d)", len(o.E0), n)
	}
	if len(o.E0p) != 0 && len(o.E0p) != n {
		chk.Panic("number of p-channel fixed field values (%d) must equal number of atoms (%d)", len(o.E0p), n)
	}
	for i, x := range o.X {
		if len(x) != 3 {
			chk.Panic("position of atom %d must have 3 components", i)
		}
	}
	for i, e := range o.E0 {
		if len(e) != 3 {
			chk.Panic("fixed field at atom %d must have 3 components", i)
		}
	}
	for i, α := range o.Alpha {
		if α < 0 {
			chk.Panic("polarizability of atom %d is negative: %g", i, α)
		}
	}
}

// FieldData selects and parametrises the mutual-field evaluator
type FieldData struct {
	Model string   `json:"model"` // model name; e.g. "thole" or "linop"
	Prms  fun.Prms `json:"prms"`  // model parameters
}

// SolverData holds the polarization solver data
type SolverData struct {

	// input data
	Type     string    `json:"type"`     // solver type: {dir, mut, ext} => direct, mutual (DIIS), extrapolated
	NmaxIt   int       `json:"nmaxit"`   // mutual: max number of iterations
	Epsilon  float64   `json:"epsilon"`  // mutual: target RMS change of the induced dipoles [Debye]
	Nhist    int       `json:"nhist"`    // mutual: number of previous iterates kept for DIIS
	ExtCoefs []float64 `json:"extcoefs"` // extrapolated: per-order coefficients; len == perturbation order
	Solvent  bool      `json:"solvent"`  // carry the solvent (continuum) channel pair
	Nproc    int       `json:"nproc"`    // number of parallel workers; 0 => all CPUs
	ShowR    bool      `json:"showr"`    // show residual during iterations

	// derived
	ExtOrder int       // extrapolated: perturbation order == len(ExtCoefs)
	MixCoefs []float64 // extrapolated: mixing coefficients == suffix sums of ExtCoefs
}

// SetDefault sets default values
func (o *SolverData) SetDefault() {
	o.Type = "mut"
	o.NmaxIt = 60
	o.Epsilon = 1e-5
	o.Nhist = 20
	o.ExtCoefs = []float64{-0.154, 0.017, 0.658, 0.474}
}

// PostProcess computes derived constants. The mixing coefficient of order i
// is the sum of the user coefficients of all orders j ≥ i.
func (o *SolverData) PostProcess() {
	o.ExtOrder = len(o.ExtCoefs)
	o.MixCoefs = make([]float64, o.ExtOrder)
	for i := 0; i < o.ExtOrder; i++ {
		sum := 0.0
		for j := i; j < o.ExtOrder; j++ {
			sum += o.ExtCoefs[j]
		}
		o.MixCoefs[i] = sum
	}
}

// Validate checks solver data; panics on programmer errors
func (o *SolverData) Validate() {
	switch o.Type {
	case "dir":
	case "mut":
		if o.NmaxIt < 1 {
			chk.Panic("nmaxit must be at least 1. nmaxit=%d is invalid", o.NmaxIt)
		}
		if o.Epsilon <= 0 {
			chk.Panic("epsilon must be positive. epsilon=%g is invalid", o.Epsilon)
		}
		if o.Nhist < 1 {
			chk.Panic("nhist must be at least 1. nhist=%d is invalid", o.Nhist)
		}
	case "ext":
		if len(o.ExtCoefs) < 1 {
			chk.Panic("at least one extrapolation coefficient is required")
		}
	default:
		chk.Panic("solver type=%q is invalid. e.g. {dir, mut, ext} => direct, mutual, extrapolated", o.Type)
	}
}

// Simulation holds all simulation data
type Simulation struct {

	// input
	Data   Data       `json:"data"`   // global data
	Atoms  AtomsData  `json:"atoms"`  // atoms
	Field  FieldData  `json:"field"`  // mutual-field evaluator selection
	Solver SolverData `json:"solver"` // polarization solver data

	// derived
	Key string // simulation key; e.g. dimer.pol => dimer
}

// FixedFields flattens the per-atom fixed fields into one [3·natoms] vector
// per dipole channel: two channels, or four when the solvent pair is on. A
// missing p-channel input duplicates the d-channel field; the solvent
// channels start from the same vacuum fields, any reaction-field contribution
// must already be folded in by the electrostatics stage.
func (o *Simulation) FixedFields() (E0 [][]float64) {
	np := o.Atoms.Natoms()
	nch := 2
	if o.Solver.Solvent {
		nch = 4
	}
	E0 = make([][]float64, nch)
	for ch := 0; ch < nch; ch++ {
		E0[ch] = make([]float64, 3*np)
		src := o.Atoms.E0
		if ch%2 == 1 && len(o.Atoms.E0p) > 0 {
			src = o.Atoms.E0p
		}
		for i := 0; i < np; i++ {
			for k := 0; k < 3; k++ {
				E0[ch][3*i+k] = src[i][k]
			}
		}
	}
	return
}

// ReadSim reads all simulation data from a .pol JSON file
func ReadSim(simfilepath string) *Simulation {

	// new sim
	var o Simulation

	// read file
	b, err := io.ReadFile(simfilepath)
	if err != nil {
		chk.Panic("ReadSim: cannot read simulation file %q", simfilepath)
	}

	// set default values
	o.Solver.SetDefault()

	// decode
	err = json.Unmarshal(b, &o)
	if err != nil {
		chk.Panic("ReadSim: cannot unmarshal simulation file %q", simfilepath)
	}
	if o.Data.Fscale == 0 {
		o.Data.Fscale = 1
	}

	// filename key
	o.Key = io.FnKey(filepath.Base(simfilepath))

	// validate and post-process
	o.Atoms.Validate()
	o.Solver.Validate()
	o.Atoms.PostProcess()
	o.Solver.PostProcess()
	return &o
}
