// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"math"
	"testing"

	"github.com/cpmech/gopol/ana"
	"github.com/cpmech/gopol/inp"
	"github.com/cpmech/gopol/mfield"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// countModel wraps another field model and counts the evaluations
type countModel struct {
	inner mfield.Model
	n     int
}

func (o *countModel) Init(atoms *inp.AtomsData, prms fun.Prms) error { return nil }

func (o *countModel) AddField(u, f []float64) {
	o.n++
	if o.inner != nil {
		o.inner.AddField(u, f)
	}
}

// pairSim builds a two-atom simulation driven through the dense-operator
// field model: the coupling between the atoms is the bare point-dipole block
// at unit distance, scaled by c
func pairSim(α, c float64, typ string) (sim *inp.Simulation, fld *mfield.LinOp, E0 [][]float64, T [][]float64) {
	sim = new(inp.Simulation)
	sim.Data.Fscale = 1
	sim.Atoms = inp.AtomsData{
		X:     [][]float64{{0, 0, 0}, {0, 0, 1}},
		Alpha: []float64{α, α},
		Thole: []float64{0.39, 0.39},
		E0:    [][]float64{{1, 0, 1}, {1, 0, -1}},
	}
	sim.Atoms.PostProcess()
	sim.Solver.SetDefault()
	sim.Solver.Type = typ
	sim.Solver.Nproc = 1
	T = [][]float64{
		{0, 0, 0, -c, 0, 0},
		{0, 0, 0, 0, -c, 0},
		{0, 0, 0, 0, 0, 2 * c},
		{-c, 0, 0, 0, 0, 0},
		{0, -c, 0, 0, 0, 0},
		{0, 0, 2 * c, 0, 0, 0},
	}
	fld = new(mfield.LinOp)
	fld.Init(&sim.Atoms, nil)
	fld.SetMatrix(T)
	E0 = sim.FixedFields()
	return
}

func Test_solver01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver01. direct solver keeps the seed")

	sim, _, E0, _ := pairSim(0.05, 1, "dir")
	cm := new(countModel)
	st := NewState(2, false)
	_, err := Solve(st, E0, sim, cm)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if !st.Converged {
		tst.Errorf("test failed: direct solver must report convergence\n")
	}
	chk.IntAssert(st.Nfeval, 0)
	chk.IntAssert(cm.n, 0)
	chk.Vector(tst, "u", 1e-17, st.U[ChD], []float64{0.05, 0, 0.05, 0.05, 0, -0.05})
}

func Test_solver02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver02. mutual solver vs closed form")

	sim, fld, E0, T := pairSim(0.05, 1, "mut")
	sim.Solver.Epsilon = 1e-9
	st := NewState(2, false)
	_, err := Solve(st, E0, sim, fld)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	io.Pforan("niter=%d nfeval=%d converged=%v\n", st.Niter, st.Nfeval, st.Converged)
	if !st.Converged {
		tst.Errorf("test failed: solver must converge\n")
		return
	}
	if st.Niter < 2 {
		tst.Errorf("test failed: a coupled system needs more than one iteration\n")
	}
	uref := ana.MutualDipoles(sim.Atoms.Alpha, T, E0[ChD])
	chk.Vector(tst, "u d-channel", 1e-9, st.U[ChD], uref)
	chk.Vector(tst, "u p-channel", 1e-9, st.U[ChP], uref)

	// self-consistency: one more fixed-point application must change the
	// returned dipoles by less than the tolerance (RMS, Debye scale)
	f := make([]float64, 6)
	la.MatVecMul(f, 1, T, st.U[ChD])
	sumSq := 0.0
	for i := 0; i < 6; i++ {
		d := sim.Atoms.Alpha[i/3]*(E0[ChD][i]+f[i]) - st.U[ChD][i]
		sumSq += d * d
	}
	rms := 48.033324 * math.Sqrt(sumSq/2.0)
	io.Pforan("rms of fixed-point defect = %v\n", rms)
	if rms >= sim.Solver.Epsilon {
		tst.Errorf("test failed: fixed-point defect %v exceeds tolerance %v\n", rms, sim.Solver.Epsilon)
	}
}

func Test_solver03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver03. exhausted iteration budget")

	sim, fld, E0, _ := pairSim(0.05, 1, "mut")
	sim.Solver.NmaxIt = 1
	st := NewState(2, false)
	_, err := Solve(st, E0, sim, fld)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if st.Converged {
		tst.Errorf("test failed: one iteration cannot certify convergence\n")
	}
	chk.IntAssert(st.Niter, 1)
	chk.IntAssert(st.Nfeval, 1)

	// the kept iterate is the unmixed first one: u == α·(E0 + T·α·E0)
	α := sim.Atoms.Alpha[0]
	ez0 := 1.0 + 2.0*α*(-1.0) // E0_z + T·seed at atom 0
	chk.Scalar(tst, "u_z atom 0", 1e-15, st.U[ChD][2], α*ez0)
}

func Test_solver04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver04. unknown solver type")

	defer func() {
		if err := recover(); err == nil {
			tst.Errorf("test failed: unknown solver type must panic\n")
		}
	}()
	sim, fld, E0, _ := pairSim(0.05, 1, "newton")
	st := NewState(2, false)
	Solve(st, E0, sim, fld)
}

func Test_solver06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver06. simulation built in code without post-processing")

	// derived quantities (damping radii, mixing coefficients) must be filled
	// in at setup, not left for the field kernel to trip over
	sim := new(inp.Simulation)
	sim.Data.Fscale = 1
	sim.Atoms = inp.AtomsData{
		X:     [][]float64{{0, 0, 0}, {0, 0, 0.3}},
		Alpha: []float64{0.001, 0.001},
		Thole: []float64{0.39, 0.39},
		E0:    [][]float64{{10, 0, 5}, {10, 0, 5}},
	}
	sim.Solver.SetDefault()
	sim.Solver.Nproc = 1

	fld, err := mfield.New("thole")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	err = fld.Init(&sim.Atoms, nil)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Scalar(tst, "damp derived by Init", 1e-15, sim.Atoms.Damp[0], 0.31622776601683794)

	E0 := sim.FixedFields()
	st := NewState(2, false)
	_, err = Solve(st, E0, sim, fld)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if !st.Converged {
		tst.Errorf("test failed: solver must converge\n")
		return
	}
	if sim.Solver.MixCoefs == nil {
		tst.Errorf("test failed: mixing coefficients must be derived at setup\n")
	}
	io.Pforan("niter=%d u=%v\n", st.Niter, st.U[ChD])

	// the driver fills the derived quantities as well, for models that do
	// not read them
	sim2 := new(inp.Simulation)
	sim2.Atoms = inp.AtomsData{
		X:     [][]float64{{0, 0, 0}},
		Alpha: []float64{0.5},
		Thole: []float64{0.39},
		E0:    [][]float64{{1, 0, 0}},
	}
	sim2.Solver.SetDefault()
	sim2.Solver.Type = "dir"
	st2 := NewState(1, false)
	_, err = Solve(st2, sim2.FixedFields(), sim2, nil)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if sim2.Atoms.Damp == nil {
		tst.Errorf("test failed: damping radii must be derived at setup\n")
	}
	chk.Vector(tst, "u direct", 1e-17, st2.U[ChD], []float64{0.5, 0, 0})
}

func Test_energy01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("energy01. polarization energy")

	u := []float64{1, 2, 3}
	E0 := []float64{4, 5, 6}
	chk.Scalar(tst, "E unit scale", 1e-15, Energy(u, E0, 1), -16)
	chk.Scalar(tst, "E kJ/mol", 1e-11, Energy(u, E0, 138.935485), -16*138.935485)

	// energy of the converged mutual solution matches the closed form
	sim, fld, E0ch, T := pairSim(0.05, 1, "mut")
	sim.Solver.Epsilon = 1e-9
	st := NewState(2, false)
	_, err := Solve(st, E0ch, sim, fld)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	Emut := Energy(st.U[ChD], E0ch[ChD], 1)
	uref := ana.MutualDipoles(sim.Atoms.Alpha, T, E0ch[ChD])
	io.Pforan("Emut = %v\n", Emut)
	chk.Scalar(tst, "E mutual", 1e-9, Emut, Energy(uref, E0ch[ChD], 1))
}

func Test_solver05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver05. mutual solver with the solvent pair")

	sim, fld, E0, T := pairSim(0.05, 1, "mut")
	sim.Solver.Epsilon = 1e-9
	sim.Solver.Solvent = true
	E0 = sim.FixedFields()
	st := NewState(2, true)
	_, err := Solve(st, E0, sim, fld)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if !st.Converged {
		tst.Errorf("test failed: solver must converge\n")
		return
	}
	uref := ana.MutualDipoles(sim.Atoms.Alpha, T, E0[ChD])
	for ch := 0; ch < 4; ch++ {
		chk.Vector(tst, io.Sf("u channel %d", ch), 1e-9, st.U[ch], uref)
	}
}
