// Copyright 2016 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pol

import (
	"runtime"
	"sync"
)

// nworkers resolves the worker count: nproc, or all CPUs if nproc < 1
func nworkers(nproc int) int {
	if nproc < 1 {
		return runtime.NumCPU()
	}
	return nproc
}

// pfor runs f over [0,n) split into nw contiguous chunks, one goroutine per
// chunk, and waits for all of them (the barrier required between the
// "evaluate field" and "update dipole" phases)
func pfor(n, nw int, f func(lo, hi, iw int)) {
	if nw > n {
		nw = n
	}
	if nw < 2 {
		f(0, n, 0)
		return
	}
	var wg sync.WaitGroup
	wg.Add(nw)
	for iw := 0; iw < nw; iw++ {
		lo := iw * n / nw
		hi := (iw + 1) * n / nw
		go func(lo, hi, iw int) {
			defer wg.Done()
			f(lo, hi, iw)
		}(lo, hi, iw)
	}
	wg.Wait()
}

// pdot computes u·v using per-worker partial sums combined in worker order,
// so the result does not depend on goroutine scheduling
func pdot(u, v []float64, nw int) (res float64) {
	if nw > len(u) {
		nw = len(u)
	}
	if nw < 2 {
		for i := 0; i < len(u); i++ {
			res += u[i] * v[i]
		}
		return
	}
	partial := make([]float64, nw)
	pfor(len(u), nw, func(lo, hi, iw int) {
		sum := 0.0
		for i := lo; i < hi; i++ {
			sum += u[i] * v[i]
		}
		partial[iw] = sum
	})
	for _, s := range partial {
		res += s
	}
	return
}
