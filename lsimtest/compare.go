// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package lsimtest provides utility functions for testing circuits.
//
package lsimtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/lsim"
)

// Settle runs sim until it is stable and fails the test if it does not settle
// within max steps. It returns the number of steps run.
//
func Settle(t testing.TB, sim *lsim.Simulator, max int) int {
	t.Helper()
	n, ok := sim.Settle(max)
	if !ok {
		t.Fatalf("simulation did not settle after %d steps", n)
	}
	return n
}

func inputPorts(d *lsim.CircuitDescription) []string {
	r := make([]string, d.NumInputPorts())
	for i := range r {
		r[i] = d.PortName(true, i)
	}
	return r
}

func outputPorts(d *lsim.CircuitDescription) []string {
	r := make([]string, d.NumOutputPorts())
	for i := range r {
		r[i] = d.PortName(false, i)
	}
	return r
}

func instantiate(t testing.TB, d *lsim.CircuitDescription) (*lsim.Simulator, *lsim.CircuitInstance) {
	t.Helper()
	sim := lsim.NewSimulator()
	inst, err := d.Instantiate(sim)
	if err != nil {
		t.Fatal(err)
	}
	sim.Init()
	return sim, inst
}

func inputString(names []string, values []lsim.Value) string {
	var b strings.Builder
	for i, n := range names {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n)
		b.WriteRune('=')
		b.WriteRune(values[i].Rune())
	}
	return b.String()
}

// CheckTruthTable checks the outputs of circuit d for every combination of its
// input ports. Inputs are enumerated as a binary number, the first input port
// being the most significant bit. result[o][i] is the expected value of output
// port o for input combination i.
//
func CheckTruthTable(t testing.TB, d *lsim.CircuitDescription, result [][]lsim.Value) {
	t.Helper()
	ins, outs := inputPorts(d), outputPorts(d)
	if len(result) != len(outs) {
		t.Fatalf("%s: %d output ports, got %d result rows", d.Name(), len(outs), len(result))
	}
	sim, inst := instantiate(t, d)
	defer inst.Close()

	values := make([]lsim.Value, len(ins))
	tot := 1 << uint(len(ins))
	for i := 0; i < tot; i++ {
		for bit := range ins {
			values[len(ins)-bit-1] = lsim.ValueOf(i&(1<<uint(bit)) != 0)
		}
		for k, n := range ins {
			inst.WritePort(n, values[k])
		}
		Settle(t, sim, 0)
		for o, n := range outs {
			if exp, got := result[o][i], inst.ReadPort(n); exp != got {
				t.Errorf("%s %s => %s = %v, got %v", d.Name(), inputString(ins, values), n, exp, got)
			}
		}
	}
}

// CompareCircuits takes two circuits and compares their outputs given the same
// inputs. Both circuits must have the same ports.
//
func CompareCircuits(t testing.TB, d1, d2 *lsim.CircuitDescription) {
	t.Helper()
	ins, outs := inputPorts(d1), outputPorts(d1)
	ins2, outs2 := inputPorts(d2), outputPorts(d2)
	if len(ins) != len(ins2) {
		t.Fatalf("%s has %d inputs, %s has %d", d1.Name(), len(ins), d2.Name(), len(ins2))
	}
	if len(outs) != len(outs2) {
		t.Fatalf("%s has %d outputs, %s has %d", d1.Name(), len(outs), d2.Name(), len(outs2))
	}
	for i := range ins {
		if ins[i] != ins2[i] {
			t.Fatalf("input %d: %q != %q", i, ins[i], ins2[i])
		}
	}
	for i := range outs {
		if outs[i] != outs2[i] {
			t.Fatalf("output %d: %q != %q", i, outs[i], outs2[i])
		}
	}

	sim1, inst1 := instantiate(t, d1)
	defer inst1.Close()
	sim2, inst2 := instantiate(t, d2)
	defer inst2.Close()

	values := make([]lsim.Value, len(ins))
	check := func() {
		t.Helper()
		for k, n := range ins {
			inst1.WritePort(n, values[k])
			inst2.WritePort(n, values[k])
		}
		Settle(t, sim1, 0)
		Settle(t, sim2, 0)
		for _, n := range outs {
			if v1, v2 := inst1.ReadPort(n), inst2.ReadPort(n); v1 != v2 {
				t.Fatal(fmt.Sprintf("\n%s => %s: %s=%v, %s=%v", inputString(ins, values), n, d1.Name(), v1, d2.Name(), v2))
			}
		}
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	iter := len(ins)
	if iter > 12 {
		iter = 12
	}
	iter = 1 << uint(iter)

	// all 0, all 1, then random
	for k := range values {
		values[k] = lsim.False
	}
	check()
	for k := range values {
		values[k] = lsim.True
	}
	check()
	for i := 0; i < iter; i++ {
		for k := range values {
			values[k] = lsim.ValueOf(rnd.Int63()&(1<<62) != 0)
		}
		check()
	}
}
