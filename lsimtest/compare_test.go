// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsimtest_test

import (
	"testing"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/lsimtest"
)

func gateCircuit(lib *lsim.Library, name string, typ lsim.ComponentType) *lsim.CircuitDescription {
	d, err := lib.CreateCircuit(name)
	if err != nil {
		panic(err)
	}
	a := d.AddConnectorIn("a", 1, false)
	b := d.AddConnectorIn("b", 1, false)
	out := d.AddConnectorOut("out", 1, false)
	g := d.CreateComponent(typ, 2, 1, 0)
	d.Connect(a.OutputPin(0), g.InputPin(0))
	d.Connect(b.OutputPin(0), g.InputPin(1))
	d.Connect(g.OutputPin(0), out.InputPin(0))
	return d
}

func TestCompareCircuits(t *testing.T) {
	lib := lsim.NewLibrary()
	or := gateCircuit(lib, "or", lsim.OrGate)

	// a OR b == NAND(NAND(a, a), NAND(b, b))
	custom, _ := lib.CreateCircuit("custom_or")
	a := custom.AddConnectorIn("a", 1, false)
	b := custom.AddConnectorIn("b", 1, false)
	out := custom.AddConnectorOut("out", 1, false)
	notA, notB, nand := custom.AddNandGate(2), custom.AddNandGate(2), custom.AddNandGate(2)
	custom.Connect(a.OutputPin(0), notA.InputPin(0))
	custom.Connect(a.OutputPin(0), notA.InputPin(1))
	custom.Connect(b.OutputPin(0), notB.InputPin(0))
	custom.Connect(b.OutputPin(0), notB.InputPin(1))
	custom.Connect(notA.OutputPin(0), nand.InputPin(0))
	custom.Connect(notB.OutputPin(0), nand.InputPin(1))
	custom.Connect(nand.OutputPin(0), out.InputPin(0))

	lsimtest.CompareCircuits(t, or, custom)
}

func TestCheckTruthTable(t *testing.T) {
	lib := lsim.NewLibrary()
	lsimtest.CheckTruthTable(t, gateCircuit(lib, "xnor", lsim.XnorGate), [][]lsim.Value{
		{lsim.True, lsim.False, lsim.False, lsim.True},
	})
}

func TestSettle(t *testing.T) {
	lib := lsim.NewLibrary()
	d := gateCircuit(lib, "and", lsim.AndGate)
	sim := lsim.NewSimulator()
	if _, err := d.Instantiate(sim); err != nil {
		t.Fatal(err)
	}
	sim.Init()
	if n := lsimtest.Settle(t, sim, 10); n != 1 {
		t.Errorf("settled in %d steps", n)
	}
}
