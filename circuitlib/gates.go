// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package circuitlib provides a library of reusable circuits for lsim.
//
// Each function creates a circuit in a lsim.Library and returns its
// description. Circuits that use other circuits as sub-circuits create them in
// the same library if they do not exist yet.
//
package circuitlib

import (
	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// common port names
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pSel = "sel"
	pOut = "out"
)

// Circuit names.
//
const (
	NameXorNand   = "xor_nand"
	NameMux       = "mux"
	NameDMux      = "dmux"
	NameHalfAdder = "half_adder"
	NameFullAdder = "full_adder"
	NameSRLatch   = "sr_latch"
	NameDLatch    = "d_latch"
	NameDFF       = "dff"
	NameBusDriver = "bus_driver"
	NameAdderN    = "adder"
)

// default width of the bus circuits created by Register
const defaultBusBits = 8

// get returns the named circuit from lib, creating it with fn if needed.
//
func get(lib *lsim.Library, name string, fn func(*lsim.Library) (*lsim.CircuitDescription, error)) (*lsim.CircuitDescription, error) {
	if d := lib.Circuit(name); d != nil {
		return d, nil
	}
	return fn(lib)
}

// XorNand creates a XOR gate built from NAND gates only.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a ^ b
//
func XorNand(lib *lsim.Library) (*lsim.CircuitDescription, error) {
	d, err := lib.CreateCircuit(NameXorNand)
	if err != nil {
		return nil, err
	}
	a := d.AddConnectorIn(pA, 1, false)
	b := d.AddConnectorIn(pB, 1, false)
	out := d.AddConnectorOut(pOut, 1, false)
	n1, n2, n3, n4 := d.AddNandGate(2), d.AddNandGate(2), d.AddNandGate(2), d.AddNandGate(2)

	d.Connect(a.OutputPin(0), n1.InputPin(0))
	d.Connect(b.OutputPin(0), n1.InputPin(1))
	d.Connect(a.OutputPin(0), n2.InputPin(0))
	d.Connect(n1.OutputPin(0), n2.InputPin(1))
	d.Connect(b.OutputPin(0), n3.InputPin(0))
	d.Connect(n1.OutputPin(0), n3.InputPin(1))
	d.Connect(n2.OutputPin(0), n4.InputPin(0))
	d.Connect(n3.OutputPin(0), n4.InputPin(1))
	d.Connect(n4.OutputPin(0), out.InputPin(0))
	return d, nil
}

// Register creates all the circuits of the package in lib, using the default
// width for bus circuits.
//
func Register(lib *lsim.Library) error {
	for _, fn := range []func(*lsim.Library) (*lsim.CircuitDescription, error){
		XorNand, Mux, DMux, SRLatch, DLatch, DFF, HalfAdder, FullAdder,
		func(lib *lsim.Library) (*lsim.CircuitDescription, error) { return MuxN(lib, defaultBusBits) },
		func(lib *lsim.Library) (*lsim.CircuitDescription, error) { return BusDriver(lib, defaultBusBits) },
		func(lib *lsim.Library) (*lsim.CircuitDescription, error) { return AdderN(lib, defaultBusBits) },
	} {
		if _, err := fn(lib); err != nil {
			return errors.Wrap(err, "register circuits")
		}
	}
	return nil
}
