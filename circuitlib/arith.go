// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circuitlib

import (
	"strconv"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// HalfAdder creates a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(lib *lsim.Library) (*lsim.CircuitDescription, error) {
	d, err := lib.CreateCircuit(NameHalfAdder)
	if err != nil {
		return nil, err
	}
	a := d.AddConnectorIn(pA, 1, false)
	b := d.AddConnectorIn(pB, 1, false)
	s := d.AddConnectorOut("s", 1, false)
	c := d.AddConnectorOut("c", 1, false)
	xor, and := d.AddXorGate(), d.AddAndGate(2)

	d.Connect(a.OutputPin(0), xor.InputPin(0))
	d.Connect(b.OutputPin(0), xor.InputPin(1))
	d.Connect(a.OutputPin(0), and.InputPin(0))
	d.Connect(b.OutputPin(0), and.InputPin(1))
	d.Connect(xor.OutputPin(0), s.InputPin(0))
	d.Connect(and.OutputPin(0), c.InputPin(0))
	return d, nil
}

// FullAdder creates a full adder made of two half adder sub-circuits.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(lib *lsim.Library) (*lsim.CircuitDescription, error) {
	if _, err := get(lib, NameHalfAdder, HalfAdder); err != nil {
		return nil, err
	}
	d, err := lib.CreateCircuit(NameFullAdder)
	if err != nil {
		return nil, err
	}
	a := d.AddConnectorIn(pA, 1, false)
	b := d.AddConnectorIn(pB, 1, false)
	cin := d.AddConnectorIn("cin", 1, false)
	s := d.AddConnectorOut("s", 1, false)
	cout := d.AddConnectorOut("cout", 1, false)
	ha1, err := d.AddSubCircuit(NameHalfAdder)
	if err != nil {
		return nil, err
	}
	ha2, err := d.AddSubCircuit(NameHalfAdder)
	if err != nil {
		return nil, err
	}
	or := d.AddOrGate(2)

	d.Connect(a.OutputPin(0), ha1.InputPin(0))
	d.Connect(b.OutputPin(0), ha1.InputPin(1))
	d.Connect(ha1.OutputPin(0), ha2.InputPin(0))
	d.Connect(cin.OutputPin(0), ha2.InputPin(1))
	d.Connect(ha2.OutputPin(0), s.InputPin(0))
	d.Connect(ha1.OutputPin(1), or.InputPin(0))
	d.Connect(ha2.OutputPin(1), or.InputPin(1))
	d.Connect(or.OutputPin(0), cout.InputPin(0))
	return d, nil
}

// AdderN creates a ripple carry adder of the given width, named adder<bits>.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits], c
//
func AdderN(lib *lsim.Library, bits int) (*lsim.CircuitDescription, error) {
	if bits < 1 {
		return nil, errors.Errorf("invalid adder width %d", bits)
	}
	if _, err := get(lib, NameFullAdder, FullAdder); err != nil {
		return nil, err
	}
	d, err := lib.CreateCircuit(NameAdderN + strconv.Itoa(bits))
	if err != nil {
		return nil, err
	}
	a := d.AddConnectorIn(pA, bits, false)
	b := d.AddConnectorIn(pB, bits, false)
	out := d.AddConnectorOut(pOut, bits, false)
	c := d.AddConnectorOut("c", 1, false)
	carry := d.AddConstant(lsim.False).OutputPin(0)
	for i := 0; i < bits; i++ {
		fa, err := d.AddSubCircuit(NameFullAdder)
		if err != nil {
			return nil, err
		}
		d.Connect(a.OutputPin(i), fa.InputPin(0))
		d.Connect(b.OutputPin(i), fa.InputPin(1))
		d.Connect(carry, fa.InputPin(2))
		d.Connect(fa.OutputPin(0), out.InputPin(i))
		carry = fa.OutputPin(1)
	}
	d.Connect(carry, c.InputPin(0))
	return d, nil
}
