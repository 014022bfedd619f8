// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circuitlib

import (
	"strconv"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// Mux creates a multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(lib *lsim.Library) (*lsim.CircuitDescription, error) {
	d, err := lib.CreateCircuit(NameMux)
	if err != nil {
		return nil, err
	}
	a := d.AddConnectorIn(pA, 1, false)
	b := d.AddConnectorIn(pB, 1, false)
	sel := d.AddConnectorIn(pSel, 1, false)
	out := d.AddConnectorOut(pOut, 1, false)
	not := d.AddNotGate()
	andA, andB := d.AddAndGate(2), d.AddAndGate(2)
	or := d.AddOrGate(2)

	d.Connect(sel.OutputPin(0), not.InputPin(0))
	d.Connect(a.OutputPin(0), andA.InputPin(0))
	d.Connect(not.OutputPin(0), andA.InputPin(1))
	d.Connect(b.OutputPin(0), andB.InputPin(0))
	d.Connect(sel.OutputPin(0), andB.InputPin(1))
	d.Connect(andA.OutputPin(0), or.InputPin(0))
	d.Connect(andB.OutputPin(0), or.InputPin(1))
	d.Connect(or.OutputPin(0), out.InputPin(0))
	return d, nil
}

// DMux creates a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(lib *lsim.Library) (*lsim.CircuitDescription, error) {
	d, err := lib.CreateCircuit(NameDMux)
	if err != nil {
		return nil, err
	}
	in := d.AddConnectorIn(pIn, 1, false)
	sel := d.AddConnectorIn(pSel, 1, false)
	a := d.AddConnectorOut(pA, 1, false)
	b := d.AddConnectorOut(pB, 1, false)
	not := d.AddNotGate()
	andA, andB := d.AddAndGate(2), d.AddAndGate(2)

	d.Connect(sel.OutputPin(0), not.InputPin(0))
	d.Connect(in.OutputPin(0), andA.InputPin(0))
	d.Connect(not.OutputPin(0), andA.InputPin(1))
	d.Connect(in.OutputPin(0), andB.InputPin(0))
	d.Connect(sel.OutputPin(0), andB.InputPin(1))
	d.Connect(andA.OutputPin(0), a.InputPin(0))
	d.Connect(andB.OutputPin(0), b.InputPin(0))
	return d, nil
}

// MuxN creates a multiplexer of the given width, named mux<bits>, made of
// single bit mux sub-circuits sharing the same select line.
//
//	Inputs: a[bits], b[bits], sel
//	Outputs: out[bits]
//	Function: for i := range out { if sel == 0 { out[i] = a[i] } else { out[i] = b[i] } }
//
func MuxN(lib *lsim.Library, bits int) (*lsim.CircuitDescription, error) {
	if bits < 1 {
		return nil, errors.Errorf("invalid mux width %d", bits)
	}
	if _, err := get(lib, NameMux, Mux); err != nil {
		return nil, err
	}
	d, err := lib.CreateCircuit(NameMux + strconv.Itoa(bits))
	if err != nil {
		return nil, err
	}
	a := d.AddConnectorIn(pA, bits, false)
	b := d.AddConnectorIn(pB, bits, false)
	sel := d.AddConnectorIn(pSel, 1, false)
	out := d.AddConnectorOut(pOut, bits, false)
	for i := 0; i < bits; i++ {
		m, err := d.AddSubCircuit(NameMux)
		if err != nil {
			return nil, err
		}
		d.Connect(a.OutputPin(i), m.InputPin(0))
		d.Connect(b.OutputPin(i), m.InputPin(1))
		d.Connect(sel.OutputPin(0), m.InputPin(2))
		d.Connect(m.OutputPin(0), out.InputPin(i))
	}
	return d, nil
}
