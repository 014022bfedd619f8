// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circuitlib

import "github.com/db47h/lsim"

// SRLatch creates a set/reset latch made of two cross-coupled NOR gates. With s
// and r both low, the latch holds its previous state.
//
//	Inputs: s, r
//	Outputs: q, nq
//
func SRLatch(lib *lsim.Library) (*lsim.CircuitDescription, error) {
	d, err := lib.CreateCircuit(NameSRLatch)
	if err != nil {
		return nil, err
	}
	s := d.AddConnectorIn("s", 1, false)
	r := d.AddConnectorIn("r", 1, false)
	q := d.AddConnectorOut("q", 1, false)
	nq := d.AddConnectorOut("nq", 1, false)
	n1, n2 := d.AddNorGate(2), d.AddNorGate(2)

	d.Connect(r.OutputPin(0), n1.InputPin(0))
	d.Connect(n2.OutputPin(0), n1.InputPin(1))
	d.Connect(s.OutputPin(0), n2.InputPin(0))
	d.Connect(n1.OutputPin(0), n2.InputPin(1))
	d.Connect(n1.OutputPin(0), q.InputPin(0))
	d.Connect(n2.OutputPin(0), nq.InputPin(0))
	return d, nil
}

// DLatch creates a gated D latch made of NAND gates. While en is high, q
// follows d. While en is low, the latch holds its previous state.
//
//	Inputs: d, en
//	Outputs: q, nq
//
func DLatch(lib *lsim.Library) (*lsim.CircuitDescription, error) {
	d, err := lib.CreateCircuit(NameDLatch)
	if err != nil {
		return nil, err
	}
	in := d.AddConnectorIn("d", 1, false)
	en := d.AddConnectorIn("en", 1, false)
	q := d.AddConnectorOut("q", 1, false)
	nq := d.AddConnectorOut("nq", 1, false)
	not := d.AddNotGate()
	s, r := d.AddNandGate(2), d.AddNandGate(2)
	n1, n2 := d.AddNandGate(2), d.AddNandGate(2)

	d.Connect(in.OutputPin(0), not.InputPin(0))
	d.Connect(in.OutputPin(0), s.InputPin(0))
	d.Connect(en.OutputPin(0), s.InputPin(1))
	d.Connect(not.OutputPin(0), r.InputPin(0))
	d.Connect(en.OutputPin(0), r.InputPin(1))
	d.Connect(s.OutputPin(0), n1.InputPin(0))
	d.Connect(n2.OutputPin(0), n1.InputPin(1))
	d.Connect(r.OutputPin(0), n2.InputPin(0))
	d.Connect(n1.OutputPin(0), n2.InputPin(1))
	d.Connect(n1.OutputPin(0), q.InputPin(0))
	d.Connect(n2.OutputPin(0), nq.InputPin(0))
	return d, nil
}

// DFF creates a rising edge triggered data flip flop made of two D latch
// sub-circuits in a master/slave arrangement.
//
//	Inputs: in, clk
//	Outputs: out
//	Function: out = in at the last rising edge of clk
//
func DFF(lib *lsim.Library) (*lsim.CircuitDescription, error) {
	if _, err := get(lib, NameDLatch, DLatch); err != nil {
		return nil, err
	}
	d, err := lib.CreateCircuit(NameDFF)
	if err != nil {
		return nil, err
	}
	in := d.AddConnectorIn(pIn, 1, false)
	clk := d.AddConnectorIn("clk", 1, false)
	out := d.AddConnectorOut(pOut, 1, false)
	not := d.AddNotGate()
	master, err := d.AddSubCircuit(NameDLatch)
	if err != nil {
		return nil, err
	}
	slave, err := d.AddSubCircuit(NameDLatch)
	if err != nil {
		return nil, err
	}

	d.Connect(clk.OutputPin(0), not.InputPin(0))
	d.Connect(in.OutputPin(0), master.InputPin(0))
	d.Connect(not.OutputPin(0), master.InputPin(1))
	d.Connect(master.OutputPin(0), slave.InputPin(0))
	d.Connect(clk.OutputPin(0), slave.InputPin(1))
	d.Connect(slave.OutputPin(0), out.InputPin(0))
	return d, nil
}
