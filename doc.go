/*
Package lsim is a digital logic circuit simulator.

Circuits are described by a CircuitDescription: a netlist of components
(connectors, constants, pull resistors, buffers, logic gates and nested
sub-circuits) whose pins are connected by wires. Descriptions are pure data and
are grouped by name in a Library so that they can reference each other as
sub-circuits.

A description is turned into runnable state by instantiating it in a
Simulator:

	lib := lsim.NewLibrary()
	d, _ := lib.CreateCircuit("and")
	a := d.AddConnectorIn("a", 1, false)
	b := d.AddConnectorIn("b", 1, false)
	out := d.AddConnectorOut("out", 1, false)
	and := d.AddAndGate(2)
	d.Connect(a.OutputPin(0), and.InputPin(0))
	d.Connect(b.OutputPin(0), and.InputPin(1))
	d.Connect(and.OutputPin(0), out.InputPin(0))

	sim := lsim.NewSimulator()
	inst, _ := d.Instantiate(sim)
	inst.WritePort("a", lsim.True)
	inst.WritePort("b", lsim.True)
	sim.Init()
	sim.Settle(0)
	v := inst.ReadPort("out") // lsim.True

Pins connected together form a node. The value of a node is resolved from the
values driven by its pins: floating pins (driving Undefined) are ignored, a
single driver wins, disagreeing drivers yield Error and a node without drivers
takes the value of its pull resistors, if any.

The simulation is event driven. Components whose inputs change are marked
dirty and evaluated in the next Step, ordered by priority class then by their
distance from the primary inputs. Sub-circuit ports share the nodes of the
parent component's pins, so signals cross the hierarchy without delay.

A Simulator is not safe for concurrent use.

*/
package lsim
