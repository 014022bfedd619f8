// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// instPins is the range of simulator pins allocated for a component.
//
type instPins struct {
	base Pin
	n    int
}

// A CircuitInstance binds a CircuitDescription to a Simulator. Instances of
// sub-circuits are owned by the instance of their parent circuit.
//
// An instance reflects the description at the time it was instantiated; later
// edits to the description are not applied to it.
//
type CircuitInstance struct {
	desc   *CircuitDescription
	sim    *Simulator
	parent *CircuitInstance
	name   string
	pins   map[uint32]instPins
	comps  []int32
	nested map[uint32]*CircuitInstance
	closed bool
}

// Instantiate builds the runtime state of the circuit and its sub-circuits in
// sim. Input connectors that are not tri-state are driven to False; tri-state
// inputs float until written.
//
// The simulator is left untouched if Instantiate returns an error.
//
func (d *CircuitDescription) Instantiate(sim *Simulator) (*CircuitInstance, error) {
	if err := d.check([]*CircuitDescription{d}); err != nil {
		return nil, errors.Wrapf(err, "instantiate %s", d.name)
	}
	inst := d.build(sim, nil, d.name)
	for _, id := range d.ComponentIDsOfType(ConnectorIn) {
		c := d.components[id]
		if c.PropertyBool(PropTriState, false) {
			continue
		}
		for i := 0; i < c.outputs; i++ {
			sim.WritePin(inst.SimPin(c.OutputPin(i)), False)
		}
	}
	sim.log.WithField("circuit", d.name).Debug("instantiated")
	return inst, nil
}

// check verifies that port names are unique, that all sub-circuits can be
// resolved, that none of them recursively contains itself and that their pin
// counts match the nested circuits' ports.
//
func (d *CircuitDescription) check(ancestors []*CircuitDescription) error {
	if err := d.CheckPorts(); err != nil {
		return err
	}
	for _, id := range d.ComponentIDsOfType(SubCircuit) {
		c := d.components[id]
		name := c.PropertyString(PropCircuit, "")
		nested := d.lib.Circuit(name)
		if nested == nil {
			return errors.Errorf("component %d: unknown sub-circuit %q", id, name)
		}
		for _, a := range ancestors {
			if a == nested {
				return errors.Errorf("component %d: recursive sub-circuit %q", id, name)
			}
		}
		if nested.NumInputPorts() != c.inputs || nested.NumOutputPorts() != c.outputs {
			return errors.Errorf("component %d: sub-circuit %q has %d inputs and %d outputs, component has %d and %d",
				id, name, nested.NumInputPorts(), nested.NumOutputPorts(), c.inputs, c.outputs)
		}
		if err := nested.check(append(ancestors, nested)); err != nil {
			return errors.Wrapf(err, "sub-circuit %s", name)
		}
	}
	return nil
}

func pinKindOf(c *Component, i int) (pinKind, Value) {
	switch {
	case i < c.inputs:
		return pinInput, Undefined
	case i < c.inputs+c.outputs:
		if c.typ == PullResistor {
			return pinPull, c.PropertyValue(PropPullTo, False)
		}
		return pinOutput, Undefined
	}
	return pinControl, Undefined
}

func (d *CircuitDescription) build(sim *Simulator, parent *CircuitInstance, name string) *CircuitInstance {
	inst := &CircuitInstance{
		desc:   d,
		sim:    sim,
		parent: parent,
		name:   name,
		pins:   make(map[uint32]instPins, len(d.components)),
		nested: make(map[uint32]*CircuitInstance),
	}
	ids := d.ComponentIDs()
	first := Pin(len(sim.pins))
	for _, id := range ids {
		c := d.components[id]
		ti := c.typ.info()
		comp := int32(-1)
		if ti.eval != nil {
			comp = int32(len(sim.comps))
		}
		base := Pin(len(sim.pins))
		for i := 0; i < c.NumPins(); i++ {
			kind, drive := pinKindOf(c, i)
			sim.allocPin(kind, comp, drive)
		}
		inst.pins[id] = instPins{base, c.NumPins()}
		if ti.eval != nil {
			inst.comps = append(inst.comps, sim.addComponent(simComponent{
				typ:      c.typ,
				base:     base,
				nIn:      c.inputs,
				nOut:     c.outputs,
				nCtl:     c.controls,
				value:    c.PropertyValue(PropValue, False),
				priority: c.priority,
				eval:     ti.eval,
			}))
		}
	}

	// union-find over the pins of this instance
	parents := make([]int32, int(Pin(len(sim.pins))-first))
	for i := range parents {
		parents[i] = int32(i)
	}
	var find func(i int32) int32
	find = func(i int32) int32 {
		for parents[i] != i {
			parents[i] = parents[parents[i]]
			i = parents[i]
		}
		return i
	}
	for _, wid := range d.WireIDs() {
		var root int32 = -1
		for _, p := range d.wires[wid].pins {
			ip, ok := inst.pins[p.Component()]
			if !ok || p.Index() >= ip.n {
				continue
			}
			r := find(int32(ip.base - first + Pin(p.Index())))
			if root < 0 {
				root = r
			} else if r != root {
				parents[r] = root
			}
		}
	}
	classes := make(map[int32][]Pin)
	var roots []int32
	for i := range parents {
		r := find(int32(i))
		if _, ok := classes[r]; !ok {
			roots = append(roots, r)
		}
		classes[r] = append(classes[r], first+Pin(i))
	}
	for _, r := range roots {
		sim.newNode(classes[r]...)
	}

	for _, id := range ids {
		c := d.components[id]
		if c.typ != SubCircuit {
			continue
		}
		nd := d.lib.Circuit(c.PropertyString(PropCircuit, ""))
		child := nd.build(sim, inst, name+"/"+nd.name+"#"+strconv.FormatUint(uint64(id), 10))
		inst.nested[id] = child
		for i := 0; i < c.inputs; i++ {
			sim.ConnectPins(inst.SimPin(c.InputPin(i)), child.SimPin(nd.PortByIndex(true, i)))
		}
		for i := 0; i < c.outputs; i++ {
			sim.ConnectPins(inst.SimPin(c.OutputPin(i)), child.SimPin(nd.PortByIndex(false, i)))
		}
	}
	return inst
}

// Description returns the circuit description of the instance.
//
func (i *CircuitInstance) Description() *CircuitDescription { return i.desc }

// Simulator returns the simulator the instance runs in.
//
func (i *CircuitInstance) Simulator() *Simulator { return i.sim }

// Name returns the hierarchical name of the instance.
//
func (i *CircuitInstance) Name() string { return i.name }

// Parent returns the instance of the parent circuit or nil for a top-level
// instance.
//
func (i *CircuitInstance) Parent() *CircuitInstance { return i.parent }

// Nested returns the instance of sub-circuit component id or nil.
//
func (i *CircuitInstance) Nested(id uint32) *CircuitInstance { return i.nested[id] }

// SimPin returns the simulator pin bound to description pin p. It panics if p
// does not exist in the instance.
//
func (i *CircuitInstance) SimPin(p PinID) Pin {
	if i.closed {
		panic(errors.Errorf("instance %s is closed", i.name))
	}
	ip, ok := i.pins[p.Component()]
	if !ok || p.Index() >= ip.n {
		panic(errors.Errorf("%v does not exist in instance %s", p, i.name))
	}
	return ip.base + Pin(p.Index())
}

// PinNode returns the node pin p is connected to.
//
func (i *CircuitInstance) PinNode(p PinID) Node { return i.sim.PinNode(i.SimPin(p)) }

// ReadValue returns the value of the node pin p is connected to.
//
func (i *CircuitInstance) ReadValue(p PinID) Value { return i.sim.ReadPin(i.SimPin(p)) }

// WritePin sets the value driven by pin p. See Simulator.WritePin.
//
func (i *CircuitInstance) WritePin(p PinID, v Value) { i.sim.WritePin(i.SimPin(p), v) }

// ConnectPins merges the nodes of pins a and b.
//
func (i *CircuitInstance) ConnectPins(a, b PinID) { i.sim.ConnectPins(i.SimPin(a), i.SimPin(b)) }

// DisconnectPin moves pin p to a node of its own.
//
func (i *CircuitInstance) DisconnectPin(p PinID) { i.sim.DisconnectPin(i.SimPin(p)) }

func (i *CircuitInstance) port(name string) PinID {
	p := i.desc.PortByName(name)
	if p == PinInvalid {
		panic(errors.Errorf("no port %q in circuit %s", name, i.desc.name))
	}
	return p
}

// ReadPort returns the value of the named port.
//
func (i *CircuitInstance) ReadPort(name string) Value { return i.ReadValue(i.port(name)) }

// WritePort drives the named port with v.
//
func (i *CircuitInstance) WritePort(name string, v Value) { i.WritePin(i.port(name), v) }

// busPins returns the pins of the named bus, least significant bit first. A
// single bit port is a bus of width 1.
//
func (i *CircuitInstance) busPins(name string) []PinID {
	if p := i.desc.PortByName(name); p != PinInvalid {
		return []PinID{p}
	}
	var pins []PinID
	for b := 0; ; b++ {
		p := i.desc.PortByName(name + "[" + strconv.Itoa(b) + "]")
		if p == PinInvalid {
			break
		}
		pins = append(pins, p)
	}
	if len(pins) == 0 {
		panic(errors.Errorf("no bus %q in circuit %s", name, i.desc.name))
	}
	return pins
}

// WriteBus drives the named bus with the bits of v. Bit 0 goes to name[0].
//
func (i *CircuitInstance) WriteBus(name string, v uint64) {
	for b, p := range i.busPins(name) {
		i.WritePin(p, ValueOf(v&(1<<uint(b)) != 0))
	}
}

// ReadBus returns the value of the named bus as an unsigned integer. ok is
// false if any bit of the bus is not defined.
//
func (i *CircuitInstance) ReadBus(name string) (v uint64, ok bool) {
	ok = true
	for b, p := range i.busPins(name) {
		switch i.ReadValue(p) {
		case True:
			v |= 1 << uint(b)
		case False:
		default:
			ok = false
		}
	}
	return v, ok
}

func (i *CircuitInstance) collect(pins []Pin, comps []int32) ([]Pin, []int32) {
	for _, ip := range i.pins {
		for k := 0; k < ip.n; k++ {
			pins = append(pins, ip.base+Pin(k))
		}
	}
	comps = append(comps, i.comps...)
	for _, n := range i.nested {
		pins, comps = n.collect(pins, comps)
	}
	return pins, comps
}

func (i *CircuitInstance) markClosed() {
	i.closed = true
	for _, n := range i.nested {
		n.markClosed()
	}
}

// Close releases the pins, nodes and components of the instance and of its
// nested instances from the simulator. Nodes shared with pins outside of the
// instance are re-resolved. Close panics if called on a nested instance.
//
func (i *CircuitInstance) Close() {
	if i.parent != nil {
		panic(errors.Errorf("cannot close nested instance %s", i.name))
	}
	if i.closed {
		return
	}
	pins, comps := i.collect(nil, nil)
	i.sim.release(pins, comps)
	i.markClosed()
	i.sim.log.WithField("circuit", i.name).Debug("instance closed")
}
