// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Wire is an ordered list of pins that are electrically connected.
//
type Wire struct {
	id   uint32
	pins []PinID
}

// ID returns the wire id.
//
func (w *Wire) ID() uint32 { return w.id }

// Pins returns the pins connected by the wire. The returned slice must not be
// modified.
//
func (w *Wire) Pins() []PinID { return w.pins }

// AddPin appends a pin to the wire.
//
func (w *Wire) AddPin(p PinID) { w.pins = append(w.pins, p) }

// removePin removes every occurrence of p and returns true if any was found.
//
func (w *Wire) removePin(p PinID) bool {
	n := 0
	for _, x := range w.pins {
		if x != p {
			w.pins[n] = x
			n++
		}
	}
	found := n != len(w.pins)
	w.pins = w.pins[:n]
	return found
}

// A CircuitDescription is the static netlist of a circuit: components, and the
// wires connecting their pins. It holds no simulation state.
//
// Component and wire ids are allocated sequentially and never reused, even
// after removal.
//
type CircuitDescription struct {
	name string
	lib  *Library

	nextComponent uint32
	components    map[uint32]*Component

	nextWire uint32
	wires    map[uint32]*Wire

	ports       map[string]PinID
	inputPorts  []string
	outputPorts []string
	dupPorts    []string
}

// NewCircuitDescription returns a new empty circuit. lib is used to resolve
// sub-circuits and may be nil if the circuit does not use any.
//
func NewCircuitDescription(name string, lib *Library) *CircuitDescription {
	return &CircuitDescription{
		name:       name,
		lib:        lib,
		components: make(map[uint32]*Component),
		wires:      make(map[uint32]*Wire),
		ports:      make(map[string]PinID),
	}
}

// Name returns the circuit name.
//
func (d *CircuitDescription) Name() string { return d.name }

// Library returns the library the circuit belongs to. It may be nil.
//
func (d *CircuitDescription) Library() *Library { return d.lib }

// CreateComponent adds a new component of the given type and shape to the
// circuit. Type specific default properties are set.
//
// CreateComponent panics if the pin counts are not valid for the type.
//
func (d *CircuitDescription) CreateComponent(typ ComponentType, inputs, outputs, controls int) *Component {
	c := d.restore(d.nextComponent, typ, inputs, outputs, controls)
	if ti := typ.info(); ti.defaults != nil {
		ti.defaults(c)
	}
	return c
}

// RestoreComponent adds a component with a specific id. It is meant for
// deserializers that need to preserve component ids; no default properties are
// set. It panics if the id is already in use or if the shape is invalid.
//
func (d *CircuitDescription) RestoreComponent(id uint32, typ ComponentType, inputs, outputs, controls int) *Component {
	return d.restore(id, typ, inputs, outputs, controls)
}

func (d *CircuitDescription) restore(id uint32, typ ComponentType, inputs, outputs, controls int) *Component {
	if !typ.info().shape(inputs, outputs, controls) {
		panic(errors.Errorf("invalid pin counts for %s: %d inputs, %d outputs, %d controls", typ, inputs, outputs, controls))
	}
	if _, ok := d.components[id]; ok {
		panic(errors.Errorf("duplicate component id %d in circuit %s", id, d.name))
	}
	c := newComponent(id, typ, inputs, outputs, controls)
	d.components[id] = c
	if id >= d.nextComponent {
		d.nextComponent = id + 1
	}
	return c
}

// ComponentByID returns the component with the given id or nil.
//
func (d *CircuitDescription) ComponentByID(id uint32) *Component {
	return d.components[id]
}

// ComponentIDs returns the ids of all components, in ascending order.
//
func (d *CircuitDescription) ComponentIDs() []uint32 {
	ids := make([]uint32, 0, len(d.components))
	for id := range d.components {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// ComponentIDsOfType returns the ids of all components of type typ, in
// ascending order.
//
func (d *CircuitDescription) ComponentIDsOfType(typ ComponentType) []uint32 {
	var ids []uint32
	for id, c := range d.components {
		if c.typ == typ {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}

// DisconnectComponent removes all the component's pins from the wires they
// are connected to.
//
func (d *CircuitDescription) DisconnectComponent(id uint32) {
	c := d.components[id]
	if c == nil {
		return
	}
	for i := 0; i < c.NumPins(); i++ {
		d.DisconnectPin(MakePinID(id, i))
	}
}

// RemoveComponent disconnects and removes a component. Removing a connector
// rebuilds the port list.
//
func (d *CircuitDescription) RemoveComponent(id uint32) {
	c := d.components[id]
	if c == nil {
		return
	}
	d.DisconnectComponent(id)
	delete(d.components, id)
	if c.typ == ConnectorIn || c.typ == ConnectorOut {
		d.RebuildPortList()
	}
}

// CreateWire adds a new empty wire. Callers are expected to add at least two
// pins to it.
//
func (d *CircuitDescription) CreateWire() *Wire {
	w := &Wire{id: d.nextWire}
	d.nextWire++
	d.wires[w.id] = w
	return w
}

// RestoreWire adds a wire with a specific id and pin list. It panics if the id
// is in use or if any pin does not belong to a component of the circuit.
//
func (d *CircuitDescription) RestoreWire(id uint32, pins ...PinID) *Wire {
	if _, ok := d.wires[id]; ok {
		panic(errors.Errorf("duplicate wire id %d in circuit %s", id, d.name))
	}
	for _, p := range pins {
		d.mustHavePin(p)
	}
	w := &Wire{id: id, pins: append([]PinID(nil), pins...)}
	d.wires[id] = w
	if id >= d.nextWire {
		d.nextWire = id + 1
	}
	return w
}

func (d *CircuitDescription) mustHavePin(p PinID) {
	c := d.components[p.Component()]
	if c == nil || !c.hasPin(p) {
		panic(errors.Errorf("%v does not exist in circuit %s", p, d.name))
	}
}

// Connect creates a new wire between two pins. It does not check for existing
// connections. Connect panics if either pin does not exist.
//
func (d *CircuitDescription) Connect(a, b PinID) *Wire {
	d.mustHavePin(a)
	d.mustHavePin(b)
	w := d.CreateWire()
	w.pins = []PinID{a, b}
	return w
}

// DisconnectPin removes a pin from every wire. Wires left with less than two
// pins are removed.
//
func (d *CircuitDescription) DisconnectPin(p PinID) {
	for id, w := range d.wires {
		if w.removePin(p) && len(w.pins) < 2 {
			delete(d.wires, id)
		}
	}
}

// WireIDs returns the ids of all wires in ascending order.
//
func (d *CircuitDescription) WireIDs() []uint32 {
	ids := make([]uint32, 0, len(d.wires))
	for id := range d.wires {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// WireByID returns the wire with the given id or nil.
//
func (d *CircuitDescription) WireByID(id uint32) *Wire { return d.wires[id] }

// RemoveWire deletes a wire.
//
func (d *CircuitDescription) RemoveWire(id uint32) { delete(d.wires, id) }

// RebuildPortList scans the connector components and rebuilds the ordered
// lists of input and output ports. Connectors are ordered by id and each bit of
// a multi-bit connector is a separate port named name[bit].
//
// The port list is the external interface of the circuit when used as a
// sub-circuit; it must be rebuilt after any change to connector names. Port
// names must be unique, see CheckPorts.
//
func (d *CircuitDescription) RebuildPortList() {
	d.ports = make(map[string]PinID)
	d.inputPorts = d.inputPorts[:0]
	d.outputPorts = d.outputPorts[:0]
	d.dupPorts = d.dupPorts[:0]

	add := func(list []string, c *Component, pin func(int) PinID, n int) []string {
		name := c.Name()
		for i := 0; i < n; i++ {
			pn := name
			if n > 1 {
				pn = name + "[" + strconv.Itoa(i) + "]"
			}
			if _, ok := d.ports[pn]; ok {
				d.dupPorts = append(d.dupPorts, pn)
				continue
			}
			d.ports[pn] = pin(i)
			list = append(list, pn)
		}
		return list
	}
	for _, id := range d.ComponentIDs() {
		c := d.components[id]
		switch c.typ {
		case ConnectorIn:
			d.inputPorts = add(d.inputPorts, c, c.OutputPin, c.outputs)
		case ConnectorOut:
			d.outputPorts = add(d.outputPorts, c, c.InputPin, c.inputs)
		}
	}
}

// ChangePortPinCount changes the bit width of a connector. Pins beyond the new
// width are disconnected first; other pins keep their id and wiring. The port
// list is rebuilt.
//
func (d *CircuitDescription) ChangePortPinCount(id uint32, n int) {
	c := d.components[id]
	if c == nil || (c.typ != ConnectorIn && c.typ != ConnectorOut) {
		panic(errors.Errorf("component %d is not a connector", id))
	}
	if n < 1 {
		panic(errors.Errorf("invalid connector width %d", n))
	}
	for i := n; i < c.NumPins(); i++ {
		d.DisconnectPin(MakePinID(id, i))
	}
	if c.typ == ConnectorIn {
		c.outputs = n
	} else {
		c.inputs = n
	}
	d.RebuildPortList()
}

// CheckPorts returns an error if several connector pins share a port name.
// Only the first of them, in id order, is listed as a port. Such a circuit
// cannot be instantiated.
//
func (d *CircuitDescription) CheckPorts() error {
	if len(d.dupPorts) > 0 {
		return errors.Errorf("circuit %s: duplicate port names %s", d.name, strings.Join(d.dupPorts, ", "))
	}
	return nil
}

// PortByName returns the pin of the named port or PinInvalid.
//
func (d *CircuitDescription) PortByName(name string) PinID {
	if p, ok := d.ports[name]; ok {
		return p
	}
	return PinInvalid
}

// PortByIndex returns the pin of the index-th input or output port or
// PinInvalid.
//
func (d *CircuitDescription) PortByIndex(input bool, index int) PinID {
	return d.PortByName(d.PortName(input, index))
}

// PortName returns the name of the index-th input or output port, or an empty
// string if index is out of range.
//
func (d *CircuitDescription) PortName(input bool, index int) string {
	list := d.outputPorts
	if input {
		list = d.inputPorts
	}
	if index < 0 || index >= len(list) {
		return ""
	}
	return list[index]
}

// NumInputPorts returns the number of input ports.
//
func (d *CircuitDescription) NumInputPorts() int { return len(d.inputPorts) }

// NumOutputPorts returns the number of output ports.
//
func (d *CircuitDescription) NumOutputPorts() int { return len(d.outputPorts) }

// AddConnectorIn adds an input connector of the given width.
//
func (d *CircuitDescription) AddConnectorIn(name string, bits int, triState bool) *Component {
	return d.addConnector(ConnectorIn, name, 0, bits, triState)
}

// AddConnectorOut adds an output connector of the given width.
//
func (d *CircuitDescription) AddConnectorOut(name string, bits int, triState bool) *Component {
	return d.addConnector(ConnectorOut, name, bits, 0, triState)
}

func (d *CircuitDescription) addConnector(typ ComponentType, name string, in, out int, triState bool) *Component {
	c := d.CreateComponent(typ, in, out, 0)
	if name != "" {
		c.SetProperty(PropName, name)
	}
	c.SetProperty(PropTriState, triState)
	d.RebuildPortList()
	return c
}

// AddConstant adds a constant driving v.
//
func (d *CircuitDescription) AddConstant(v Value) *Component {
	c := d.CreateComponent(Constant, 0, 1, 0)
	c.SetProperty(PropValue, v)
	return c
}

// AddPullResistor adds a pull resistor pulling its node to v.
//
func (d *CircuitDescription) AddPullResistor(v Value) *Component {
	c := d.CreateComponent(PullResistor, 0, 1, 0)
	c.SetProperty(PropPullTo, v)
	return c
}

// AddBuffer adds a buffer of the given width.
//
func (d *CircuitDescription) AddBuffer(bits int) *Component {
	return d.CreateComponent(Buffer, bits, bits, 0)
}

// AddTristateBuffer adds a tristate buffer of the given width. Its only control
// pin enables the outputs.
//
func (d *CircuitDescription) AddTristateBuffer(bits int) *Component {
	return d.CreateComponent(TristateBuffer, bits, bits, 1)
}

// AddAndGate adds an AND gate with n inputs.
//
func (d *CircuitDescription) AddAndGate(n int) *Component { return d.CreateComponent(AndGate, n, 1, 0) }

// AddOrGate adds an OR gate with n inputs.
//
func (d *CircuitDescription) AddOrGate(n int) *Component { return d.CreateComponent(OrGate, n, 1, 0) }

// AddNotGate adds a NOT gate.
//
func (d *CircuitDescription) AddNotGate() *Component { return d.CreateComponent(NotGate, 1, 1, 0) }

// AddNandGate adds a NAND gate with n inputs.
//
func (d *CircuitDescription) AddNandGate(n int) *Component {
	return d.CreateComponent(NandGate, n, 1, 0)
}

// AddNorGate adds a NOR gate with n inputs.
//
func (d *CircuitDescription) AddNorGate(n int) *Component { return d.CreateComponent(NorGate, n, 1, 0) }

// AddXorGate adds a 2 inputs XOR gate.
//
func (d *CircuitDescription) AddXorGate() *Component { return d.CreateComponent(XorGate, 2, 1, 0) }

// AddXnorGate adds a 2 inputs XNOR gate.
//
func (d *CircuitDescription) AddXnorGate() *Component { return d.CreateComponent(XnorGate, 2, 1, 0) }

// AddSubCircuit adds an instance of the named circuit from the library. The
// component gets one input pin per input port and one output pin per output
// port of the nested circuit.
//
func (d *CircuitDescription) AddSubCircuit(name string) (*Component, error) {
	nested := d.lib.Circuit(name)
	if nested == nil {
		return nil, errors.Errorf("circuit %s: unknown sub-circuit %q", d.name, name)
	}
	if nested == d {
		return nil, errors.Errorf("circuit %s cannot contain itself", d.name)
	}
	c := d.CreateComponent(SubCircuit, nested.NumInputPorts(), nested.NumOutputPorts(), 0)
	c.SetProperty(PropCircuit, name)
	return c, nil
}

func sortIDs(ids []uint32) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
