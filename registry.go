// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// A ComponentType identifies the kind of a component.
//
type ComponentType int

// Component types.
//
const (
	ConnectorIn ComponentType = iota
	ConnectorOut
	Constant
	PullResistor
	Buffer
	TristateBuffer
	AndGate
	OrGate
	NotGate
	NandGate
	NorGate
	XorGate
	XnorGate
	SubCircuit

	numComponentTypes
)

// An evalFn computes the drive values of a component's outputs from the
// current values of its inputs.
//
type evalFn func(s *Simulator, c *simComponent)

// typeInfo is the registry entry for a component type.
//
type typeInfo struct {
	name     string
	priority Priority
	// shape returns true if the given pin counts are valid for the type.
	shape    func(in, out, ctl int) bool
	defaults func(c *Component)
	// eval is nil for passive components.
	eval evalFn
}

// componentTypes is populated once by init and never mutated afterwards.
//
var componentTypes [numComponentTypes]typeInfo

func gateShape(minIn int) func(in, out, ctl int) bool {
	return func(in, out, ctl int) bool { return in >= minIn && out == 1 && ctl == 0 }
}

func fixedShape(nIn, nOut, nCtl int) func(in, out, ctl int) bool {
	return func(in, out, ctl int) bool { return in == nIn && out == nOut && ctl == nCtl }
}

func connectorDefaults(c *Component) {
	c.SetProperty(PropName, "c#"+strconv.FormatUint(uint64(c.id), 10))
	c.SetProperty(PropTriState, false)
}

func init() {
	componentTypes = [numComponentTypes]typeInfo{
		ConnectorIn: {
			name:     "connector_in",
			priority: PriorityHigh,
			shape:    func(in, out, ctl int) bool { return in == 0 && out >= 1 && ctl == 0 },
			defaults: connectorDefaults,
		},
		ConnectorOut: {
			name:     "connector_out",
			priority: PriorityLow,
			shape:    func(in, out, ctl int) bool { return in >= 1 && out == 0 && ctl == 0 },
			defaults: connectorDefaults,
		},
		Constant: {
			name:     "constant",
			priority: PriorityHigh,
			shape:    fixedShape(0, 1, 0),
			defaults: func(c *Component) { c.SetProperty(PropValue, False) },
			eval:     evalConstant,
		},
		PullResistor: {
			name:     "pull_resistor",
			priority: PriorityHigh,
			shape:    fixedShape(0, 1, 0),
			defaults: func(c *Component) { c.SetProperty(PropPullTo, False) },
		},
		Buffer: {
			name:     "buffer",
			priority: PriorityNormal,
			shape:    func(in, out, ctl int) bool { return in >= 1 && out == in && ctl == 0 },
			eval:     evalBuffer,
		},
		TristateBuffer: {
			name:     "tristate_buffer",
			priority: PriorityNormal,
			shape:    func(in, out, ctl int) bool { return in >= 1 && out == in && ctl == 1 },
			eval:     evalTristateBuffer,
		},
		AndGate: {
			name:     "and_gate",
			priority: PriorityNormal,
			shape:    gateShape(2),
			eval:     evalGate(andValues, false),
		},
		OrGate: {
			name:     "or_gate",
			priority: PriorityNormal,
			shape:    gateShape(2),
			eval:     evalGate(orValues, false),
		},
		NotGate: {
			name:     "not_gate",
			priority: PriorityNormal,
			shape:    fixedShape(1, 1, 0),
			eval:     evalNot,
		},
		NandGate: {
			name:     "nand_gate",
			priority: PriorityNormal,
			shape:    gateShape(2),
			eval:     evalGate(andValues, true),
		},
		NorGate: {
			name:     "nor_gate",
			priority: PriorityNormal,
			shape:    gateShape(2),
			eval:     evalGate(orValues, true),
		},
		XorGate: {
			name:     "xor_gate",
			priority: PriorityNormal,
			shape:    gateShape(2),
			eval:     evalGate(xorValues, false),
		},
		XnorGate: {
			name:     "xnor_gate",
			priority: PriorityNormal,
			shape:    gateShape(2),
			eval:     evalGate(xorValues, true),
		},
		SubCircuit: {
			name:     "sub_circuit",
			priority: PriorityNormal,
			shape:    func(in, out, ctl int) bool { return in >= 0 && out >= 0 && ctl == 0 },
			defaults: func(c *Component) { c.SetProperty(PropCircuit, "unknown") },
		},
	}
}

func (t ComponentType) info() *typeInfo {
	if t < 0 || t >= numComponentTypes {
		panic(errors.Errorf("invalid component type %d", int(t)))
	}
	return &componentTypes[t]
}

func (t ComponentType) String() string {
	if t < 0 || t >= numComponentTypes {
		return "ComponentType(" + strconv.Itoa(int(t)) + ")"
	}
	return componentTypes[t].name
}

// ParseComponentType returns the ComponentType with the given name, as
// returned by ComponentType.String.
//
func ParseComponentType(name string) (ComponentType, error) {
	for t := ComponentType(0); t < numComponentTypes; t++ {
		if componentTypes[t].name == name {
			return t, nil
		}
	}
	return 0, errors.Errorf("unknown component type %q", name)
}
