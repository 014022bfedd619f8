// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// A PinID identifies a pin within a CircuitDescription. The upper 32 bits hold
// the component id, the lower 32 bits the pin index in that component. Pin
// indices are laid out as inputs, then outputs, then controls.
//
type PinID uint64

// PinInvalid is returned by lookups that fail.
//
const PinInvalid = ^PinID(0)

// MakePinID returns the id of pin index of component comp.
//
func MakePinID(comp uint32, index int) PinID {
	return PinID(comp)<<32 | PinID(uint32(index))
}

// Component returns the id of the component p belongs to.
//
func (p PinID) Component() uint32 { return uint32(p >> 32) }

// Index returns the index of p within its component.
//
func (p PinID) Index() int { return int(uint32(p)) }

func (p PinID) String() string {
	if p == PinInvalid {
		return "pin(invalid)"
	}
	return "pin(" + strconv.FormatUint(uint64(p.Component()), 10) + ":" + strconv.Itoa(p.Index()) + ")"
}

// A Priority orders component evaluation within a simulation step. Lower
// values are evaluated first.
//
type Priority int

// Priority classes.
//
const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

// Point is a position in the editor's coordinate space.
//
type Point struct {
	X, Y float32
}

// A Property is a typed key/value pair attached to a component. Supported
// value types are string, int64 and bool.
//
type Property struct {
	key   string
	value interface{}
}

func normalizeProperty(v interface{}) interface{} {
	switch x := v.(type) {
	case string, int64, bool:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case Value:
		return int64(x)
	}
	panic(errors.Errorf("unsupported property value type %T", v))
}

// NewProperty returns a new property. It panics if value is not a string, a
// bool, an integer or a Value.
//
func NewProperty(key string, value interface{}) *Property {
	return &Property{key: key, value: normalizeProperty(value)}
}

// Key returns the property key.
//
func (p *Property) Key() string { return p.key }

// Value returns the raw property value: a string, an int64 or a bool.
//
func (p *Property) Value() interface{} { return p.value }

// Set changes the property value. The new value need not be of the same type
// as the previous one.
//
func (p *Property) Set(v interface{}) { p.value = normalizeProperty(v) }

// String returns the property value as a string.
//
func (p *Property) String() string {
	switch v := p.value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Int returns the property value as an integer. Strings that do not parse
// return 0.
//
func (p *Property) Int() int64 {
	switch v := p.value.(type) {
	case string:
		i, _ := strconv.ParseInt(v, 10, 64)
		return i
	case int64:
		return v
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Bool returns the property value as a bool.
//
func (p *Property) Bool() bool {
	switch v := p.value.(type) {
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case int64:
		return v != 0
	case bool:
		return v
	}
	return false
}

// Common property keys.
//
const (
	PropName     = "name"
	PropTriState = "tri_state"
	PropValue    = "value"
	PropPullTo   = "pull_to"
	PropCircuit  = "circuit"
)

// A Component is a part placed in a CircuitDescription.
//
type Component struct {
	id       uint32
	typ      ComponentType
	inputs   int
	outputs  int
	controls int
	priority Priority
	props    map[string]*Property
	pos      Point
	angle    int
}

func newComponent(id uint32, typ ComponentType, inputs, outputs, controls int) *Component {
	return &Component{
		id:       id,
		typ:      typ,
		inputs:   inputs,
		outputs:  outputs,
		controls: controls,
		priority: typ.info().priority,
		props:    make(map[string]*Property),
	}
}

// ID returns the component id.
//
func (c *Component) ID() uint32 { return c.id }

// Type returns the component type.
//
func (c *Component) Type() ComponentType { return c.typ }

// NumInputs returns the number of input pins.
//
func (c *Component) NumInputs() int { return c.inputs }

// NumOutputs returns the number of output pins.
//
func (c *Component) NumOutputs() int { return c.outputs }

// NumControls returns the number of control pins.
//
func (c *Component) NumControls() int { return c.controls }

// NumPins returns the total pin count.
//
func (c *Component) NumPins() int { return c.inputs + c.outputs + c.controls }

// Priority returns the evaluation priority of the component.
//
func (c *Component) Priority() Priority { return c.priority }

// SetPriority overrides the default priority of the component.
//
func (c *Component) SetPriority(p Priority) { c.priority = p }

// PinID returns the id of pin index. It panics if index is out of range.
//
func (c *Component) PinID(index int) PinID {
	if index < 0 || index >= c.NumPins() {
		panic(errors.Errorf("pin index %d out of range for component %d (%s)", index, c.id, c.typ))
	}
	return MakePinID(c.id, index)
}

// InputPin returns the id of input pin index.
//
func (c *Component) InputPin(index int) PinID {
	if index < 0 || index >= c.inputs {
		panic(errors.Errorf("input pin %d out of range for component %d (%s)", index, c.id, c.typ))
	}
	return MakePinID(c.id, index)
}

// OutputPin returns the id of output pin index.
//
func (c *Component) OutputPin(index int) PinID {
	if index < 0 || index >= c.outputs {
		panic(errors.Errorf("output pin %d out of range for component %d (%s)", index, c.id, c.typ))
	}
	return MakePinID(c.id, c.inputs+index)
}

// ControlPin returns the id of control pin index.
//
func (c *Component) ControlPin(index int) PinID {
	if index < 0 || index >= c.controls {
		panic(errors.Errorf("control pin %d out of range for component %d (%s)", index, c.id, c.typ))
	}
	return MakePinID(c.id, c.inputs+c.outputs+index)
}

// Pins returns the ids of all the component's pins.
//
func (c *Component) Pins() []PinID {
	r := make([]PinID, c.NumPins())
	for i := range r {
		r[i] = MakePinID(c.id, i)
	}
	return r
}

func (c *Component) hasPin(p PinID) bool {
	return p.Component() == c.id && p.Index() < c.NumPins()
}

// Property returns the property for the given key or nil if not set.
//
func (c *Component) Property(key string) *Property {
	return c.props[key]
}

// SetProperty sets or adds a property.
//
func (c *Component) SetProperty(key string, value interface{}) {
	if p, ok := c.props[key]; ok {
		p.Set(value)
		return
	}
	c.props[key] = NewProperty(key, value)
}

// PropertyKeys returns the sorted list of property keys.
//
func (c *Component) PropertyKeys() []string {
	keys := make([]string, 0, len(c.props))
	for k := range c.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PropertyString returns the value of a property as a string or def if the
// property is not set.
//
func (c *Component) PropertyString(key, def string) string {
	if p := c.props[key]; p != nil {
		return p.String()
	}
	return def
}

// PropertyInt returns the value of a property as an integer or def if the
// property is not set.
//
func (c *Component) PropertyInt(key string, def int64) int64 {
	if p := c.props[key]; p != nil {
		return p.Int()
	}
	return def
}

// PropertyBool returns the value of a property as a bool or def if the
// property is not set.
//
func (c *Component) PropertyBool(key string, def bool) bool {
	if p := c.props[key]; p != nil {
		return p.Bool()
	}
	return def
}

// PropertyValue returns the value of a property as a logic Value or def if the
// property is not set or out of range.
//
func (c *Component) PropertyValue(key string, def Value) Value {
	v := c.PropertyInt(key, int64(def))
	if v < int64(False) || v > int64(Undefined) {
		return def
	}
	return Value(v)
}

// Position returns the component position in the editor.
//
func (c *Component) Position() Point { return c.pos }

// SetPosition moves the component.
//
func (c *Component) SetPosition(p Point) { c.pos = p }

// Angle returns the component orientation in degrees.
//
func (c *Component) Angle() int { return c.angle }

// SetAngle changes the component orientation.
//
func (c *Component) SetAngle(a int) { c.angle = a }

// Name is a shortcut for the name property.
//
func (c *Component) Name() string { return c.PropertyString(PropName, "") }
