// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package netlist reads and writes circuit libraries as YAML documents.
//
// A document lists circuits by name. Each circuit lists its components and
// wires with their ids, so that a library read back from a document has the
// same ids as the one it was written from. Wire pins are written as
// "component:index" strings.
//
//	main: half_adder
//	circuits:
//	  - name: half_adder
//	    components:
//	      - id: 0
//	        type: connector_in
//	        outputs: 1
//	        properties:
//	          name: a
//	          tri_state: false
//	      ...
//	    wires:
//	      - id: 0
//	        pins: [0:0, 4:0]
//
package netlist

import (
	"io"
	"strconv"
	"strings"

	"github.com/db47h/lsim"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// validate is shared by all decoders; validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = validator.New()

// A Document is the serialized form of a lsim.Library.
//
type Document struct {
	Main     string    `yaml:"main,omitempty"`
	Circuits []Circuit `yaml:"circuits"`
}

// A Circuit is the serialized form of a lsim.CircuitDescription.
//
type Circuit struct {
	Name       string      `yaml:"name" validate:"required"`
	Components []Component `yaml:"components" validate:"dive"`
	Wires      []Wire      `yaml:"wires,omitempty" validate:"dive"`
}

// A Component is the serialized form of a lsim.Component.
//
type Component struct {
	ID         uint32                 `yaml:"id"`
	Type       string                 `yaml:"type" validate:"required"`
	Inputs     int                    `yaml:"inputs,omitempty" validate:"min=0"`
	Outputs    int                    `yaml:"outputs,omitempty" validate:"min=0"`
	Controls   int                    `yaml:"controls,omitempty" validate:"min=0"`
	Priority   *int                   `yaml:"priority,omitempty" validate:"omitempty,min=0,max=2"`
	X          float32                `yaml:"x,omitempty"`
	Y          float32                `yaml:"y,omitempty"`
	Angle      int                    `yaml:"angle,omitempty"`
	Properties map[string]interface{} `yaml:"properties,omitempty"`
}

// A Wire is the serialized form of a lsim.Wire.
//
type Wire struct {
	ID   uint32   `yaml:"id"`
	Pins []string `yaml:"pins,flow" validate:"dive,required"`
}

// FromLibrary converts a library to a Document.
//
func FromLibrary(lib *lsim.Library) *Document {
	doc := &Document{Circuits: make([]Circuit, 0, lib.NumCircuits())}
	if m := lib.Main(); m != nil {
		doc.Main = m.Name()
	}
	for _, name := range lib.CircuitNames() {
		doc.Circuits = append(doc.Circuits, fromDescription(lib.Circuit(name)))
	}
	return doc
}

func fromDescription(d *lsim.CircuitDescription) Circuit {
	c := Circuit{Name: d.Name()}
	for _, id := range d.ComponentIDs() {
		comp := d.ComponentByID(id)
		pos := comp.Position()
		prio := int(comp.Priority())
		yc := Component{
			ID:       id,
			Type:     comp.Type().String(),
			Inputs:   comp.NumInputs(),
			Outputs:  comp.NumOutputs(),
			Controls: comp.NumControls(),
			Priority: &prio,
			X:        pos.X,
			Y:        pos.Y,
			Angle:    comp.Angle(),
		}
		if keys := comp.PropertyKeys(); len(keys) > 0 {
			yc.Properties = make(map[string]interface{}, len(keys))
			for _, k := range keys {
				yc.Properties[k] = comp.Property(k).Value()
			}
		}
		c.Components = append(c.Components, yc)
	}
	for _, id := range d.WireIDs() {
		w := d.WireByID(id)
		yw := Wire{ID: id, Pins: make([]string, len(w.Pins()))}
		for i, p := range w.Pins() {
			yw.Pins[i] = formatPin(p)
		}
		c.Wires = append(c.Wires, yw)
	}
	return c
}

func formatPin(p lsim.PinID) string {
	return strconv.FormatUint(uint64(p.Component()), 10) + ":" + strconv.Itoa(p.Index())
}

func parsePin(s string) (lsim.PinID, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return lsim.PinInvalid, errors.Errorf("malformed pin %q", s)
	}
	c, err := strconv.ParseUint(strings.TrimSpace(s[:i]), 10, 32)
	if err != nil {
		return lsim.PinInvalid, errors.Wrapf(err, "malformed pin %q", s)
	}
	idx, err := strconv.ParseUint(strings.TrimSpace(s[i+1:]), 10, 31)
	if err != nil {
		return lsim.PinInvalid, errors.Wrapf(err, "malformed pin %q", s)
	}
	return lsim.MakePinID(uint32(c), int(idx)), nil
}

// Library builds a library from the document. Circuits are built in document
// order. On error, the returned library holds the circuits built before the
// failing one. Components without a priority get the default priority of
// their type.
//
func (doc *Document) Library() (*lsim.Library, error) {
	lib := lsim.NewLibrary()
	for i := range doc.Circuits {
		c := &doc.Circuits[i]
		if err := validate.Struct(c); err != nil {
			return lib, errors.Wrapf(err, "circuit #%d", i)
		}
		if err := c.restore(lib); err != nil {
			return lib, errors.Wrapf(err, "circuit %s", c.Name)
		}
	}
	if doc.Main != "" {
		if err := lib.SetMain(doc.Main); err != nil {
			return lib, errors.Wrap(err, "main circuit")
		}
	}
	return lib, nil
}

func (c *Circuit) restore(lib *lsim.Library) (err error) {
	if lib.Circuit(c.Name) != nil {
		return errors.Errorf("duplicate circuit name %q", c.Name)
	}
	// the circuit joins lib only once fully built
	d := lsim.NewCircuitDescription(c.Name, lib)
	// the description API panics on malformed shapes and duplicate ids
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	for i := range c.Components {
		yc := &c.Components[i]
		typ, err := lsim.ParseComponentType(yc.Type)
		if err != nil {
			return errors.Wrapf(err, "component %d", yc.ID)
		}
		comp := d.RestoreComponent(yc.ID, typ, yc.Inputs, yc.Outputs, yc.Controls)
		if yc.Priority != nil {
			comp.SetPriority(lsim.Priority(*yc.Priority))
		}
		comp.SetPosition(lsim.Point{X: yc.X, Y: yc.Y})
		comp.SetAngle(yc.Angle)
		for k, v := range yc.Properties {
			switch v.(type) {
			case string, bool, int, int64, uint64:
				comp.SetProperty(k, v)
			default:
				return errors.Errorf("component %d: unsupported value %v for property %s", yc.ID, v, k)
			}
		}
	}
	for i := range c.Wires {
		yw := &c.Wires[i]
		pins := make([]lsim.PinID, len(yw.Pins))
		for j, s := range yw.Pins {
			p, err := parsePin(s)
			if err != nil {
				return errors.Wrapf(err, "wire %d", yw.ID)
			}
			comp := d.ComponentByID(p.Component())
			if comp == nil {
				return errors.Errorf("wire %d: unknown component %d", yw.ID, p.Component())
			}
			if p.Index() >= comp.NumPins() {
				return errors.Errorf("wire %d: component %d has no pin %d", yw.ID, p.Component(), p.Index())
			}
			pins[j] = p
		}
		d.RestoreWire(yw.ID, pins...)
	}
	d.RebuildPortList()
	if err := d.CheckPorts(); err != nil {
		return err
	}
	return lib.AddCircuit(d)
}

// Decode reads a library from a YAML document. On error, the returned library,
// if not nil, holds the circuits decoded so far.
//
func Decode(r io.Reader) (*lsim.Library, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse netlist")
	}
	return doc.Library()
}

// Encode writes lib as a YAML document.
//
func Encode(w io.Writer, lib *lsim.Library) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(FromLibrary(lib)); err != nil {
		return errors.Wrap(err, "failed to encode netlist")
	}
	return nil
}
