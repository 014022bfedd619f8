// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import "github.com/pkg/errors"

// A Library is an ordered collection of named circuits. Sub-circuit components
// reference other circuits of the same library by name.
//
type Library struct {
	circuits []*CircuitDescription
	main     string
}

// NewLibrary returns an empty library.
//
func NewLibrary() *Library {
	return &Library{}
}

// CreateCircuit adds a new empty circuit. The first circuit created becomes the
// main circuit.
//
func (l *Library) CreateCircuit(name string) (*CircuitDescription, error) {
	if name == "" {
		return nil, errors.New("empty circuit name")
	}
	if l.Circuit(name) != nil {
		return nil, errors.Errorf("duplicate circuit name %q", name)
	}
	d := NewCircuitDescription(name, l)
	l.add(d)
	return d, nil
}

// AddCircuit adds a circuit built with NewCircuitDescription to the library.
// The circuit must have been created for l or for no library. As with
// CreateCircuit, the first circuit added becomes the main circuit.
//
func (l *Library) AddCircuit(d *CircuitDescription) error {
	if d.name == "" {
		return errors.New("empty circuit name")
	}
	if d.lib != nil && d.lib != l {
		return errors.Errorf("circuit %q belongs to another library", d.name)
	}
	if l.Circuit(d.name) != nil {
		return errors.Errorf("duplicate circuit name %q", d.name)
	}
	d.lib = l
	l.add(d)
	return nil
}

func (l *Library) add(d *CircuitDescription) {
	l.circuits = append(l.circuits, d)
	if l.main == "" {
		l.main = d.name
	}
}

// Circuit returns the named circuit or nil. It is safe to call on a nil
// Library.
//
func (l *Library) Circuit(name string) *CircuitDescription {
	if l == nil {
		return nil
	}
	for _, d := range l.circuits {
		if d.name == name {
			return d
		}
	}
	return nil
}

// CircuitNames returns the names of all circuits in creation order.
//
func (l *Library) CircuitNames() []string {
	names := make([]string, len(l.circuits))
	for i, d := range l.circuits {
		names[i] = d.name
	}
	return names
}

// NumCircuits returns the number of circuits in the library.
//
func (l *Library) NumCircuits() int { return len(l.circuits) }

// Main returns the main circuit or nil.
//
func (l *Library) Main() *CircuitDescription { return l.Circuit(l.main) }

// SetMain changes the main circuit.
//
func (l *Library) SetMain(name string) error {
	if l.Circuit(name) == nil {
		return errors.Errorf("unknown circuit %q", name)
	}
	l.main = name
	return nil
}

// RenameCircuit renames a circuit and updates the sub-circuit components that
// reference it.
//
func (l *Library) RenameCircuit(from, to string) error {
	d := l.Circuit(from)
	if d == nil {
		return errors.Errorf("unknown circuit %q", from)
	}
	if from == to {
		return nil
	}
	if l.Circuit(to) != nil {
		return errors.Errorf("duplicate circuit name %q", to)
	}
	d.name = to
	if l.main == from {
		l.main = to
	}
	for _, o := range l.circuits {
		for _, id := range o.ComponentIDsOfType(SubCircuit) {
			c := o.components[id]
			if c.PropertyString(PropCircuit, "") == from {
				c.SetProperty(PropCircuit, to)
			}
		}
	}
	return nil
}

// RemoveCircuit removes a circuit from the library. The main circuit and
// circuits used as sub-circuits cannot be removed.
//
func (l *Library) RemoveCircuit(name string) error {
	idx := -1
	for i, d := range l.circuits {
		if d.name == name {
			idx = i
		}
	}
	if idx < 0 {
		return errors.Errorf("unknown circuit %q", name)
	}
	if name == l.main {
		return errors.Errorf("cannot remove main circuit %q", name)
	}
	for _, o := range l.circuits {
		for _, id := range o.ComponentIDsOfType(SubCircuit) {
			if o.components[id].PropertyString(PropCircuit, "") == name {
				return errors.Errorf("circuit %q is used by %q", name, o.name)
			}
		}
	}
	l.circuits = append(l.circuits[:idx], l.circuits[idx+1:]...)
	return nil
}
