// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netlist_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/circuitlib"
	"github.com/db47h/lsim/netlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	lib := lsim.NewLibrary()
	require.NoError(t, circuitlib.Register(lib))
	// punch holes in the id sequence of a circuit
	d := lib.Circuit(circuitlib.NameMux)
	tmp := d.AddNotGate()
	d.RemoveComponent(tmp.ID())
	c := d.AddConstant(lsim.True)
	c.SetPriority(lsim.PriorityHigh)
	c.SetPosition(lsim.Point{X: 1.5, Y: -2})
	c.SetAngle(90)
	require.NoError(t, lib.SetMain(circuitlib.NameFullAdder))

	var buf bytes.Buffer
	require.NoError(t, netlist.Encode(&buf, lib))
	lib2, err := netlist.Decode(&buf)
	require.NoError(t, err)

	require.Equal(t, lib.CircuitNames(), lib2.CircuitNames())
	require.Equal(t, circuitlib.NameFullAdder, lib2.Main().Name())
	for _, name := range lib.CircuitNames() {
		d1, d2 := lib.Circuit(name), lib2.Circuit(name)
		require.Equal(t, d1.ComponentIDs(), d2.ComponentIDs(), name)
		for _, id := range d1.ComponentIDs() {
			c1, c2 := d1.ComponentByID(id), d2.ComponentByID(id)
			assert.Equal(t, c1.Type(), c2.Type())
			assert.Equal(t, c1.Pins(), c2.Pins())
			assert.Equal(t, c1.Priority(), c2.Priority())
			assert.Equal(t, c1.Position(), c2.Position())
			assert.Equal(t, c1.Angle(), c2.Angle())
			assert.Equal(t, c1.PropertyKeys(), c2.PropertyKeys())
			for _, k := range c1.PropertyKeys() {
				assert.Equal(t, c1.Property(k).String(), c2.Property(k).String(), "%s: component %d property %s", name, id, k)
			}
		}
		require.Equal(t, d1.WireIDs(), d2.WireIDs(), name)
		for _, id := range d1.WireIDs() {
			assert.Equal(t, d1.WireByID(id).Pins(), d2.WireByID(id).Pins())
		}
		assert.Equal(t, d1.NumInputPorts(), d2.NumInputPorts())
		assert.Equal(t, d1.NumOutputPorts(), d2.NumOutputPorts())
	}

	// the decoded library simulates
	sim := lsim.NewSimulator()
	inst, err := lib2.Circuit(circuitlib.NameAdderN + "8").Instantiate(sim)
	require.NoError(t, err)
	sim.Init()
	inst.WriteBus("a", 200)
	inst.WriteBus("b", 100)
	_, ok := sim.Settle(0)
	require.True(t, ok)
	sum, ok := inst.ReadBus("out")
	require.True(t, ok)
	carry, _ := inst.ReadBus("c")
	assert.Equal(t, uint64(300), sum|carry<<8)
}

const notDoc = `
main: not
circuits:
  - name: not
    components:
      - id: 0
        type: connector_in
        outputs: 1
        properties: {name: in}
      - id: 1
        type: connector_out
        inputs: 1
        properties: {name: out}
      - id: 5
        type: not_gate
        inputs: 1
        outputs: 1
    wires:
      - id: 0
        pins: ["0:0", "5:0"]
      - id: 3
        pins: ["5:1", "1:0"]
`

func TestDecode(t *testing.T) {
	lib, err := netlist.Decode(strings.NewReader(notDoc))
	require.NoError(t, err)
	d := lib.Main()
	require.NotNil(t, d)
	assert.Equal(t, []uint32{0, 1, 5}, d.ComponentIDs())
	assert.Equal(t, []uint32{0, 3}, d.WireIDs())
	assert.Equal(t, "in", d.PortName(true, 0))
	assert.Equal(t, "out", d.PortName(false, 0))

	sim := lsim.NewSimulator()
	inst, err := d.Instantiate(sim)
	require.NoError(t, err)
	inst.WritePort("in", lsim.True)
	sim.Init()
	sim.Settle(0)
	assert.Equal(t, lsim.False, inst.ReadPort("out"))

	// new ids continue after the largest restored id
	assert.Equal(t, uint32(6), d.AddNotGate().ID())
}

func TestDecodePriority(t *testing.T) {
	lib, err := netlist.Decode(strings.NewReader(notDoc))
	require.NoError(t, err)
	d := lib.Main()
	// no priority field: type defaults
	assert.Equal(t, lsim.PriorityHigh, d.ComponentByID(0).Priority())
	assert.Equal(t, lsim.PriorityLow, d.ComponentByID(1).Priority())
	assert.Equal(t, lsim.PriorityNormal, d.ComponentByID(5).Priority())

	doc := strings.Replace(notDoc, "type: not_gate\n", "type: not_gate\n        priority: 0\n", 1)
	lib, err = netlist.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, lsim.PriorityHigh, lib.Main().ComponentByID(5).Priority())
}

func TestDecodeErrors(t *testing.T) {
	good := `
  - name: good
    components:
      - {id: 0, type: constant, outputs: 1}
`
	td := []struct {
		name string
		doc  string
		err  string
	}{
		{"syntax", "circuits: [", "parse"},
		{"no name", "circuits:\n  - components: []\n", "Name"},
		{"no type", "circuits:\n  - name: c\n    components:\n      - {id: 0}\n", "Type"},
		{"priority", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: constant, outputs: 1, priority: 7}\n", "Priority"},
		{"bad type", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: flux_capacitor}\n", "flux_capacitor"},
		{"bad shape", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: not_gate, inputs: 2, outputs: 1}\n", "invalid pin counts"},
		{"duplicate id", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: constant, outputs: 1}\n      - {id: 0, type: constant, outputs: 1}\n", "duplicate component id"},
		{"unknown component", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: constant, outputs: 1}\n    wires:\n      - {id: 0, pins: [\"0:0\", \"9:0\"]}\n", "unknown component 9"},
		{"bad pin", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: constant, outputs: 1}\n    wires:\n      - {id: 0, pins: [\"0:3\"]}\n", "no pin 3"},
		{"malformed pin", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: constant, outputs: 1}\n    wires:\n      - {id: 0, pins: [zero]}\n", "malformed pin"},
		{"property", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: constant, outputs: 1, properties: {value: [1, 2]}}\n", "unsupported value"},
		{"duplicate circuit", "circuits:" + good + good, "good"},
		{"duplicate port", "circuits:\n  - name: c\n    components:\n      - {id: 0, type: connector_in, outputs: 1, properties: {name: a}}\n      - {id: 1, type: connector_in, outputs: 1, properties: {name: a}}\n", "duplicate port names a"},
		{"main", "main: nope\ncircuits:" + good, "main"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := netlist.Decode(strings.NewReader(d.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), d.err)
		})
	}
}

func TestPartialLibrary(t *testing.T) {
	broken := `  - name: broken
    components:
      - {id: 0, type: constant, outputs: 1}
      - {id: 1, type: nope}
`
	td := []struct {
		name  string
		doc   string
		names []string
		main  string
	}{
		{"after good", notDoc + broken, []string{"not"}, "not"},
		{"first", "circuits:\n" + broken, []string{}, ""},
		{"used by earlier", `circuits:
  - name: top
    components:
      - {id: 0, type: constant, outputs: 1}
      - {id: 1, type: sub_circuit, properties: {circuit: child}}
  - name: child
    components:
      - {id: 0, type: not_gate, inputs: 3, outputs: 1}
`, []string{"top"}, "top"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			lib, err := netlist.Decode(strings.NewReader(d.doc))
			require.Error(t, err)
			require.NotNil(t, lib)
			assert.Equal(t, d.names, lib.CircuitNames())
			if d.main == "" {
				assert.Nil(t, lib.Main())
			} else {
				require.NotNil(t, lib.Main())
				assert.Equal(t, d.main, lib.Main().Name())
			}
		})
	}
}
