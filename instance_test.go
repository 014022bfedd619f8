// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim_test

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/db47h/lsim"
)

// notLib returns a library with a "not" circuit and a "double" circuit using
// two "not" sub-circuits in series.
//
func notLib(t *testing.T) (*lsim.Library, *lsim.CircuitDescription, *lsim.CircuitDescription) {
	t.Helper()
	lib := lsim.NewLibrary()
	not, err := lib.CreateCircuit("not")
	if err != nil {
		t.Fatal(err)
	}
	in := not.AddConnectorIn("in", 1, false)
	out := not.AddConnectorOut("out", 1, false)
	g := not.AddNotGate()
	not.Connect(in.OutputPin(0), g.InputPin(0))
	not.Connect(g.OutputPin(0), out.InputPin(0))

	double, err := lib.CreateCircuit("double")
	if err != nil {
		t.Fatal(err)
	}
	a := double.AddConnectorIn("a", 1, false)
	y := double.AddConnectorOut("y", 1, false)
	n1, err := double.AddSubCircuit("not")
	if err != nil {
		t.Fatal(err)
	}
	n2, _ := double.AddSubCircuit("not")
	double.Connect(a.OutputPin(0), n1.InputPin(0))
	double.Connect(n1.OutputPin(0), n2.InputPin(0))
	double.Connect(n2.OutputPin(0), y.InputPin(0))
	return lib, not, double
}

func TestIndependentInstances(t *testing.T) {
	_, not, _ := notLib(t)
	sim := lsim.NewSimulator()
	i1, err := not.Instantiate(sim)
	if err != nil {
		t.Fatal(err)
	}
	i2, err := not.Instantiate(sim)
	if err != nil {
		t.Fatal(err)
	}
	i1.WritePort("in", lsim.True)
	sim.Init()
	sim.Settle(0)
	if v := i1.ReadPort("out"); v != lsim.False {
		t.Errorf("instance 1: out = %v", v)
	}
	if v := i2.ReadPort("out"); v != lsim.True {
		t.Errorf("instance 2: out = %v", v)
	}
	if i1.PinNode(not.PortByName("in")) == i2.PinNode(not.PortByName("in")) {
		t.Error("instances share nodes")
	}
}

func TestNestedInstances(t *testing.T) {
	_, not, double := notLib(t)
	sim, inst := instantiate(t, double)
	sim.Init()
	for _, v := range []lsim.Value{lsim.False, lsim.True, lsim.False} {
		inst.WritePort("a", v)
		sim.Settle(0)
		if got := inst.ReadPort("y"); got != v {
			t.Errorf("double(%v) = %v", v, got)
		}
	}
	subs := double.ComponentIDsOfType(lsim.SubCircuit)
	if len(subs) != 2 {
		t.Fatalf("%d sub-circuits", len(subs))
	}
	first := inst.Nested(subs[0])
	if first == nil || first.Description() != not {
		t.Fatal("bad nested instance")
	}
	if !strings.HasPrefix(first.Name(), "double/not#") {
		t.Errorf("nested instance name = %q", first.Name())
	}
	// the nested instance sees the inner value
	if v := first.ReadPort("out"); v != lsim.True {
		t.Errorf("first inverter output = %v", v)
	}
	if inst.Nested(12345) != nil {
		t.Error("Nested returned an instance for an unknown component")
	}
	expectPanic(t, "close nested", func() { first.Close() })
}

func TestInstantiateErrors(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		lib := lsim.NewLibrary()
		d, _ := lib.CreateCircuit("top")
		d.CreateComponent(lsim.SubCircuit, 0, 0, 0).SetProperty(lsim.PropCircuit, "missing")
		sim := lsim.NewSimulator()
		if _, err := d.Instantiate(sim); err == nil || !strings.Contains(err.Error(), "missing") {
			t.Errorf("err = %v", err)
		}
		if sim.NumNodes() != 0 {
			t.Error("failed instantiation left nodes in the simulator")
		}
	})
	t.Run("recursive", func(t *testing.T) {
		lib := lsim.NewLibrary()
		a, _ := lib.CreateCircuit("a")
		b, _ := lib.CreateCircuit("b")
		if _, err := a.AddSubCircuit("b"); err != nil {
			t.Fatal(err)
		}
		if _, err := b.AddSubCircuit("a"); err != nil {
			t.Fatal(err)
		}
		if _, err := a.Instantiate(lsim.NewSimulator()); err == nil || !strings.Contains(err.Error(), "recursive") {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("arity", func(t *testing.T) {
		_, not, double := notLib(t)
		not.AddConnectorIn("extra", 1, false)
		if _, err := double.Instantiate(lsim.NewSimulator()); err == nil {
			t.Error("port count mismatch not detected")
		}
	})
	t.Run("duplicate ports", func(t *testing.T) {
		lib := lsim.NewLibrary()
		pair, _ := lib.CreateCircuit("pair")
		a1 := pair.AddConnectorIn("a", 1, false)
		a2 := pair.AddConnectorIn("a", 1, false)
		out := pair.AddConnectorOut("out", 1, false)
		g := pair.AddAndGate(2)
		pair.Connect(a1.OutputPin(0), g.InputPin(0))
		pair.Connect(a2.OutputPin(0), g.InputPin(1))
		pair.Connect(g.OutputPin(0), out.InputPin(0))
		if pair.NumInputPorts() != 1 || pair.PortByName("a") != a1.OutputPin(0) {
			t.Fatalf("%d input ports, a = %v", pair.NumInputPorts(), pair.PortByName("a"))
		}
		if err := pair.CheckPorts(); err == nil {
			t.Fatal("duplicate port name not reported")
		}

		top, _ := lib.CreateCircuit("top")
		in := top.AddConnectorIn("in", 1, false)
		sub, err := top.AddSubCircuit("pair")
		if err != nil {
			t.Fatal(err)
		}
		top.Connect(in.OutputPin(0), sub.InputPin(0))
		for _, d := range []*lsim.CircuitDescription{pair, top} {
			sim := lsim.NewSimulator()
			if _, err := d.Instantiate(sim); err == nil || !strings.Contains(err.Error(), "duplicate port") {
				t.Errorf("%s: err = %v", d.Name(), err)
			}
			if sim.NumNodes() != 0 {
				t.Errorf("%s: failed instantiation left nodes in the simulator", d.Name())
			}
		}
	})
	t.Run("no library", func(t *testing.T) {
		d := lsim.NewCircuitDescription("orphan", nil)
		d.CreateComponent(lsim.SubCircuit, 0, 0, 0)
		if _, err := d.Instantiate(lsim.NewSimulator()); err == nil {
			t.Error("sub-circuit without library accepted")
		}
	})
}

func TestClose(t *testing.T) {
	_, not, double := notLib(t)
	sim := lsim.NewSimulator()
	keep, err := not.Instantiate(sim)
	if err != nil {
		t.Fatal(err)
	}
	nodes, comps := sim.NumNodes(), sim.NumComponents()
	inst, err := double.Instantiate(sim)
	if err != nil {
		t.Fatal(err)
	}
	inst.Close()
	if sim.NumNodes() != nodes || sim.NumComponents() != comps {
		t.Errorf("Close left %d nodes and %d components, expected %d and %d", sim.NumNodes(), sim.NumComponents(), nodes, comps)
	}
	expectPanic(t, "use after close", func() { inst.ReadPort("y") })
	inst.Close()

	// the remaining instance still works
	keep.WritePort("in", lsim.True)
	sim.Init()
	sim.Settle(0)
	if v := keep.ReadPort("out"); v != lsim.False {
		t.Errorf("out = %v", v)
	}
}

func TestBus(t *testing.T) {
	d := lsim.NewCircuitDescription("bus", nil)
	in := d.AddConnectorIn("in", 16, false)
	out := d.AddConnectorOut("out", 16, false)
	buf := d.AddBuffer(16)
	for i := 0; i < 16; i++ {
		d.Connect(in.OutputPin(i), buf.InputPin(i))
		d.Connect(buf.OutputPin(i), out.InputPin(i))
	}
	sim, inst := instantiate(t, d)
	sim.Init()
	if v, ok := inst.ReadBus("out"); ok || v != 0 {
		t.Errorf("ReadBus before settling = %x, %v", v, ok)
	}
	f := func(n uint16) bool {
		inst.WriteBus("in", uint64(n))
		sim.Settle(0)
		v, ok := inst.ReadBus("out")
		return ok && v == uint64(n)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
	expectPanic(t, "unknown bus", func() { inst.ReadBus("nope") })
}
