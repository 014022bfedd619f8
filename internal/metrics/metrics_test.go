// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package metrics_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatal(err)
	}
	switch {
	case pb.Counter != nil:
		return pb.Counter.GetValue()
	case pb.Gauge != nil:
		return pb.Gauge.GetValue()
	case pb.Histogram != nil:
		return float64(pb.Histogram.GetSampleCount())
	}
	t.Fatal("unsupported metric type")
	return 0
}

func TestRegistry(t *testing.T) {
	reg := metrics.NewRegistry()

	// a constant in conflict with the first gate of a chain of 3 inverters
	d := lsim.NewCircuitDescription("test", nil)
	in := d.AddConnectorIn("in", 1, false)
	out := d.AddConnectorOut("out", 1, false)
	n1, n2, n3 := d.AddNotGate(), d.AddNotGate(), d.AddNotGate()
	d.Connect(in.OutputPin(0), n1.InputPin(0))
	d.Connect(n1.OutputPin(0), n2.InputPin(0))
	d.Connect(n2.OutputPin(0), n3.InputPin(0))
	d.Connect(n3.OutputPin(0), out.InputPin(0))
	d.Connect(d.AddConstant(lsim.False).OutputPin(0), n1.OutputPin(0))

	sim := lsim.NewSimulator(lsim.WithObserver(reg))
	if _, err := d.Instantiate(sim); err != nil {
		t.Fatal(err)
	}
	sim.Init()
	n, ok := sim.Settle(0)
	if !ok {
		t.Fatal("simulation did not settle")
	}

	if v := value(t, reg.StepsTotal); v != float64(n) {
		t.Errorf("steps = %v, expected %d", v, n)
	}
	if v := value(t, reg.EvaluationsPerStep); v != float64(n) {
		t.Errorf("histogram samples = %v, expected %d", v, n)
	}
	if v := value(t, reg.EvaluationsTotal); v < 3 {
		t.Errorf("evaluations = %v, expected at least 3", v)
	}
	if v := value(t, reg.DirtyComponents); v != 0 {
		t.Errorf("dirty components = %v after settling", v)
	}
	if v := value(t, reg.ConflictsTotal); v == 0 {
		t.Error("no conflict recorded")
	}
}

func TestWriteText(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.StepDone(1, 4, 2)
	reg.StepDone(2, 2, 0)
	reg.Conflict(2, 0)

	var buf bytes.Buffer
	if err := reg.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, l := range []string{
		"lsim_steps_total 2",
		"lsim_component_evaluations_total 6",
		"lsim_node_conflicts_total 1",
		"lsim_dirty_components 0",
		"lsim_step_evaluations_count 2",
		"# TYPE lsim_step_evaluations histogram",
	} {
		if !strings.Contains(s, l+"\n") {
			t.Errorf("missing %q in output:\n%s", l, s)
		}
	}

	mfs, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) != 5 {
		t.Errorf("gathered %d metric families", len(mfs))
	}
}
