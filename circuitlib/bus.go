// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package circuitlib

import (
	"strconv"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// BusDriver creates a tri-state bus driver of the given width, named
// bus_driver<bits>. Its output connector is tri-state so that several drivers
// can share a bus.
//
//	Inputs: in[bits], en
//	Outputs: out[bits]
//	Function: if en { out = in } else { out floats }
//
func BusDriver(lib *lsim.Library, bits int) (*lsim.CircuitDescription, error) {
	if bits < 1 {
		return nil, errors.Errorf("invalid bus width %d", bits)
	}
	d, err := lib.CreateCircuit(NameBusDriver + strconv.Itoa(bits))
	if err != nil {
		return nil, err
	}
	in := d.AddConnectorIn(pIn, bits, false)
	en := d.AddConnectorIn("en", 1, false)
	out := d.AddConnectorOut(pOut, bits, true)
	buf := d.AddTristateBuffer(bits)
	for i := 0; i < bits; i++ {
		d.Connect(in.OutputPin(i), buf.InputPin(i))
		d.Connect(buf.OutputPin(i), out.InputPin(i))
	}
	d.Connect(en.OutputPin(0), buf.ControlPin(0))
	return d, nil
}
