// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

// Evaluation functions for the built-in components. They read input values
// from the nodes of the component's pins and update the drive values of its
// outputs. An output whose drive does not change leaves its node untouched.

func evalConstant(s *Simulator, c *simComponent) {
	s.drive(c.output(0), c.value)
}

func evalBuffer(s *Simulator, c *simComponent) {
	for i := 0; i < c.nIn; i++ {
		s.drive(c.output(i), s.read(c.input(i)).logic())
	}
}

// evalTristateBuffer passes its inputs through while its control pin is True.
// Otherwise the outputs float.
//
func evalTristateBuffer(s *Simulator, c *simComponent) {
	en := s.read(c.control(0)) == True
	for i := 0; i < c.nIn; i++ {
		v := Undefined
		if en {
			v = s.read(c.input(i)).logic()
		}
		s.drive(c.output(i), v)
	}
}

func evalNot(s *Simulator, c *simComponent) {
	s.drive(c.output(0), s.read(c.input(0)).Negate())
}

// evalGate returns an evalFn for a gate folding its inputs with fold. If negate
// is true, the result is inverted.
//
func evalGate(fold func([]Value) Value, negate bool) evalFn {
	return func(s *Simulator, c *simComponent) {
		in := s.scratch[:0]
		for i := 0; i < c.nIn; i++ {
			in = append(in, s.read(c.input(i)))
		}
		s.scratch = in
		v := fold(in)
		if negate {
			v = v.Negate()
		}
		s.drive(c.output(0), v)
	}
}
