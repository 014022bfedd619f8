// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl parses port assignment strings like
//
//	a=1, b=0, bus=1010, bus[7]=x, bus[0..3]=0xa
//
// and applies them to circuit instances.
//
package hdl

import (
	"strconv"
	"strings"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// Pin is a simple pin name
//
type Pin struct {
	Name string
	Pos  int
}

// PinIndex is an indexed pin p[index]
//
type PinIndex struct {
	Pin
	Index int
}

// PinRange is a pin range p[start..end]
//
type PinRange struct {
	Pin
	Start int
	End   int
}

// An Assignment assigns a value to a pin, a bus pin or a range of bus pins.
// LHS is one of Pin, PinIndex or PinRange. Bits holds the assigned value,
// least significant bit first.
//
type Assignment struct {
	LHS  interface{}
	Bits []lsim.Value
}

type parser struct {
	input  string
	tokens []Token
	i      Token
}

func (p *parser) lex() Token {
	p.i = p.tokens[0]
	if len(p.tokens) > 1 {
		p.tokens = p.tokens[1:]
	}
	return p.i
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}

func (p *parser) unexpected(what string) error {
	return parseError(p.input, p.i.Pos, "unexpected "+p.i.String()+", expected "+what)
}

// Parse parses a comma separated list of assignments.
//
// Values are written most significant bit first, either as a string of 0, 1
// and x digits, or as a hexadecimal number prefixed with 0x.
//
func Parse(input string) ([]Assignment, error) {
	p := &parser{input: input, tokens: Lex(input)}
	var out []Assignment
	if p.lex().Type == EOF {
		return nil, nil
	}
	for {
		lhs, err := p.getPin()
		if err != nil {
			return nil, err
		}
		if p.i.Type != Equal {
			return nil, p.unexpected("'='")
		}
		if p.lex().Type != Literal {
			return nil, p.unexpected("value")
		}
		bits, err := parseBits(p.i.Value)
		if err != nil {
			return nil, parseError(input, p.i.Pos, err.Error())
		}
		out = append(out, Assignment{lhs, bits})
		switch p.lex().Type {
		case EOF:
			return out, nil
		case Comma:
			p.lex()
		default:
			return nil, p.unexpected("',' or end of input")
		}
	}
}

func (p *parser) getPin() (interface{}, error) {
	if p.i.Type != Ident {
		return nil, p.unexpected("pin name")
	}
	pin := Pin{p.i.Value, p.i.Pos}
	// after ident, expect '[' or '='
	if p.lex().Type != BracketOpen {
		return pin, nil
	}
	start, err := p.getInt()
	if err != nil {
		return nil, err
	}
	end := -1
	if p.lex().Type == Range {
		if end, err = p.getInt(); err != nil {
			return nil, err
		}
		p.lex()
	}
	if p.i.Type != BracketClose {
		return nil, p.unexpected("']'")
	}
	p.lex()
	if end >= 0 {
		return PinRange{pin, start, end}, nil
	}
	return PinIndex{pin, start}, nil
}

func (p *parser) getInt() (int, error) {
	if p.lex().Type != Int {
		return 0, p.unexpected("integer")
	}
	n, err := strconv.Atoi(p.i.Value)
	if err != nil {
		return 0, parseError(p.input, p.i.Pos, err.Error())
	}
	return n, nil
}

// parseBits converts a value literal to a list of values, least significant
// bit first.
//
func parseBits(s string) ([]lsim.Value, error) {
	ls := strings.ToLower(s)
	if strings.HasPrefix(ls, "0x") && len(ls) > 2 {
		n, err := strconv.ParseUint(ls[2:], 16, 64)
		if err != nil {
			return nil, errors.Errorf("invalid hexadecimal value %q", s)
		}
		bits := make([]lsim.Value, 4*(len(ls)-2))
		for i := range bits {
			bits[i] = lsim.ValueOf(n&(1<<uint(i)) != 0)
		}
		return bits, nil
	}
	bits := make([]lsim.Value, len(ls))
	for i, r := range ls {
		var v lsim.Value
		switch r {
		case '0':
			v = lsim.False
		case '1':
			v = lsim.True
		case 'x', 'z', 'u':
			v = lsim.Undefined
		default:
			return nil, errors.Errorf("invalid bit %q in value %q", r, s)
		}
		bits[len(ls)-1-i] = v
	}
	return bits, nil
}

func busPinName(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

// ports returns the port names targeted by an assignment, least significant
// bit first.
//
func ports(d *lsim.CircuitDescription, lhs interface{}) ([]string, error) {
	switch p := lhs.(type) {
	case Pin:
		if d.PortByName(p.Name) != lsim.PinInvalid {
			return []string{p.Name}, nil
		}
		var names []string
		for i := 0; d.PortByName(busPinName(p.Name, i)) != lsim.PinInvalid; i++ {
			names = append(names, busPinName(p.Name, i))
		}
		if len(names) == 0 {
			return nil, errors.Errorf("no port named %s in circuit %s", p.Name, d.Name())
		}
		return names, nil
	case PinIndex:
		return []string{busPinName(p.Name, p.Index)}, nil
	case PinRange:
		var names []string
		step := 1
		if p.End < p.Start {
			step = -1
		}
		for i := p.Start; ; i += step {
			names = append(names, busPinName(p.Name, i))
			if i == p.End {
				break
			}
		}
		return names, nil
	}
	panic(errors.Errorf("invalid assignment target %T", lhs))
}

// Apply writes the assigned values to the input ports of inst. A value
// narrower than its target is zero extended. Values wider than their target
// are an error unless the extra bits are 0.
//
func Apply(inst *lsim.CircuitInstance, as []Assignment) error {
	d := inst.Description()
	for _, a := range as {
		names, err := ports(d, a.LHS)
		if err != nil {
			return err
		}
		for i := len(names); i < len(a.Bits); i++ {
			if a.Bits[i] != lsim.False {
				return errors.Errorf("value too wide for %d bit port %s", len(names), names[0])
			}
		}
		for i, n := range names {
			p := d.PortByName(n)
			if p == lsim.PinInvalid {
				return errors.Errorf("no port named %s in circuit %s", n, d.Name())
			}
			if d.ComponentByID(p.Component()).Type() != lsim.ConnectorIn {
				return errors.Errorf("port %s is not an input", n)
			}
			v := lsim.False
			if i < len(a.Bits) {
				v = a.Bits[i]
			}
			inst.WritePin(p, v)
		}
	}
	return nil
}
