// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Value is the logic level of a pin or node.
//
// Components may only drive False, True or Undefined. Error is computed by
// the simulator when several drivers disagree on a node.
//
type Value uint8

// Logic levels.
//
const (
	False Value = iota
	True
	Undefined
	Error
)

var valueNames = [...]string{
	False:     "false",
	True:      "true",
	Undefined: "undefined",
	Error:     "error",
}

func (v Value) String() string {
	if int(v) < len(valueNames) {
		return valueNames[v]
	}
	return "Value(" + strconv.Itoa(int(v)) + ")"
}

// Rune returns a one character representation of v: '0', '1', 'x' or 'e'.
//
func (v Value) Rune() rune {
	switch v {
	case False:
		return '0'
	case True:
		return '1'
	case Undefined:
		return 'x'
	}
	return 'e'
}

// Defined returns true if v is either False or True.
//
func (v Value) Defined() bool {
	return v == False || v == True
}

// Negate returns the logical negation of v. Undefined and Error negate to
// Undefined.
//
func (v Value) Negate() Value {
	switch v {
	case False:
		return True
	case True:
		return False
	}
	return Undefined
}

// logic returns the value as seen by component logic: Error reads as
// Undefined.
//
func (v Value) logic() Value {
	if v == Error {
		return Undefined
	}
	return v
}

// ValueOf converts a bool to a Value.
//
func ValueOf(b bool) Value {
	if b {
		return True
	}
	return False
}

// ParseValue parses a value literal. Accepted forms are 0/1/x (case
// insensitive) and the names returned by Value.String.
//
func ParseValue(s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "false", "f":
		return False, nil
	case "1", "true", "t":
		return True, nil
	case "x", "u", "undefined", "z":
		return Undefined, nil
	case "e", "error":
		return Error, nil
	}
	return Undefined, errors.Errorf("invalid logic value %q", s)
}

// andValues folds a set of inputs through an AND gate. False wins over
// Undefined.
//
func andValues(in []Value) Value {
	r := True
	for _, v := range in {
		switch v.logic() {
		case False:
			return False
		case Undefined:
			r = Undefined
		}
	}
	return r
}

// orValues folds a set of inputs through an OR gate. True wins over
// Undefined.
//
func orValues(in []Value) Value {
	r := False
	for _, v := range in {
		switch v.logic() {
		case True:
			return True
		case Undefined:
			r = Undefined
		}
	}
	return r
}

// xorValues returns the parity of the inputs or Undefined if any input is not
// defined.
//
func xorValues(in []Value) Value {
	r := False
	for _, v := range in {
		switch v.logic() {
		case Undefined:
			return Undefined
		case True:
			r = r.Negate()
		}
	}
	return r
}
