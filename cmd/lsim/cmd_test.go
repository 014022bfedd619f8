// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) (string, error) {
	var buf bytes.Buffer
	cmd := newRootCmd(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// stdlibFile writes the built-in library to a temporary file.
//
func stdlibFile(t *testing.T) string {
	t.Helper()
	out, err := execute("stdlib")
	require.NoError(t, err)
	name := filepath.Join(t.TempDir(), "lib.yaml")
	require.NoError(t, os.WriteFile(name, []byte(out), 0o644))
	return name
}

func TestStdlib(t *testing.T) {
	out, err := execute("stdlib")
	require.NoError(t, err)
	for _, name := range []string{"xor_nand", "mux", "dmux", "half_adder", "full_adder", "sr_latch", "d_latch", "dff", "mux8", "bus_driver8", "adder8"} {
		assert.Contains(t, out, "name: "+name+"\n")
	}
}

func TestPorts(t *testing.T) {
	lib := stdlibFile(t)
	out, err := execute("ports", lib, "--circuit", "half_adder")
	require.NoError(t, err)
	assert.Equal(t, "in  a\nin  b\nout s\nout c\n", out)

	// xor_nand is created first and is the main circuit
	out, err = execute("ports", lib)
	require.NoError(t, err)
	assert.Equal(t, "in  a\nin  b\nout out\n", out)
	_, err = execute("ports", lib, "-c", "nope")
	require.Error(t, err)
	_, err = execute("ports", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	lib := stdlibFile(t)
	out, err := execute("run", lib, "-c", "full_adder", "-s", "a=1,b=1", "-s", "cin=1")
	require.NoError(t, err)
	assert.Equal(t, "s=1\ncout=1\n", out)

	out, err = execute("run", lib, "-c", "adder8", "--set", "a=0xf0,b=0x11")
	require.NoError(t, err)
	// 0xf0 + 0x11 = 0x101
	assert.Equal(t, "out[0]=1\nout[1]=0\nout[2]=0\nout[3]=0\nout[4]=0\nout[5]=0\nout[6]=0\nout[7]=0\nc=1\n", out)

	out, err = execute("run", lib, "-c", "mux", "-s", "a=1,sel=0", "--metrics")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "out=1\n"), out)
	assert.Contains(t, out, "lsim_steps_total")

	_, err = execute("run", lib, "-c", "mux", "-s", "out=1")
	require.Error(t, err)
	_, err = execute("run", lib, "-c", "mux", "-s", "a=")
	require.Error(t, err)
}

func TestRun_unstable(t *testing.T) {
	doc := `main: ring
circuits:
  - name: ring
    components:
      - {id: 0, type: not_gate, inputs: 1, outputs: 1}
      - {id: 1, type: pull_resistor, outputs: 1, properties: {pull_to: 0}}
    wires:
      - {id: 0, pins: ["0:0", "0:1", "1:0"]}
`
	name := filepath.Join(t.TempDir(), "ring.yaml")
	require.NoError(t, os.WriteFile(name, []byte(doc), 0o644))
	_, err := execute("run", name, "--max-steps", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not settle")
}
