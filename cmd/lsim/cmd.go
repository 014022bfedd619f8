// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/circuitlib"
	"github.com/db47h/lsim/internal/hdl"
	"github.com/db47h/lsim/internal/metrics"
	"github.com/db47h/lsim/netlist"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	circuit  string
	set      []string
	maxSteps int
	debug    bool
	metrics  bool
}

func (o *options) addCircuitFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&o.circuit, "circuit", "c", "", "circuit to use instead of the library's main circuit")
}

func (o *options) addRunFlags(fs *pflag.FlagSet) {
	o.addCircuitFlag(fs)
	fs.StringArrayVarP(&o.set, "set", "s", nil, "input assignments, e.g. a=1,bus=0x2f (repeatable)")
	fs.IntVar(&o.maxSteps, "max-steps", lsim.DefaultMaxSettleSteps, "maximum number of simulation steps")
	fs.BoolVar(&o.metrics, "metrics", false, "print simulation metrics after the run")
}

func newRootCmd(out io.Writer) *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "lsim",
		Short:         "Digital logic circuit simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if o.debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&o.debug, "debug", false, "enable debug logging")

	run := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a circuit until it settles and print its outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.OutOrStdout(), args[0])
		},
	}
	o.addRunFlags(run.Flags())

	ports := &cobra.Command{
		Use:   "ports FILE",
		Short: "List the ports of a circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.ports(cmd.OutOrStdout(), args[0])
		},
	}
	o.addCircuitFlag(ports.Flags())

	stdlib := &cobra.Command{
		Use:   "stdlib",
		Short: "Write the built-in circuit library as a YAML netlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := lsim.NewLibrary()
			if err := circuitlib.Register(lib); err != nil {
				return err
			}
			return netlist.Encode(cmd.OutOrStdout(), lib)
		},
	}

	root.AddCommand(run, ports, stdlib)
	return root
}

func (o *options) load(name string) (*lsim.CircuitDescription, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lib, err := netlist.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	d := lib.Main()
	if o.circuit != "" {
		d = lib.Circuit(o.circuit)
	}
	if d == nil {
		return nil, errors.Errorf("%s: circuit %q not found", name, o.circuit)
	}
	return d, nil
}

func (o *options) ports(w io.Writer, name string) error {
	d, err := o.load(name)
	if err != nil {
		return err
	}
	for i := 0; i < d.NumInputPorts(); i++ {
		fmt.Fprintf(w, "in  %s\n", d.PortName(true, i))
	}
	for i := 0; i < d.NumOutputPorts(); i++ {
		fmt.Fprintf(w, "out %s\n", d.PortName(false, i))
	}
	return nil
}

func (o *options) run(w io.Writer, name string) error {
	d, err := o.load(name)
	if err != nil {
		return err
	}
	logger := logrus.StandardLogger()
	opts := []lsim.Option{lsim.WithLogger(logger), lsim.WithMaxSettleSteps(o.maxSteps)}
	var m *metrics.Registry
	if o.metrics {
		m = metrics.NewRegistry()
		opts = append(opts, lsim.WithObserver(m))
	}
	sim := lsim.NewSimulator(opts...)
	inst, err := d.Instantiate(sim)
	if err != nil {
		return err
	}
	defer inst.Close()

	for _, s := range o.set {
		as, err := hdl.Parse(s)
		if err != nil {
			return err
		}
		if err := hdl.Apply(inst, as); err != nil {
			return err
		}
	}
	sim.Init()
	steps, ok := sim.Settle(0)
	if !ok {
		return errors.Errorf("circuit %s did not settle after %d steps", d.Name(), steps)
	}
	logger.WithFields(logrus.Fields{"circuit": d.Name(), "steps": steps}).Debug("settled")

	for i := 0; i < d.NumOutputPorts(); i++ {
		n := d.PortName(false, i)
		fmt.Fprintf(w, "%s=%c\n", n, inst.ReadPort(n).Rune())
	}
	if m != nil {
		return m.WriteText(w)
	}
	return nil
}
