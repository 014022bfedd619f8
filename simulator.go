// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A Pin is a pin allocated in a Simulator.
//
type Pin uint32

// A Node is an electrical node in a Simulator: the set of pins connected
// together. Its value is resolved from the drive values of its pins.
//
type Node uint32

// NodeInvalid is returned for pins that do not exist.
//
const NodeInvalid = ^Node(0)

type pinKind uint8

const (
	pinInput pinKind = iota
	pinOutput
	pinControl
	pinPull
)

func (k pinKind) reads() bool { return k == pinInput || k == pinControl }

type simPin struct {
	node  Node
	drive Value
	kind  pinKind
	comp  int32 // evaluating component owning the pin or -1
	dead  bool
}

type simNode struct {
	value Value
	pins  []Pin
	dead  bool
}

type compState uint8

const (
	stateIdle    compState = iota
	stateQueued            // dirty for the next step
	statePending           // dirty in the step being run, not evaluated yet
)

type simComponent struct {
	typ      ComponentType
	base     Pin
	nIn      int
	nOut     int
	nCtl     int
	value    Value
	priority Priority
	eval     evalFn
	rank     int
	state    compState
	dead     bool
}

func (c *simComponent) input(i int) Pin   { return c.base + Pin(i) }
func (c *simComponent) output(i int) Pin  { return c.base + Pin(c.nIn+i) }
func (c *simComponent) control(i int) Pin { return c.base + Pin(c.nIn+c.nOut+i) }

// An Observer is notified of simulation events.
//
type Observer interface {
	// StepDone is called at the end of each step with the number of
	// components evaluated during the step and the number of components left
	// dirty for the next one.
	StepDone(step uint64, evaluated, dirty int)
	// Conflict is called when a node resolves to Error because its drivers
	// disagree.
	Conflict(step uint64, n Node)
}

// An Option configures a Simulator.
//
type Option func(s *Simulator)

// WithLogger sets the logger used for debug output.
//
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Simulator) { s.log = l }
}

// WithObserver registers an observer.
//
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.obs = append(s.obs, o) }
}

// WithMaxSettleSteps sets the default step limit used by Settle.
//
func WithMaxSettleSteps(n int) Option {
	return func(s *Simulator) { s.maxSettle = n }
}

// DefaultMaxSettleSteps is the default step limit for Settle.
//
const DefaultMaxSettleSteps = 1000

// A Simulator holds the runtime state of instantiated circuits: pins, nodes
// and the components to evaluate.
//
// A Simulator is not safe for concurrent use. Circuit edits and simulation
// steps must be serialized by the caller.
//
type Simulator struct {
	pins  []simPin
	nodes []simNode
	comps []simComponent

	dirty []int32 // components to evaluate in the next step
	spare []int32

	steps      uint64
	orderStale bool
	scratch    []Value

	log       logrus.FieldLogger
	obs       []Observer
	maxSettle int
}

// NewSimulator returns a new simulator.
//
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{maxSettle: DefaultMaxSettleSteps}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.Out = io.Discard
		s.log = l
	}
	return s
}

// allocPin allocates a new pin. The pin must be assigned to a node with newNode
// before the simulator is used.
//
func (s *Simulator) allocPin(kind pinKind, comp int32, drive Value) Pin {
	s.pins = append(s.pins, simPin{node: NodeInvalid, drive: drive, kind: kind, comp: comp})
	return Pin(len(s.pins) - 1)
}

// newNode allocates a node for the given pins and resolves its value.
//
func (s *Simulator) newNode(pins ...Pin) Node {
	n := Node(len(s.nodes))
	s.nodes = append(s.nodes, simNode{pins: pins})
	for _, p := range pins {
		s.pins[p].node = n
	}
	nd := &s.nodes[n]
	nd.value = s.resolve(nd)
	s.orderStale = true
	return n
}

func (s *Simulator) addComponent(c simComponent) int32 {
	s.comps = append(s.comps, c)
	s.orderStale = true
	return int32(len(s.comps) - 1)
}

func (s *Simulator) checkPin(p Pin) *simPin {
	if int(p) >= len(s.pins) || s.pins[p].dead {
		panic(errors.Errorf("invalid simulator pin %d", p))
	}
	return &s.pins[p]
}

func (s *Simulator) checkNode(n Node) *simNode {
	if int(n) >= len(s.nodes) || s.nodes[n].dead {
		panic(errors.Errorf("invalid simulator node %d", n))
	}
	return &s.nodes[n]
}

// resolve computes the value of a node from the drive values of its pins.
//
func (s *Simulator) resolve(nd *simNode) Value {
	v, pull := Undefined, Undefined
	active, pulls := 0, 0
	for _, p := range nd.pins {
		sp := &s.pins[p]
		if sp.drive == Undefined {
			continue
		}
		if sp.kind == pinPull {
			if pulls == 0 {
				pull = sp.drive
			} else if pull != sp.drive {
				pull = Error
			}
			pulls++
			continue
		}
		if active == 0 {
			v = sp.drive
		} else if v != sp.drive {
			v = Error
		}
		active++
	}
	if active == 0 {
		return pull
	}
	return v
}

// updateNode re-resolves a node and marks its readers dirty if its value
// changed.
//
func (s *Simulator) updateNode(n Node) {
	nd := &s.nodes[n]
	v := s.resolve(nd)
	if v == nd.value {
		return
	}
	nd.value = v
	if v == Error {
		s.conflict(n)
	}
	s.notify(nd.pins)
}

func (s *Simulator) conflict(n Node) {
	s.log.WithFields(logrus.Fields{"node": n, "step": s.steps}).Debug("conflicting drivers")
	for _, o := range s.obs {
		o.Conflict(s.steps, n)
	}
}

func (s *Simulator) notify(pins []Pin) {
	for _, p := range pins {
		if sp := &s.pins[p]; sp.kind.reads() && sp.comp >= 0 {
			s.markDirty(sp.comp)
		}
	}
}

func (s *Simulator) markDirty(c int32) {
	sc := &s.comps[c]
	if sc.state != stateIdle || sc.dead {
		return
	}
	sc.state = stateQueued
	s.dirty = append(s.dirty, c)
}

// read returns the value of the node a pin is connected to.
//
func (s *Simulator) read(p Pin) Value {
	return s.nodes[s.pins[p].node].value
}

// drive sets the drive value of a pin and re-resolves its node if it changed.
//
func (s *Simulator) drive(p Pin, v Value) {
	sp := &s.pins[p]
	if sp.drive == v {
		return
	}
	sp.drive = v
	s.updateNode(sp.node)
}

// Init resets the simulation. Node values are reset to Undefined and the
// outputs of all evaluated components stop driving. Nodes are then resolved
// from the remaining external drive values (pins written with WritePin, pull
// resistors) and every component is marked dirty.
//
func (s *Simulator) Init() {
	for i := range s.pins {
		if sp := &s.pins[i]; !sp.dead && sp.comp >= 0 && sp.kind == pinOutput {
			sp.drive = Undefined
		}
	}
	nodes := 0
	for i := range s.nodes {
		if nd := &s.nodes[i]; !nd.dead {
			nd.value = s.resolve(nd)
			nodes++
		}
	}
	s.dirty = s.dirty[:0]
	for i := range s.comps {
		sc := &s.comps[i]
		sc.state = stateIdle
		if !sc.dead {
			s.markDirty(int32(i))
		}
	}
	s.steps = 0
	s.log.WithFields(logrus.Fields{"nodes": nodes, "components": len(s.dirty)}).Debug("simulation init")
}

// Step runs one simulation step: every dirty component is evaluated once, in
// priority order. Components whose inputs change during the step are evaluated
// in the next step, unless they are already scheduled for evaluation later in
// the current one.
//
func (s *Simulator) Step() {
	s.ensureOrder()
	cur := s.dirty
	s.dirty = s.spare[:0]
	sort.Slice(cur, func(i, j int) bool { return s.comps[cur[i]].rank < s.comps[cur[j]].rank })
	for _, c := range cur {
		s.comps[c].state = statePending
	}
	evaluated := 0
	for _, c := range cur {
		sc := &s.comps[c]
		sc.state = stateIdle
		if sc.dead {
			continue
		}
		sc.eval(s, sc)
		evaluated++
	}
	s.spare = cur[:0]
	s.steps++
	for _, o := range s.obs {
		o.StepDone(s.steps, evaluated, len(s.dirty))
	}
}

// Stable returns true if no component is dirty.
//
func (s *Simulator) Stable() bool { return len(s.dirty) == 0 }

// Settle runs Step until the simulation is stable or max steps have been run.
// If max <= 0, the limit set with WithMaxSettleSteps is used. It returns the
// number of steps run and whether the simulation is stable.
//
func (s *Simulator) Settle(max int) (int, bool) {
	if max <= 0 {
		max = s.maxSettle
	}
	n := 0
	for ; n < max && !s.Stable(); n++ {
		s.Step()
	}
	if !s.Stable() {
		s.log.WithFields(logrus.Fields{"steps": n, "dirty": len(s.dirty)}).Debug("simulation did not settle")
		return n, false
	}
	return n, true
}

// StepCount returns the number of steps run since the last Init.
//
func (s *Simulator) StepCount() uint64 { return s.steps }

// ReadPin returns the value of the node the pin is connected to.
//
func (s *Simulator) ReadPin(p Pin) Value {
	return s.nodes[s.checkPin(p).node].value
}

// ReadNode returns the value of a node.
//
func (s *Simulator) ReadNode(n Node) Value { return s.checkNode(n).value }

// PinDrive returns the value currently driven by a pin.
//
func (s *Simulator) PinDrive(p Pin) Value { return s.checkPin(p).drive }

// WritePin sets the value driven by a pin. Writing Undefined makes the pin
// float. WritePin panics if v is Error.
//
func (s *Simulator) WritePin(p Pin, v Value) {
	if !v.Defined() && v != Undefined {
		panic(errors.Errorf("cannot drive pin %d with %v", p, v))
	}
	s.checkPin(p)
	s.drive(p, v)
}

// PinNode returns the node a pin is connected to.
//
func (s *Simulator) PinNode(p Pin) Node { return s.checkPin(p).node }

// NodePins returns the pins connected to a node.
//
func (s *Simulator) NodePins(n Node) []Pin {
	return append([]Pin(nil), s.checkNode(n).pins...)
}

// NumNodes returns the number of live nodes.
//
func (s *Simulator) NumNodes() int {
	cnt := 0
	for i := range s.nodes {
		if !s.nodes[i].dead {
			cnt++
		}
	}
	return cnt
}

// NumComponents returns the number of live evaluated components.
//
func (s *Simulator) NumComponents() int {
	cnt := 0
	for i := range s.comps {
		if !s.comps[i].dead {
			cnt++
		}
	}
	return cnt
}

// MergeNodes merges node b into node a and returns a. The id of b is retired.
//
func (s *Simulator) MergeNodes(a, b Node) Node {
	na, nb := s.checkNode(a), s.checkNode(b)
	if a == b {
		return a
	}
	oldA, oldB := na.value, nb.value
	split := len(na.pins)
	for _, p := range nb.pins {
		s.pins[p].node = a
	}
	na.pins = append(na.pins, nb.pins...)
	nb.pins = nil
	nb.dead = true

	v := s.resolve(na)
	na.value = v
	if v == Error && (oldA != Error || oldB != Error) {
		s.conflict(a)
	}
	if v != oldA {
		s.notify(na.pins[:split])
	}
	if v != oldB {
		s.notify(na.pins[split:])
	}
	s.orderStale = true
	return a
}

// ConnectPins merges the nodes of two pins.
//
func (s *Simulator) ConnectPins(a, b Pin) {
	s.MergeNodes(s.PinNode(a), s.PinNode(b))
}

// DisconnectPin moves a pin out of its node into a new node of its own.
//
func (s *Simulator) DisconnectPin(p Pin) {
	n := s.PinNode(p)
	nd := &s.nodes[n]
	if len(nd.pins) == 1 {
		return
	}
	old := nd.value
	removePin(nd, p)
	s.updateNode(n)
	nn := s.newNode(p)
	if s.nodes[nn].value != old {
		s.notify(s.nodes[nn].pins)
	}
}

func removePin(nd *simNode, p Pin) {
	for i, x := range nd.pins {
		if x == p {
			nd.pins = append(nd.pins[:i], nd.pins[i+1:]...)
			return
		}
	}
}

// release removes pins and components from the simulation. Nodes left without
// pins are retired, others are re-resolved.
//
func (s *Simulator) release(pins []Pin, comps []int32) {
	for _, c := range comps {
		s.comps[c].dead = true
	}
	touched := make(map[Node]struct{})
	for _, p := range pins {
		sp := &s.pins[p]
		if sp.dead {
			continue
		}
		sp.dead = true
		touched[sp.node] = struct{}{}
	}
	for n := range touched {
		nd := &s.nodes[n]
		k := 0
		for _, p := range nd.pins {
			if !s.pins[p].dead {
				nd.pins[k] = p
				k++
			}
		}
		nd.pins = nd.pins[:k]
		if k == 0 {
			nd.dead = true
			continue
		}
		s.updateNode(n)
	}
	s.orderStale = true
}

// ensureOrder ranks components for evaluation: by priority, then by distance
// from the primary inputs of the circuit, then by creation order. Components
// only reachable through feedback loops are ranked last within their priority.
//
func (s *Simulator) ensureOrder() {
	if !s.orderStale {
		return
	}
	s.orderStale = false

	driven := make([]bool, len(s.nodes))
	for i := range s.pins {
		if sp := &s.pins[i]; !sp.dead && sp.comp >= 0 && sp.kind == pinOutput {
			driven[sp.node] = true
		}
	}

	level := make([]int, len(s.comps))
	var queue []int32
	for i := range s.comps {
		level[i] = -1
		sc := &s.comps[i]
		if sc.dead {
			continue
		}
		src := true
		for j := 0; j < sc.nIn+sc.nOut+sc.nCtl && src; j++ {
			sp := &s.pins[sc.base+Pin(j)]
			src = !sp.kind.reads() || !driven[sp.node]
		}
		if src {
			level[i] = 0
			queue = append(queue, int32(i))
		}
	}
	maxLevel := 0
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		sc := &s.comps[c]
		for j := 0; j < sc.nOut; j++ {
			for _, p := range s.nodes[s.pins[sc.output(j)].node].pins {
				sp := &s.pins[p]
				if !sp.kind.reads() || sp.comp < 0 || level[sp.comp] >= 0 {
					continue
				}
				level[sp.comp] = level[c] + 1
				if level[sp.comp] > maxLevel {
					maxLevel = level[sp.comp]
				}
				queue = append(queue, sp.comp)
			}
		}
	}

	order := make([]int, 0, len(s.comps))
	for i := range s.comps {
		if s.comps[i].dead {
			continue
		}
		if level[i] < 0 {
			level[i] = maxLevel + 1
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := &s.comps[order[i]], &s.comps[order[j]]
		if ci.priority != cj.priority {
			return ci.priority < cj.priority
		}
		return level[order[i]] < level[order[j]]
	})
	for r, i := range order {
		s.comps[i].rank = r
	}
}
