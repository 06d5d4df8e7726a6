// Package lifecycle models the worker side's install/activate state
// machine: Registered -> Installing -> Installed(Waiting) -> Activating ->
// Activated(Controlling) -> Redundant. A new worker always force-skips the
// waiting step so the newest code is the one handling the next message.
package lifecycle

import (
	"fmt"
	"sync"
)

// State is one stage of the worker lifecycle.
type State int

const (
	Registered State = iota
	Installing
	InstalledWaiting
	Activating
	ActivatedControlling
	Redundant
)

func (s State) String() string {
	switch s {
	case Registered:
		return "Registered"
	case Installing:
		return "Installing"
	case InstalledWaiting:
		return "Installed(Waiting)"
	case Activating:
		return "Activating"
	case ActivatedControlling:
		return "Activated(Controlling)"
	case Redundant:
		return "Redundant"
	default:
		return "Unknown"
	}
}

// legalTransitions enumerates every allowed State -> State edge. Any
// transition not listed here is rejected, so a bug that skips a lifecycle
// stage fails loudly instead of silently controlling the page early.
var legalTransitions = map[State][]State{
	Registered:           {Installing},
	Installing:           {InstalledWaiting, Redundant},
	InstalledWaiting:     {Activating, Redundant},
	Activating:           {ActivatedControlling, Redundant},
	ActivatedControlling: {Redundant},
	Redundant:            nil,
}

// ErrIllegalTransition is returned when a caller requests a transition not
// present in legalTransitions.
type ErrIllegalTransition struct {
	From, To State
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("lifecycle: illegal transition %s -> %s", e.From, e.To)
}

// Machine is a single worker instance's lifecycle state, force-skip-waiting
// by default: Transition permits InstalledWaiting -> Activating directly,
// without an external "all clients closed" gate.
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine creates a Machine starting at Registered.
func NewMachine() *Machine {
	return &Machine{state: Registered}
}

// State returns the current lifecycle stage.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Transition moves the machine to to, rejecting any edge not present in
// legalTransitions.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range legalTransitions[m.state] {
		if allowed == to {
			m.state = to

			return nil
		}
	}

	return &ErrIllegalTransition{From: m.state, To: to}
}

// IsControlling reports whether this worker is the one the page should
// trust to handle messages and intercepted requests.
func (m *Machine) IsControlling() bool {
	return m.State() == ActivatedControlling
}
