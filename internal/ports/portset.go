package ports

import (
	"github.com/leandrodaf/midiports/sdk/contracts"
)

// PortSet holds the result of one scan: one slot per enumerated device in
// enumeration order. Slots for filtered devices or failed opens are nil. A
// nil *PortSet behaves as an empty set.
type PortSet struct {
	mode  contracts.Mode
	slots []Port
}

// NewPortSet creates an empty set for mode.
func NewPortSet(mode contracts.Mode) *PortSet {
	return &PortSet{mode: mode}
}

// Mode returns the side of the subsystem the set was scanned from, or the
// zero Mode for a nil set.
func (s *PortSet) Mode() contracts.Mode {
	if s == nil {
		return 0
	}
	return s.mode
}

// Len returns the device count seen at scan time.
func (s *PortSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.slots)
}

// Slot returns the port at index, or nil.
func (s *PortSet) Slot(index int) Port {
	if s == nil || index < 0 || index >= len(s.slots) {
		return nil
	}
	return s.slots[index]
}

// Open returns how many slots hold a port.
func (s *PortSet) Open() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, p := range s.slots {
		if p != nil {
			n++
		}
	}
	return n
}

// Inputs returns the slots as input ports, nil where empty.
func (s *PortSet) Inputs() []contracts.InputPort {
	out := make([]contracts.InputPort, s.Len())
	if s == nil {
		return out
	}
	for i, p := range s.slots {
		if in, ok := p.(*InputPort); ok {
			out[i] = in
		}
	}
	return out
}

// Outputs returns the slots as output ports, nil where empty.
func (s *PortSet) Outputs() []contracts.OutputPort {
	out := make([]contracts.OutputPort, s.Len())
	if s == nil {
		return out
	}
	for i, p := range s.slots {
		if o, ok := p.(*OutputPort); ok {
			out[i] = o
		}
	}
	return out
}
