package contracts

import "fmt"

// Mode selects which side of the MIDI subsystem a port belongs to.
type Mode int

const (
	// Input ports receive messages from a device.
	Input Mode = iota
	// Output ports send messages to a device.
	Output
)

// String returns "in" or "out".
func (m Mode) String() string {
	switch m {
	case Input:
		return "in"
	case Output:
		return "out"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// PortInfo describes a device found during enumeration.
type PortInfo struct {
	Mode  Mode   // Side of the subsystem the device was enumerated on.
	Index int    // Enumeration index; stable only until the next rescan.
	Name  string // Device name as reported by the backend.
}
