package contracts

// RawMessage is one message drained from an input port.
type RawMessage struct {
	Timestamp float64 // Seconds, as reported by the backend.
	Data      []byte  // Status byte followed by data bytes.
}

// Event is a decoded MIDI message. It is one of NoteOn, NoteOff or ControlChange.
type Event interface {
	Command() MIDICommand
}

// NoteOn is a key press with a non-zero velocity.
type NoteOn struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// NoteOff is a key release. Note-on with zero velocity decodes to NoteOff too.
type NoteOff struct {
	Channel uint8
	Note    uint8
}

// ControlChange carries a controller number and its new value.
type ControlChange struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

// Command returns CommandNoteOn.
func (NoteOn) Command() MIDICommand { return CommandNoteOn }

// Command returns CommandNoteOff.
func (NoteOff) Command() MIDICommand { return CommandNoteOff }

// Command returns CommandControlChange.
func (ControlChange) Command() MIDICommand { return CommandControlChange }

// Handlers receive decoded events, synchronously, on the goroutine that drains
// the port. Nil handlers are skipped. A slow handler delays the rest of the tick.
type Handlers struct {
	OnNoteOn        func(src PortInfo, ev NoteOn)
	OnNoteOff       func(src PortInfo, ev NoteOff)
	OnControlChange func(src PortInfo, ev ControlChange)
}

// InputPort is an open input device slot.
type InputPort interface {
	Info() PortInfo
	// ProcessMessages drains every pending message and dispatches it.
	ProcessMessages()
	Close() error
}

// OutputPort is an open output device slot.
type OutputPort interface {
	Info() PortInfo
	SendAllOff(channel uint8) error
	SendNoteOn(channel, note, velocity uint8) error
	SendNoteOff(channel, note uint8) error
	SendControlChange(channel, controller, value uint8) error
	Close() error
}

// Registry keeps open ports in sync with the device topology.
type Registry interface {
	// Tick rescans every managed mode whose device count changed and then
	// drains all open inputs. The host decides the cadence.
	Tick()
	// Inputs returns the input slots of the last scan; filtered or failed
	// slots are nil.
	Inputs() []InputPort
	// Outputs returns the output slots of the last scan; filtered or failed
	// slots are nil.
	Outputs() []OutputPort
	// Output returns the output at index, or false if the slot is empty.
	Output(index int) (OutputPort, bool)
	// SetHandlers replaces the handlers used by every input, including
	// ports opened by later scans.
	SetHandlers(h Handlers)
	// Close releases every port and the backend. Later calls are no-ops.
	Close() error
}
