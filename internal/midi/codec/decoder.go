package codec

import (
	"github.com/leandrodaf/midiports/sdk/contracts"
)

const dataMask = 0x7F

// Decode turns one raw message into an event. It reports false for empty
// buffers, statuses other than note on, note off and control change, and
// buffers too short to carry the data bytes their status needs. buf is not
// modified.
func Decode(buf []byte) (contracts.Event, bool) {
	if len(buf) == 0 {
		return nil, false
	}

	status := contracts.MIDICommand(buf[0] & 0xF0)
	channel := buf[0] & 0x0F

	switch status {
	case contracts.CommandNoteOn:
		if len(buf) < 3 {
			return nil, false
		}
		if buf[2]&dataMask > 0 {
			return contracts.NoteOn{Channel: channel, Note: buf[1] & dataMask, Velocity: buf[2] & dataMask}, true
		}
		return contracts.NoteOff{Channel: channel, Note: buf[1] & dataMask}, true
	case contracts.CommandNoteOff:
		if len(buf) < 2 {
			return nil, false
		}
		return contracts.NoteOff{Channel: channel, Note: buf[1] & dataMask}, true
	case contracts.CommandControlChange:
		if len(buf) < 3 {
			return nil, false
		}
		return contracts.ControlChange{Channel: channel, Controller: buf[1] & dataMask, Value: buf[2] & dataMask}, true
	}
	return nil, false
}

// Dispatcher routes decoded events to the registered handlers.
type Dispatcher struct {
	handlers contracts.Handlers
	filter   *contracts.MIDIEventFilter
}

// NewDispatcher creates a dispatcher. filter may be nil.
func NewDispatcher(h contracts.Handlers, filter *contracts.MIDIEventFilter) *Dispatcher {
	return &Dispatcher{handlers: h, filter: filter}
}

// SetHandlers replaces the handlers.
func (d *Dispatcher) SetHandlers(h contracts.Handlers) {
	d.handlers = h
}

// Allows reports whether the filter lets ev through.
func (d *Dispatcher) Allows(ev contracts.Event) bool {
	return ev != nil && d.filter.Allows(ev.Command())
}

// Dispatch calls the handler registered for ev's kind. It reports whether a
// handler ran; a missing handler or a filtered kind is not an error.
func (d *Dispatcher) Dispatch(src contracts.PortInfo, ev contracts.Event) bool {
	if !d.Allows(ev) {
		return false
	}

	switch e := ev.(type) {
	case contracts.NoteOn:
		if d.handlers.OnNoteOn != nil {
			d.handlers.OnNoteOn(src, e)
			return true
		}
	case contracts.NoteOff:
		if d.handlers.OnNoteOff != nil {
			d.handlers.OnNoteOff(src, e)
			return true
		}
	case contracts.ControlChange:
		if d.handlers.OnControlChange != nil {
			d.handlers.OnControlChange(src, e)
			return true
		}
	}
	return false
}
