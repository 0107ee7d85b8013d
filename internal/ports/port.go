package ports

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/leandrodaf/midiports/internal/midi/codec"
	"github.com/leandrodaf/midiports/sdk/contracts"
)

// Error definitions for port handling.
var (
	ErrPortOpen       = errors.New("error opening MIDI port")
	ErrPortClose      = errors.New("error closing MIDI port")
	ErrPortClosed     = errors.New("MIDI port is closed")
	ErrInvalidChannel = errors.New("MIDI channel out of range")
)

// DefaultExcludedPortNames matches the loopback ports ALSA creates ("Midi
// Through") and the client ports RtMidi opens for itself.
var DefaultExcludedPortNames = []string{"Through", "RtMidi"}

// IsRealPort reports whether name contains none of the excluded substrings.
// Matching is case-sensitive.
func IsRealPort(name string, excluded []string) bool {
	for _, s := range excluded {
		if s != "" && strings.Contains(name, s) {
			return false
		}
	}
	return true
}

// Port is a slot in a PortSet.
type Port interface {
	Info() contracts.PortInfo
	Close() error
}

// closer releases a native handle once.
type closer struct {
	once sync.Once
	done bool
}

func (c *closer) close(info contracts.PortInfo, fn func() error) error {
	var err error
	c.once.Do(func() {
		c.done = true
		if cerr := fn(); cerr != nil {
			err = fmt.Errorf("%w: %s port %d (%s): %v", ErrPortClose, info.Mode, info.Index, info.Name, cerr)
		}
	})
	return err
}

// InputPort owns one open input handle and dispatches what it drains.
type InputPort struct {
	info       contracts.PortInfo
	handle     contracts.InputHandle
	buf        []byte
	dispatcher *codec.Dispatcher
	logger     contracts.Logger
	closer     closer
}

func newInputPort(info contracts.PortInfo, h contracts.InputHandle, buf []byte, d *codec.Dispatcher, log contracts.Logger) *InputPort {
	return &InputPort{info: info, handle: h, buf: buf, dispatcher: d, logger: log}
}

// Info returns the enumeration data the port was opened with.
func (p *InputPort) Info() contracts.PortInfo {
	return p.info
}

// ProcessMessages drains the native queue, decoding and dispatching each
// message, until it is empty, a fetch fails or a handler closes the port.
func (p *InputPort) ProcessMessages() {
	if p.closer.done {
		return
	}
	codec.Drain(p.handle, p.buf, func(msg contracts.RawMessage) bool {
		ev, ok := codec.Decode(msg.Data)
		if !ok {
			p.logger.Debug("MIDI message ignored",
				p.logger.Field().String("port", p.info.Name),
				p.logger.Field().Uint8("status", msg.Data[0]))
			return true
		}
		if !p.dispatcher.Allows(ev) {
			p.logger.Debug("MIDI event filtered",
				p.logger.Field().String("port", p.info.Name),
				p.logger.Field().Uint8("command", uint8(ev.Command())))
			return true
		}
		p.dispatcher.Dispatch(p.info, ev)
		return !p.closer.done
	})
}

// Close releases the native handle. Only the first call does anything.
func (p *InputPort) Close() error {
	return p.closer.close(p.info, p.handle.Close)
}

// OutputPort owns one open output handle.
type OutputPort struct {
	info   contracts.PortInfo
	handle contracts.OutputHandle
	closer closer
}

func newOutputPort(info contracts.PortInfo, h contracts.OutputHandle) *OutputPort {
	return &OutputPort{info: info, handle: h}
}

// Info returns the enumeration data the port was opened with.
func (p *OutputPort) Info() contracts.PortInfo {
	return p.info
}

// SendAllOff sends all-sound-off (CC 120, value 0) on channel.
func (p *OutputPort) SendAllOff(channel uint8) error {
	if channel > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return p.send(codec.EncodeAllSoundOff(channel))
}

// SendNoteOn sends a note on.
func (p *OutputPort) SendNoteOn(channel, note, velocity uint8) error {
	if channel > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return p.send(codec.EncodeNoteOn(channel, note, velocity))
}

// SendNoteOff sends a note off using the 0x8n status.
func (p *OutputPort) SendNoteOff(channel, note uint8) error {
	if channel > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return p.send(codec.EncodeNoteOff(channel, note))
}

// SendControlChange sends a control change.
func (p *OutputPort) SendControlChange(channel, controller, value uint8) error {
	if channel > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return p.send(codec.EncodeControlChange(channel, controller, value))
}

func (p *OutputPort) send(msg []byte) error {
	if p.closer.done {
		return ErrPortClosed
	}
	if err := p.handle.Send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", p.info.Name, err)
	}
	return nil
}

// Close releases the native handle. Only the first call does anything.
func (p *OutputPort) Close() error {
	return p.closer.close(p.info, p.handle.Close)
}
