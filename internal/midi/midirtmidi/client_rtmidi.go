//go:build cgo
// +build cgo

package midirtmidi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midiports/sdk/contracts"
	"github.com/mattrtaylor/go-rtmidi"
	"go.uber.org/multierr"
)

// Client names RtMidi registers for the ports it opens. They show up in
// enumeration on some platforms, which is why "RtMidi" is filtered by default.
const (
	inClientName  = "RtMidi In"
	outClientName = "RtMidi Out"
)

// Error definitions for the RtMidi backend.
var (
	ErrCreateProbe = errors.New("error creating RtMidi probe")
	ErrUnknownMode = errors.New("unknown port mode")
)

// Backend enumerates with one long-lived probe per mode and opens a fresh
// RtMidi instance for every port.
type Backend struct {
	logger   contracts.Logger
	inProbe  rtmidi.MIDIIn
	outProbe rtmidi.MIDIOut
	mu       sync.Mutex
	closed   bool
}

// NewBackend creates the probes.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	in, err := rtmidi.NewMIDIInDefault()
	if err != nil {
		return nil, fmt.Errorf("%w: in: %v", ErrCreateProbe, err)
	}
	out, err := rtmidi.NewMIDIOutDefault()
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("%w: out: %v", ErrCreateProbe, err)
	}
	options.Logger.Info("RtMidi backend created")
	return &Backend{logger: options.Logger, inProbe: in, outProbe: out}, nil
}

func (b *Backend) probe(mode contracts.Mode) (rtmidi.MIDI, error) {
	switch mode {
	case contracts.Input:
		return b.inProbe, nil
	case contracts.Output:
		return b.outProbe, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

// PortCount asks the probe of mode.
func (b *Backend) PortCount(mode contracts.Mode) (int, error) {
	p, err := b.probe(mode)
	if err != nil {
		return 0, err
	}
	return p.PortCount()
}

// PortName asks the probe of mode.
func (b *Backend) PortName(mode contracts.Mode, index int) (string, error) {
	p, err := b.probe(mode)
	if err != nil {
		return "", err
	}
	return p.PortName(index)
}

// OpenInput opens port index on a new RtMidi input. Messages stay in
// RtMidi's own queue until fetched.
func (b *Backend) OpenInput(index int) (contracts.InputHandle, error) {
	in, err := rtmidi.NewMIDIInDefault()
	if err != nil {
		return nil, err
	}
	if err := in.OpenPort(index, inClientName); err != nil {
		_ = in.Close()
		return nil, err
	}
	return &inputHandle{in: in}, nil
}

// OpenOutput opens port index on a new RtMidi output.
func (b *Backend) OpenOutput(index int) (contracts.OutputHandle, error) {
	out, err := rtmidi.NewMIDIOutDefault()
	if err != nil {
		return nil, err
	}
	if err := out.OpenPort(index, outClientName); err != nil {
		_ = out.Close()
		return nil, err
	}
	return &outputHandle{out: out}, nil
}

// Close releases the probes. Close on an RtMidi instance also frees it.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return multierr.Combine(b.inProbe.Close(), b.outProbe.Close())
}

type inputHandle struct {
	in rtmidi.MIDIIn
}

// Fetch reads RtMidi's queue directly. A failed read reports timestamp -1.
// The binding only exposes Message, which allocates its own scratch slice on
// every call, so buf is reused on the Go side only.
func (h *inputHandle) Fetch(buf []byte) (int, float64) {
	msg, stamp, err := h.in.Message()
	if err != nil {
		return 0, -1
	}
	return copy(buf, msg), stamp
}

func (h *inputHandle) Close() error {
	return h.in.Close()
}

type outputHandle struct {
	out rtmidi.MIDIOut
}

func (h *outputHandle) Send(msg []byte) error {
	return h.out.SendMessage(msg)
}

func (h *outputHandle) Close() error {
	return h.out.Close()
}
