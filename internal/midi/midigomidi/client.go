// Package midigomidi exposes any gomidi driver as a port backend. The
// loopback backend built on testdrv needs no hardware.
package midigomidi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midiports/internal/midi/queue"
	"github.com/leandrodaf/midiports/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/testdrv"
)

// Error definitions for the gomidi backend.
var (
	ErrNoSuchPort  = errors.New("no such MIDI port")
	ErrUnknownMode = errors.New("unknown port mode")
)

// Backend adapts a gomidi drivers.Driver.
type Backend struct {
	drv       drivers.Driver
	logger    contracts.Logger
	queueSize int
	closeOnce sync.Once
}

// New wraps drv. The backend owns drv and closes it on Close.
func New(drv drivers.Driver, options *contracts.ClientOptions) *Backend {
	return &Backend{drv: drv, logger: options.Logger, queueSize: options.QueueSize}
}

// NewLoopback creates a backend with one input and one output; whatever is
// sent to the output arrives on the input.
func NewLoopback(options *contracts.ClientOptions) (contracts.Backend, error) {
	name := "loopback"
	if options.CoreMIDIConfig != nil && options.CoreMIDIConfig.ClientName != "" {
		name = options.CoreMIDIConfig.ClientName
	}
	options.Logger.Info("Using loopback MIDI backend", options.Logger.Field().String("name", name))
	return New(testdrv.New(name), options), nil
}

// PortCount returns the number of ins or outs the driver reports.
func (b *Backend) PortCount(mode contracts.Mode) (int, error) {
	switch mode {
	case contracts.Input:
		ins, err := b.drv.Ins()
		return len(ins), err
	case contracts.Output:
		outs, err := b.drv.Outs()
		return len(outs), err
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

// PortName returns the driver's name for the port.
func (b *Backend) PortName(mode contracts.Mode, index int) (string, error) {
	switch mode {
	case contracts.Input:
		in, err := b.in(index)
		if err != nil {
			return "", err
		}
		return in.String(), nil
	case contracts.Output:
		out, err := b.out(index)
		if err != nil {
			return "", err
		}
		return out.String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

func (b *Backend) in(index int) (drivers.In, error) {
	ins, err := b.drv.Ins()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ins) {
		return nil, fmt.Errorf("%w: in %d", ErrNoSuchPort, index)
	}
	return ins[index], nil
}

func (b *Backend) out(index int) (drivers.Out, error) {
	outs, err := b.drv.Outs()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(outs) {
		return nil, fmt.Errorf("%w: out %d", ErrNoSuchPort, index)
	}
	return outs[index], nil
}

// OpenInput opens the port and starts queueing what its listener receives.
func (b *Backend) OpenInput(index int) (contracts.InputHandle, error) {
	in, err := b.in(index)
	if err != nil {
		return nil, err
	}
	if err := in.Open(); err != nil {
		return nil, err
	}

	h := &inputHandle{port: in, queue: queue.New(b.queueSize)}
	stop, err := in.Listen(func(msg []byte, milliseconds int32) {
		if !h.queue.Push(msg, float64(milliseconds)/1000) {
			b.logger.Warn("Event buffer full; dropping MIDI event",
				b.logger.Field().String("port", in.String()))
		}
	}, drivers.ListenConfig{})
	if err != nil {
		_ = in.Close()
		return nil, err
	}
	h.stop = stop
	return h, nil
}

// OpenOutput opens the port for sending.
func (b *Backend) OpenOutput(index int) (contracts.OutputHandle, error) {
	out, err := b.out(index)
	if err != nil {
		return nil, err
	}
	if err := out.Open(); err != nil {
		return nil, err
	}
	return &outputHandle{port: out}, nil
}

// Close closes the driver.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.drv.Close()
	})
	return err
}

type inputHandle struct {
	port  drivers.In
	queue *queue.Queue
	stop  func()
}

func (h *inputHandle) Fetch(buf []byte) (int, float64) {
	return h.queue.Fetch(buf)
}

func (h *inputHandle) Close() error {
	if h.stop != nil {
		h.stop()
	}
	h.queue.Close()
	return h.port.Close()
}

type outputHandle struct {
	port drivers.Out
}

func (h *outputHandle) Send(msg []byte) error {
	return h.port.Send(msg)
}

func (h *outputHandle) Close() error {
	return h.port.Close()
}
