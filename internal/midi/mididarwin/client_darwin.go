//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"time"

	"github.com/leandrodaf/midiports/internal/midi/queue"
	"github.com/leandrodaf/midiports/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI port handling.
var (
	ErrNoSuchPort          = errors.New("no such MIDI port")
	ErrUnknownMode         = errors.New("unknown port mode")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrCreateOutputPort    = errors.New("error creating output port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Backend enumerates CoreMIDI sources (inputs) and destinations (outputs).
// One client is shared by every port it opens.
type Backend struct {
	logger    contracts.Logger
	client    coremidi.Client
	queueSize int
}

// NewBackend creates the CoreMIDI client named in options.CoreMIDIConfig.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI client successfully created",
		options.Logger.Field().String("client", options.CoreMIDIConfig.ClientName))

	return &Backend{logger: options.Logger, client: client, queueSize: options.QueueSize}, nil
}

// PortCount returns the number of sources or destinations.
func (b *Backend) PortCount(mode contracts.Mode) (int, error) {
	switch mode {
	case contracts.Input:
		sources, err := coremidi.AllSources()
		if err != nil {
			return 0, fmt.Errorf("error listing MIDI sources: %w", err)
		}
		return len(sources), nil
	case contracts.Output:
		dests, err := coremidi.AllDestinations()
		if err != nil {
			return 0, fmt.Errorf("error listing MIDI destinations: %w", err)
		}
		return len(dests), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

// PortName returns the endpoint name.
func (b *Backend) PortName(mode contracts.Mode, index int) (string, error) {
	switch mode {
	case contracts.Input:
		source, err := sourceAt(index)
		if err != nil {
			return "", err
		}
		return source.Name(), nil
	case contracts.Output:
		dest, err := destinationAt(index)
		if err != nil {
			return "", err
		}
		return dest.Name(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

func sourceAt(index int) (coremidi.Source, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return coremidi.Source{}, fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if index < 0 || index >= len(sources) {
		return coremidi.Source{}, fmt.Errorf("%w: source %d", ErrNoSuchPort, index)
	}
	return sources[index], nil
}

func destinationAt(index int) (coremidi.Destination, error) {
	dests, err := coremidi.AllDestinations()
	if err != nil {
		return coremidi.Destination{}, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if index < 0 || index >= len(dests) {
		return coremidi.Destination{}, fmt.Errorf("%w: destination %d", ErrNoSuchPort, index)
	}
	return dests[index], nil
}

// OpenInput connects a new input port to source index. CoreMIDI delivers
// packets on its own thread; they wait in a queue until fetched.
func (b *Backend) OpenInput(index int) (contracts.InputHandle, error) {
	source, err := sourceAt(index)
	if err != nil {
		return nil, err
	}

	h := &inputHandle{queue: queue.New(b.queueSize), opened: time.Now()}
	port, err := coremidi.NewInputPort(b.client, "Input Port", func(_ coremidi.Source, packet coremidi.Packet) {
		if !h.queue.Push(packet.Data, time.Since(h.opened).Seconds()) {
			b.logger.Warn("Event buffer full; dropping MIDI event",
				b.logger.Field().String("port", source.Name()))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	h.conn, err = port.Connect(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	return h, nil
}

// OpenOutput creates an output port bound to destination index.
func (b *Backend) OpenOutput(index int) (contracts.OutputHandle, error) {
	dest, err := destinationAt(index)
	if err != nil {
		return nil, err
	}
	port, err := coremidi.NewOutputPort(b.client, "Output Port")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	return &outputHandle{port: port, dest: dest}, nil
}

// Close is a no-op; the CoreMIDI client lives as long as the process.
func (b *Backend) Close() error {
	return nil
}

type inputHandle struct {
	queue  *queue.Queue
	conn   internalPortConnection
	opened time.Time
}

func (h *inputHandle) Fetch(buf []byte) (int, float64) {
	return h.queue.Fetch(buf)
}

func (h *inputHandle) Close() error {
	if h.conn != nil {
		h.conn.Disconnect()
		h.conn = nil
	}
	h.queue.Close()
	return nil
}

type outputHandle struct {
	port coremidi.OutputPort
	dest coremidi.Destination
}

func (h *outputHandle) Send(msg []byte) error {
	packet := coremidi.NewPacket(msg, 0)
	return packet.Send(&h.port, &h.dest)
}

// Close is a no-op; output ports hold no connection.
func (h *outputHandle) Close() error {
	return nil
}
