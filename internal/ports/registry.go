package ports

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midiports/internal/midi/codec"
	"github.com/leandrodaf/midiports/sdk/contracts"
	"go.uber.org/multierr"
)

// DefaultMessageBufferSize is the size of the buffer reused for every fetch.
const DefaultMessageBufferSize = 32

// Registry keeps the open input and output ports in sync with the device
// topology. It is driven by Tick and is not safe for concurrent use.
type Registry struct {
	backend    contracts.Backend
	logger     contracts.Logger
	dispatcher *codec.Dispatcher
	excluded   []string
	allOff     []uint8
	buf        []byte

	managed map[contracts.Mode]bool
	inputs  *PortSet
	outputs *PortSet

	closeOnce sync.Once
	closed    bool
}

// NewRegistry creates a registry over backend. No port is opened until the
// first Tick. options must have a Logger.
func NewRegistry(backend contracts.Backend, options *contracts.ClientOptions) *Registry {
	bufSize := options.MessageBufferSize
	if bufSize <= 0 {
		bufSize = DefaultMessageBufferSize
	}
	excluded := options.ExcludedPortNames
	if !options.ExcludedPortNamesSet() && len(excluded) == 0 {
		excluded = DefaultExcludedPortNames
	}
	modes := options.Modes
	if len(modes) == 0 {
		modes = []contracts.Mode{contracts.Input, contracts.Output}
	}
	managed := make(map[contracts.Mode]bool, len(modes))
	for _, m := range modes {
		managed[m] = true
	}

	return &Registry{
		backend:    backend,
		logger:     options.Logger,
		dispatcher: codec.NewDispatcher(options.Handlers, options.MIDIEventFilter),
		excluded:   excluded,
		allOff:     options.AllOffChannels,
		buf:        make([]byte, bufSize),
		managed:    managed,
		inputs:     NewPortSet(contracts.Input),
		outputs:    NewPortSet(contracts.Output),
	}
}

// CurrentDeviceCount asks the backend for the live device count of mode.
func (r *Registry) CurrentDeviceCount(mode contracts.Mode) (int, error) {
	return r.backend.PortCount(mode)
}

// NeedsRescan reports whether the live device count differs from the size of
// known. A failing count is treated as unchanged so working ports survive a
// transient enumeration error.
func (r *Registry) NeedsRescan(known *PortSet, mode contracts.Mode) bool {
	count, err := r.CurrentDeviceCount(mode)
	if err != nil {
		r.logger.Warn("Failed to count MIDI ports",
			r.logger.Field().String("mode", mode.String()),
			r.logger.Field().Error("error", err))
		return false
	}
	return count != known.Len()
}

// Scan enumerates mode and opens every real device. Filtered devices and
// devices that fail to open leave a nil slot; the scan always continues.
func (r *Registry) Scan(mode contracts.Mode) *PortSet {
	set := NewPortSet(mode)

	count, err := r.CurrentDeviceCount(mode)
	if err != nil {
		r.logger.Warn("Failed to count MIDI ports",
			r.logger.Field().String("mode", mode.String()),
			r.logger.Field().Error("error", err))
		return set
	}

	set.slots = make([]Port, count)
	for i := 0; i < count; i++ {
		name, err := r.backend.PortName(mode, i)
		if err != nil {
			r.logger.Warn("Failed to read MIDI port name",
				r.logger.Field().String("mode", mode.String()),
				r.logger.Field().Int("index", i),
				r.logger.Field().Error("error", err))
			continue
		}

		isReal := IsRealPort(name, r.excluded)
		r.logger.Info("MIDI port found",
			r.logger.Field().String("mode", mode.String()),
			r.logger.Field().Int("index", i),
			r.logger.Field().String("name", name),
			r.logger.Field().Bool("real", isReal))
		if !isReal {
			r.logger.Debug("Skipping virtual MIDI port", r.logger.Field().String("name", name))
			continue
		}

		info := contracts.PortInfo{Mode: mode, Index: i, Name: name}
		port, err := r.open(info)
		if err != nil {
			r.logger.Warn("Failed to open MIDI port", r.logger.Field().Error("error", err))
			continue
		}
		set.slots[i] = port
	}
	return set
}

func (r *Registry) open(info contracts.PortInfo) (Port, error) {
	switch info.Mode {
	case contracts.Input:
		h, err := r.backend.OpenInput(info.Index)
		if err != nil {
			return nil, fmt.Errorf("%w: in port %d (%s): %v", ErrPortOpen, info.Index, info.Name, err)
		}
		return newInputPort(info, h, r.buf, r.dispatcher, r.logger), nil
	case contracts.Output:
		h, err := r.backend.OpenOutput(info.Index)
		if err != nil {
			return nil, fmt.Errorf("%w: out port %d (%s): %v", ErrPortOpen, info.Index, info.Name, err)
		}
		out := newOutputPort(info, h)
		for _, ch := range r.allOff {
			if err := out.SendAllOff(ch); err != nil {
				r.logger.Warn("Failed to send all-sound-off",
					r.logger.Field().String("name", info.Name),
					r.logger.Field().Uint8("channel", ch),
					r.logger.Field().Error("error", err))
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %s", ErrPortOpen, info.Mode)
	}
}

// CloseAll closes every port in set and empties it. Close failures are
// logged and never returned.
func (r *Registry) CloseAll(set *PortSet) {
	if err := closeSet(set); err != nil {
		r.logger.Warn("Failed to close MIDI ports", r.logger.Field().Error("error", err))
	}
}

func closeSet(set *PortSet) error {
	if set == nil {
		return nil
	}
	var err error
	for _, p := range set.slots {
		if p != nil {
			err = multierr.Append(err, p.Close())
		}
	}
	set.slots = nil
	return err
}

// RescanIfNeeded returns known untouched when the device count is unchanged;
// otherwise it closes known and returns a fresh scan.
func (r *Registry) RescanIfNeeded(known *PortSet, mode contracts.Mode) *PortSet {
	if !r.NeedsRescan(known, mode) {
		return known
	}
	previous := known.Len()
	r.CloseAll(known)
	set := r.Scan(mode)
	r.logger.Info("MIDI ports rescanned",
		r.logger.Field().String("mode", mode.String()),
		r.logger.Field().Int("previous", previous),
		r.logger.Field().Int("current", set.Len()),
		r.logger.Field().Int("open", set.Open()))
	return set
}

// Tick rescans each managed mode independently and then drains every open
// input. Draining comes last so handlers that forward to outputs see the
// current output set.
func (r *Registry) Tick() {
	if r.closed {
		return
	}
	if r.managed[contracts.Input] {
		r.inputs = r.RescanIfNeeded(r.inputs, contracts.Input)
	}
	if r.managed[contracts.Output] {
		r.outputs = r.RescanIfNeeded(r.outputs, contracts.Output)
	}
	for _, p := range r.inputs.slots {
		if r.closed {
			return
		}
		if in, ok := p.(*InputPort); ok {
			in.ProcessMessages()
		}
	}
}

// InputSet returns the current input set.
func (r *Registry) InputSet() *PortSet {
	return r.inputs
}

// OutputSet returns the current output set.
func (r *Registry) OutputSet() *PortSet {
	return r.outputs
}

// Inputs returns the input slots of the last scan.
func (r *Registry) Inputs() []contracts.InputPort {
	return r.inputs.Inputs()
}

// Outputs returns the output slots of the last scan.
func (r *Registry) Outputs() []contracts.OutputPort {
	return r.outputs.Outputs()
}

// Output returns the output at index, or false if that slot is empty.
func (r *Registry) Output(index int) (contracts.OutputPort, bool) {
	out, ok := r.outputs.Slot(index).(*OutputPort)
	if !ok {
		return nil, false
	}
	return out, true
}

// SetHandlers replaces the handlers of every current and future input.
func (r *Registry) SetHandlers(h contracts.Handlers) {
	r.dispatcher.SetHandlers(h)
}

// Close releases every port and then the backend. Later calls return nil.
func (r *Registry) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed = true
		err = multierr.Combine(closeSet(r.inputs), closeSet(r.outputs), r.backend.Close())
		if err != nil {
			r.logger.Warn("Errors while closing MIDI registry", r.logger.Field().Error("error", err))
		}
		r.logger.Info("MIDI registry closed")
	})
	return err
}
