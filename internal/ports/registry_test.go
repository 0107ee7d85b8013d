package ports

import (
	"errors"
	"testing"

	"github.com/leandrodaf/midiports/internal/logger"
	"github.com/leandrodaf/midiports/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRegistry(t *testing.T, backend contracts.Backend, opts ...contracts.Option) (*Registry, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	options := &contracts.ClientOptions{Logger: logger.NewFromCore(core)}
	for _, opt := range opts {
		opt(options)
	}
	return NewRegistry(backend, options), logs
}

func TestIsRealPort(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"USB MIDI Device", true},
		{"Midi Through Port-0", false},
		{"RtMidi Through Port-0", false},
		{"RtMidi In", false},
		{"Something Through", false},
		{"through lowercase", true},
		{"rtmidi lowercase", true},
		{"", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRealPort(tt.name, DefaultExcludedPortNames), tt.name)
	}
	assert.True(t, IsRealPort("Midi Through Port-0", nil))
}

func TestScanSkipsVirtualPorts(t *testing.T) {
	backend := newFakeBackend(nil, []string{"RtMidi Through Port-0", "USB MIDI Device"})
	r, logs := newTestRegistry(t, backend)

	set := r.Scan(contracts.Output)

	require.Equal(t, 2, set.Len())
	assert.Nil(t, set.Slot(0))
	out, ok := set.Slot(1).(*OutputPort)
	require.True(t, ok)
	assert.Equal(t, contracts.PortInfo{Mode: contracts.Output, Index: 1, Name: "USB MIDI Device"}, out.Info())
	assert.Len(t, backend.outputs, 1)
	assert.Equal(t, 2, logs.FilterMessage("MIDI port found").Len())
}

func TestScanOpenFailureLeavesSlotEmpty(t *testing.T) {
	backend := newFakeBackend([]string{"Keys", "Pads", "Knobs"}, nil)
	backend.failOpen(contracts.Input, 1, errors.New("device busy"))
	r, logs := newTestRegistry(t, backend)

	set := r.Scan(contracts.Input)

	require.Equal(t, 3, set.Len())
	assert.NotNil(t, set.Slot(0))
	assert.Nil(t, set.Slot(1))
	assert.NotNil(t, set.Slot(2))
	assert.Equal(t, 2, set.Open())

	warn := logs.FilterMessage("Failed to open MIDI port").All()
	require.Len(t, warn, 1)
	assert.Contains(t, warn[0].ContextMap()["error"], "device busy")
}

func TestScanSendsAllOffToNewOutputs(t *testing.T) {
	backend := newFakeBackend(nil, []string{"Synth"})
	r, _ := newTestRegistry(t, backend, contracts.WithAllOffChannels(0, 9))

	r.Scan(contracts.Output)

	require.Len(t, backend.outputs, 1)
	assert.Equal(t, [][]byte{{0xB0, 120, 0}, {0xB9, 120, 0}}, backend.outputs[0].sent)
}

func TestRescanIsNoopWithoutTopologyChange(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, []string{"Synth"})
	r, logs := newTestRegistry(t, backend)

	r.Tick()
	r.Tick()

	assert.Len(t, backend.inputs, 1)
	assert.Len(t, backend.outputs, 1)
	assert.Zero(t, backend.inputs[0].closes)
	assert.Zero(t, backend.outputs[0].closes)
	assert.Equal(t, 2, logs.FilterMessage("MIDI ports rescanned").Len())
}

func TestRescanOnTopologyChange(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, nil)
	r, _ := newTestRegistry(t, backend)

	r.Tick()
	first := backend.inputs[0]

	backend.names[contracts.Input] = []string{"Keys", "Pads"}
	r.Tick()

	assert.Equal(t, 1, first.closes)
	require.Len(t, backend.inputs, 3)
	assert.Equal(t, 2, r.InputSet().Len())
	assert.Equal(t, "Pads", r.Inputs()[1].Info().Name)

	backend.names[contracts.Input] = nil
	r.Tick()

	assert.Equal(t, 1, backend.inputs[1].closes)
	assert.Equal(t, 1, backend.inputs[2].closes)
	assert.Zero(t, r.InputSet().Len())
}

func TestRescanToleratesCountErrors(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, nil)
	r, logs := newTestRegistry(t, backend, contracts.WithModes(contracts.Input))

	r.Tick()
	backend.countErr = errors.New("enumeration failed")
	r.Tick()

	assert.Zero(t, backend.inputs[0].closes)
	assert.Equal(t, 1, r.InputSet().Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to count MIDI ports").Len())
}

func TestCloseAllSwallowsErrors(t *testing.T) {
	backend := newFakeBackend([]string{"Keys", "Pads"}, nil)
	r, logs := newTestRegistry(t, backend)
	set := r.Scan(contracts.Input)
	backend.inputs[0].closeErr = errors.New("driver gone")

	r.CloseAll(set)

	assert.Zero(t, set.Len())
	assert.Equal(t, 1, backend.inputs[0].closes)
	assert.Equal(t, 1, backend.inputs[1].closes)
	warn := logs.FilterMessage("Failed to close MIDI ports").All()
	require.Len(t, warn, 1)
	assert.Contains(t, warn[0].ContextMap()["error"], "driver gone")

	r.CloseAll(set)
	assert.Equal(t, 1, backend.inputs[0].closes)
}

func TestPortCloseIsIdempotent(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, []string{"Synth"})
	r, _ := newTestRegistry(t, backend)
	r.Tick()

	in := r.Inputs()[0]
	out, ok := r.Output(0)
	require.True(t, ok)

	backend.outputs[0].closeErr = errors.New("busy")
	err := out.Close()
	assert.ErrorIs(t, err, ErrPortClose)
	assert.NoError(t, out.Close())
	assert.NoError(t, in.Close())
	assert.NoError(t, in.Close())

	assert.Equal(t, 1, backend.inputs[0].closes)
	assert.Equal(t, 1, backend.outputs[0].closes)
	assert.ErrorIs(t, out.SendNoteOn(0, 60, 100), ErrPortClosed)
}

func TestTickDrainsAndDispatches(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, nil)
	backend.pending[0] = []scripted{
		{1, []byte{0x90, 60, 100}},
		{2, []byte{0x80, 60, 0}},
		{-1, nil},
		{3, []byte{0x90, 62, 100}},
	}
	var events []contracts.Event
	var sources []string
	r, _ := newTestRegistry(t, backend, contracts.WithHandlers(contracts.Handlers{
		OnNoteOn: func(src contracts.PortInfo, ev contracts.NoteOn) {
			sources = append(sources, src.Name)
			events = append(events, ev)
		},
		OnNoteOff: func(src contracts.PortInfo, ev contracts.NoteOff) {
			events = append(events, ev)
		},
	}))

	r.Tick()

	assert.Equal(t, []contracts.Event{
		contracts.NoteOn{Channel: 0, Note: 60, Velocity: 100},
		contracts.NoteOff{Channel: 0, Note: 60},
	}, events)
	assert.Equal(t, []string{"Keys"}, sources)

	r.Tick()
	assert.Len(t, events, 3, "draining resumes on the next tick")
}

func TestTickIgnoresUnknownMessages(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, nil)
	backend.pending[0] = []scripted{
		{1, []byte{0xE0, 0, 64}},
		{2, []byte{0xB0, 1, 5}},
	}
	var got []contracts.ControlChange
	r, logs := newTestRegistry(t, backend, contracts.WithHandlers(contracts.Handlers{
		OnControlChange: func(_ contracts.PortInfo, ev contracts.ControlChange) { got = append(got, ev) },
	}))

	r.Tick()

	assert.Equal(t, []contracts.ControlChange{{Channel: 0, Controller: 1, Value: 5}}, got)
	assert.Equal(t, 1, logs.FilterMessage("MIDI message ignored").Len())
}

func TestModesAreIndependent(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, []string{"Synth"})
	r, _ := newTestRegistry(t, backend, contracts.WithModes(contracts.Output))

	r.Tick()

	assert.Empty(t, backend.inputs)
	assert.Len(t, backend.outputs, 1)

	backend.names[contracts.Input] = []string{"Keys", "Pads"}
	r.Tick()
	assert.Empty(t, backend.inputs)
	assert.Len(t, backend.outputs, 1)
}

func TestForwardingToOutput(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, []string{"Midi Through Port-0", "Synth"})
	backend.pending[0] = []scripted{
		{1, []byte{0x91, 64, 90}},
		{2, []byte{0x91, 64, 0}},
	}
	r, _ := newTestRegistry(t, backend)
	r.SetHandlers(contracts.Handlers{
		OnNoteOn: func(_ contracts.PortInfo, ev contracts.NoteOn) {
			if out, ok := r.Output(1); ok {
				require.NoError(t, out.SendNoteOn(ev.Channel, ev.Note, ev.Velocity))
			}
		},
		OnNoteOff: func(_ contracts.PortInfo, ev contracts.NoteOff) {
			if out, ok := r.Output(1); ok {
				require.NoError(t, out.SendNoteOff(ev.Channel, ev.Note))
			}
		},
	})

	r.Tick()

	_, ok := r.Output(0)
	assert.False(t, ok)
	require.Len(t, backend.outputs, 1)
	assert.Equal(t, [][]byte{{0x91, 64, 90}, {0x81, 64, 0}}, backend.outputs[0].sent)
}

func TestOutputRejectsInvalidChannel(t *testing.T) {
	backend := newFakeBackend(nil, []string{"Synth"})
	r, _ := newTestRegistry(t, backend)
	r.Tick()

	out, ok := r.Output(0)
	require.True(t, ok)
	assert.ErrorIs(t, out.SendAllOff(16), ErrInvalidChannel)
	assert.ErrorIs(t, out.SendNoteOff(200, 1), ErrInvalidChannel)
	assert.ErrorIs(t, out.SendControlChange(16, 1, 1), ErrInvalidChannel)
	require.NoError(t, out.SendControlChange(3, 7, 100))
	assert.Equal(t, []byte{0xB3, 7, 100}, backend.outputs[0].sent[len(backend.outputs[0].sent)-1])
}

func TestRegistryClose(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, []string{"Synth"})
	r, _ := newTestRegistry(t, backend)
	r.Tick()

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Equal(t, 1, backend.closes)
	assert.Equal(t, 1, backend.inputs[0].closes)
	assert.Equal(t, 1, backend.outputs[0].closes)

	counts := backend.counts
	r.Tick()
	assert.Equal(t, counts, backend.counts, "tick after close does nothing")
}

func TestCustomExclusions(t *testing.T) {
	backend := newFakeBackend([]string{"RtMidi Through Port-0", "Virtual Keys"}, nil)
	r, _ := newTestRegistry(t, backend, contracts.WithExcludedPortNames("Virtual"))

	set := r.Scan(contracts.Input)

	assert.NotNil(t, set.Slot(0))
	assert.Nil(t, set.Slot(1))
}

func TestHandlerClosingRegistryStopsDrain(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, nil)
	backend.pending[0] = []scripted{
		{1, []byte{0x90, 60, 100}},
		{2, []byte{0x90, 61, 100}},
		{3, []byte{0x90, 62, 100}},
	}
	var r *Registry
	calls := 0
	r, _ = newTestRegistry(t, backend, contracts.WithHandlers(contracts.Handlers{
		OnNoteOn: func(contracts.PortInfo, contracts.NoteOn) {
			calls++
			require.NoError(t, r.Close())
		},
	}))

	r.Tick()

	assert.Equal(t, 1, calls)
	in := backend.inputs[0]
	assert.Equal(t, 1, in.closes)
	assert.Zero(t, in.staleFetches)
	assert.Len(t, in.msgs, 2)
}

func TestHandlerClosingInputStopsDrain(t *testing.T) {
	backend := newFakeBackend([]string{"Keys", "Pads"}, nil)
	backend.pending[0] = []scripted{
		{1, []byte{0x90, 60, 100}},
		{2, []byte{0x90, 61, 100}},
	}
	backend.pending[1] = []scripted{
		{1, []byte{0x90, 36, 90}},
	}
	var r *Registry
	var notes []uint8
	r, _ = newTestRegistry(t, backend, contracts.WithHandlers(contracts.Handlers{
		OnNoteOn: func(src contracts.PortInfo, ev contracts.NoteOn) {
			notes = append(notes, ev.Note)
			if src.Index == 0 {
				require.NoError(t, r.Inputs()[0].Close())
			}
		},
	}))

	r.Tick()
	r.Tick()

	assert.Equal(t, []uint8{60, 36}, notes, "other inputs keep draining")
	assert.Equal(t, 1, backend.inputs[0].closes)
	assert.Zero(t, backend.inputs[0].staleFetches)
}

func TestFilteredEventsAreLogged(t *testing.T) {
	backend := newFakeBackend([]string{"Keys"}, nil)
	backend.pending[0] = []scripted{
		{1, []byte{0x90, 60, 100}},
		{2, []byte{0xB0, 7, 90}},
	}
	var got []contracts.Event
	r, logs := newTestRegistry(t, backend,
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{Commands: []contracts.MIDICommand{contracts.CommandControlChange}}),
		contracts.WithHandlers(contracts.Handlers{
			OnNoteOn:        func(_ contracts.PortInfo, ev contracts.NoteOn) { got = append(got, ev) },
			OnControlChange: func(_ contracts.PortInfo, ev contracts.ControlChange) { got = append(got, ev) },
		}))

	r.Tick()

	assert.Equal(t, []contracts.Event{contracts.ControlChange{Channel: 0, Controller: 7, Value: 90}}, got)
	filtered := logs.FilterMessage("MIDI event filtered").All()
	require.Len(t, filtered, 1)
	assert.Equal(t, zapcore.DebugLevel, filtered[0].Level)
	assert.Equal(t, "Keys", filtered[0].ContextMap()["port"])
	assert.Equal(t, uint8(0x90), filtered[0].ContextMap()["command"])
}

func TestNilPortSet(t *testing.T) {
	var set *PortSet

	assert.Zero(t, set.Len())
	assert.Zero(t, set.Open())
	assert.Nil(t, set.Slot(0))
	assert.Empty(t, set.Inputs())
	assert.Empty(t, set.Outputs())
	assert.Equal(t, contracts.Mode(0), set.Mode())
}
