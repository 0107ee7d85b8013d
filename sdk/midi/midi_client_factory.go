package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midiports/internal/midi/mididarwin"
	"github.com/leandrodaf/midiports/internal/midi/midigomidi"
	"github.com/leandrodaf/midiports/internal/midi/midirtmidi"
	"github.com/leandrodaf/midiports/internal/midi/midiwindows"
	"github.com/leandrodaf/midiports/sdk/contracts"
)

// ErrUnsupportedOS is returned when no native backend exists for the operating system.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// ErrUnknownBackend is returned for a BackendKind this package does not know.
var ErrUnknownBackend = errors.New("unknown MIDI backend")

type backendInitializer func(*contracts.ClientOptions) (contracts.Backend, error)

// nativeInitializers maps OS names to the backend used by BackendNative.
var nativeInitializers = map[string]backendInitializer{
	"darwin":  mididarwin.NewBackend,  // CoreMIDI.
	"windows": midiwindows.NewBackend, // winmm.
	"linux":   midirtmidi.NewBackend,  // RtMidi over ALSA.
	"freebsd": midirtmidi.NewBackend,  // RtMidi over JACK.
}

// NewBackendWithOptions creates the backend selected by opts.Backend. opts
// must already have defaults applied.
func NewBackendWithOptions(opts *contracts.ClientOptions) (contracts.Backend, error) {
	switch opts.Backend {
	case contracts.BackendNative:
		if initializer, exists := nativeInitializers[runtime.GOOS]; exists {
			return initializer(opts)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
	case contracts.BackendRtMidi:
		return midirtmidi.NewBackend(opts)
	case contracts.BackendLoopback:
		return midigomidi.NewLoopback(opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
