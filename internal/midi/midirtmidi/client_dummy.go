//go:build !cgo
// +build !cgo

package midirtmidi

import (
	"errors"

	"github.com/leandrodaf/midiports/sdk/contracts"
)

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("RtMidi backend requires cgo")

// NewBackend reports that RtMidi is not compiled in.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	options.Logger.Warn("RtMidi backend requested in a build without cgo")
	return nil, ErrUnavailable
}
