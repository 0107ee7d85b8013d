//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/midiports/sdk/contracts"
)

// ErrUnavailable is returned outside macOS.
var ErrUnavailable = errors.New("CoreMIDI is not available on this platform")

// NewBackend reports that CoreMIDI is unavailable.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	options.Logger.Warn("CoreMIDI backend requested on a non-macOS system")
	return nil, ErrUnavailable
}
