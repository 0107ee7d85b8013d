//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/midiports/sdk/contracts"
)

// ErrUnavailable is returned outside Windows.
var ErrUnavailable = errors.New("winmm is not available on this platform")

// NewBackend reports that winmm is unavailable.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	options.Logger.Warn("winmm backend requested on a non-Windows system")
	return nil, ErrUnavailable
}
