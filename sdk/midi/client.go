package midi

import (
	"github.com/leandrodaf/midiports/internal/ports"
	"github.com/leandrodaf/midiports/sdk/contracts"
)

// NewRegistry creates a port registry with the specified options.
// It applies default options, creates the backend and returns a registry
// that opens nothing until its first Tick.
//
// opts ...contracts.Option: A variadic list of option functions to customize the configuration.
//
// Returns:
//   - contracts.Registry: The registry; the caller drives it with Tick and must Close it.
//   - error: An error if the backend could not be created.
func NewRegistry(opts ...contracts.Option) (contracts.Registry, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	backend, err := NewBackendWithOptions(&options)
	if err != nil {
		options.Logger.Error("Failed to create MIDI backend",
			options.Logger.Field().String("backend", string(options.Backend)),
			options.Logger.Field().Error("error", err))
		return nil, err
	}

	return ports.NewRegistry(backend, &options), nil
}

// NewBackend creates only the backend, for callers that enumerate or open
// ports themselves. The caller must Close it.
func NewBackend(opts ...contracts.Option) (contracts.Backend, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return NewBackendWithOptions(&options)
}
