package midi

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midiports/internal/logger"
	"github.com/leandrodaf/midiports/internal/midi/queue"
	"github.com/leandrodaf/midiports/internal/ports"
	"github.com/leandrodaf/midiports/sdk/contracts"
)

// ErrInvalidOption is returned when an option value is out of range.
var ErrInvalidOption = errors.New("invalid option")

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if an option value is out of range.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	options.Logger.SetLevel(options.LogLevel)

	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "GO MIDI Client"}
	}
	if options.Backend == "" {
		options.Backend = contracts.BackendNative
	}
	if len(options.Modes) == 0 {
		options.Modes = []contracts.Mode{contracts.Input, contracts.Output}
	}
	if !options.ExcludedPortNamesSet() {
		options.ExcludedPortNames = ports.DefaultExcludedPortNames
	}
	if options.MessageBufferSize == 0 {
		options.MessageBufferSize = ports.DefaultMessageBufferSize
	}
	if options.QueueSize == 0 {
		options.QueueSize = queue.DefaultSize
	}
	if !options.AllOffChannelsSet() {
		options.AllOffChannels = []uint8{0}
	}

	if options.MessageBufferSize < 3 {
		return *options, fmt.Errorf("%w: message buffer size %d is smaller than a channel message", ErrInvalidOption, options.MessageBufferSize)
	}
	if options.QueueSize < 0 {
		return *options, fmt.Errorf("%w: queue size %d", ErrInvalidOption, options.QueueSize)
	}
	for _, ch := range options.AllOffChannels {
		if ch > 15 {
			return *options, fmt.Errorf("%w: all-off channel %d", ErrInvalidOption, ch)
		}
	}
	for _, m := range options.Modes {
		if m != contracts.Input && m != contracts.Output {
			return *options, fmt.Errorf("%w: mode %s", ErrInvalidOption, m)
		}
	}
	return *options, nil
}
