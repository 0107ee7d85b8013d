package contracts

// MIDICommand is the status nibble of a channel message, in the high bits.
type MIDICommand byte

const (
	// CommandNoteOff is the MIDI command for a Note Off event (0x80).
	CommandNoteOff MIDICommand = 0x80
	// CommandNoteOn is the MIDI command for a Note On event (0x90).
	CommandNoteOn MIDICommand = 0x90
	// CommandControlChange is the MIDI command for a Control Change event (0xB0).
	CommandControlChange MIDICommand = 0xB0
)

// MIDIEventFilter allows users to specify which MIDI commands to dispatch.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to let through.
}

// Allows reports whether cmd passes the filter. A nil filter allows everything.
func (f *MIDIEventFilter) Allows(cmd MIDICommand) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Commands {
		if c == cmd {
			return true
		}
	}
	return false
}

// BackendKind selects the native port I/O collaborator.
type BackendKind string

const (
	// BackendNative picks CoreMIDI on macOS, winmm on Windows and RtMidi elsewhere.
	BackendNative BackendKind = "native"
	// BackendRtMidi forces the RtMidi backend.
	BackendRtMidi BackendKind = "rtmidi"
	// BackendLoopback uses an in-process loopback driver with one input and one output.
	BackendLoopback BackendKind = "loopback"
)

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// ClientOptions defines the configuration options for the port registry.
type ClientOptions struct {
	Logger            Logger           // Logger for diagnostics.
	LogLevel          LogLevel         // Level of logging to use.
	LogFilePath       string           // File path for logging if file logging is enabled.
	MIDIEventFilter   *MIDIEventFilter // Optional filter for dispatched events.
	CoreMIDIConfig    *CoreMIDIConfig  // Configuration specific to CoreMIDI.
	Backend           BackendKind      // Native collaborator to use.
	Modes             []Mode           // Port sets the registry manages.
	Handlers          Handlers         // Event handlers for every input.
	ExcludedPortNames []string         // Substrings marking virtual loopback ports.
	MessageBufferSize int              // Size of the reused drain buffer.
	QueueSize         int              // Pending messages kept by callback-driven backends.
	AllOffChannels    []uint8          // Channels silenced when an output opens.

	allOffChannelsSet bool
	excludedPortsSet  bool
}

// AllOffChannelsSet reports whether WithAllOffChannels was applied, so an
// explicit empty list can be told apart from the default.
func (o *ClientOptions) AllOffChannelsSet() bool { return o.allOffChannelsSet }

// ExcludedPortNamesSet reports whether WithExcludedPortNames was applied.
func (o *ClientOptions) ExcludedPortNamesSet() bool { return o.excludedPortsSet }

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs log output to a file.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithMIDIEventFilter restricts the event kinds passed to handlers.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithBackend selects the native collaborator.
func WithBackend(kind BackendKind) Option {
	return func(opts *ClientOptions) {
		opts.Backend = kind
	}
}

// WithModes limits the registry to the given port sets.
func WithModes(modes ...Mode) Option {
	return func(opts *ClientOptions) {
		opts.Modes = modes
	}
}

// WithHandlers sets the event handlers.
func WithHandlers(h Handlers) Option {
	return func(opts *ClientOptions) {
		opts.Handlers = h
	}
}

// WithExcludedPortNames replaces the virtual port name filter. An empty list
// opens every enumerated device.
func WithExcludedPortNames(substrings ...string) Option {
	return func(opts *ClientOptions) {
		opts.ExcludedPortNames = substrings
		opts.excludedPortsSet = true
	}
}

// WithMessageBufferSize sets the size of the buffer reused for every fetch.
func WithMessageBufferSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.MessageBufferSize = n
	}
}

// WithQueueSize sets how many pending messages callback-driven backends keep.
func WithQueueSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.QueueSize = n
	}
}

// WithAllOffChannels sets the channels that receive all-sound-off when an
// output opens. No arguments disables it.
func WithAllOffChannels(channels ...uint8) Option {
	return func(opts *ClientOptions) {
		opts.AllOffChannels = channels
		opts.allOffChannelsSet = true
	}
}
