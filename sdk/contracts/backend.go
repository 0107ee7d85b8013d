package contracts

// Enumerator reports the live device topology. Answers must be stable
// within a single scan.
type Enumerator interface {
	PortCount(mode Mode) (int, error)
	PortName(mode Mode, index int) (string, error)
}

// InputHandle is an open native input connection.
type InputHandle interface {
	// Fetch copies the next pending message into buf and returns its length
	// and timestamp in seconds. n == 0 means the queue is empty; a negative
	// timestamp means the fetch failed. Fetch never blocks.
	Fetch(buf []byte) (n int, timestamp float64)
	Close() error
}

// OutputHandle is an open native output connection.
type OutputHandle interface {
	Send(msg []byte) error
	Close() error
}

// Backend is the native port I/O collaborator.
type Backend interface {
	Enumerator
	OpenInput(index int) (InputHandle, error)
	OpenOutput(index int) (OutputHandle, error)
	// Close releases enumeration resources. Handles opened earlier must be
	// closed by their owners first.
	Close() error
}
