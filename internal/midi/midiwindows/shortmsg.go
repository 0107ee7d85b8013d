package midiwindows

import "github.com/leandrodaf/midiports/sdk/contracts"

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// shortMessageLength returns how many bytes of a packed winmm short message
// belong to the message starting with status.
func shortMessageLength(status byte) int {
	switch {
	case status < 0x80:
		return 1
	case status < 0xC0, status >= 0xE0 && status < 0xF0:
		return 3
	case status < 0xE0:
		return 2
	case status == 0xF1, status == 0xF3:
		return 2
	case status == 0xF2:
		return 3
	default:
		return 1
	}
}

// logInputStatus reports input callback messages that carry no data.
func logInputStatus(log contracts.Logger, wMsg uint64) {
	switch wMsg {
	case MIM_ERROR, MIM_LONGERROR:
		log.Error("MIDI error", log.Field().Uint64("msg", wMsg))
	case MIM_OPEN, MIM_CLOSE, MIM_MOREDATA, MIM_DATA:
	default:
		log.Debug("Unknown MIDI message", log.Field().Uint64("msg", wMsg))
	}
}
