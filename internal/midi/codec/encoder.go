package codec

import (
	"gitlab.com/gomidi/midi/v2"
)

// ControllerAllSoundOff is the channel mode message that silences every voice.
const ControllerAllSoundOff = 120

// EncodeNoteOn builds a 3-byte note on message. Data bytes are masked to 7 bits.
func EncodeNoteOn(channel, note, velocity uint8) []byte {
	return []byte(midi.NoteOn(channel&0x0F, note&dataMask, velocity&dataMask))
}

// EncodeNoteOff builds a 3-byte note off message with the dedicated 0x8n
// status and zero release velocity.
func EncodeNoteOff(channel, note uint8) []byte {
	return []byte(midi.NoteOff(channel&0x0F, note&dataMask))
}

// EncodeControlChange builds a 3-byte control change message.
func EncodeControlChange(channel, controller, value uint8) []byte {
	return []byte(midi.ControlChange(channel&0x0F, controller&dataMask, value&dataMask))
}

// EncodeAllSoundOff builds control change 120 with value 0.
func EncodeAllSoundOff(channel uint8) []byte {
	return EncodeControlChange(channel, ControllerAllSoundOff, 0)
}
