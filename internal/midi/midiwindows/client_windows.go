//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/midiports/internal/midi/queue"
	"github.com/leandrodaf/midiports/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Error definitions for winmm port handling.
var (
	ErrNoSuchPort     = errors.New("no such MIDI port")
	ErrUnknownMode    = errors.New("unknown port mode")
	ErrMessageTooLong = errors.New("winmm short messages carry at most 3 bytes")
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs  = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps  = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen        = winmm.NewProc("midiInOpen")
	procMidiInStart       = winmm.NewProc("midiInStart")
	procMidiInStop        = winmm.NewProc("midiInStop")
	procMidiInClose       = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutReset      = winmm.NewProc("midiOutReset")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// Callbacks are a limited resource, so every input shares one. winmm hands
// back the instance id, which is looked up here instead of passing Go
// pointers through the driver.
var (
	callbackOnce sync.Once
	callback     uintptr

	handlesMu sync.RWMutex
	handles   = map[uintptr]*inputHandle{}
	nextID    uintptr = 1
)

// Backend talks to winmm directly.
type Backend struct {
	logger    contracts.Logger
	queueSize int
}

// NewBackend creates a winmm backend.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	options.Logger.Info("MIDI backend created for Windows")
	return &Backend{logger: options.Logger, queueSize: options.QueueSize}, nil
}

// PortCount returns midiInGetNumDevs or midiOutGetNumDevs.
func (b *Backend) PortCount(mode contracts.Mode) (int, error) {
	switch mode {
	case contracts.Input:
		r0, _, _ := procMidiInGetNumDevs.Call()
		return int(uint32(r0)), nil
	case contracts.Output:
		r0, _, _ := procMidiOutGetNumDevs.Call()
		return int(uint32(r0)), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

// PortName reads the device capabilities.
func (b *Backend) PortName(mode contracts.Mode, index int) (string, error) {
	switch mode {
	case contracts.Input:
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(index), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			return "", fmt.Errorf("%w: in %d (mmsyserr %d)", ErrNoSuchPort, index, r1)
		}
		return windows.UTF16ToString(caps.szPname[:]), nil
	case contracts.Output:
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(index), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			return "", fmt.Errorf("%w: out %d (mmsyserr %d)", ErrNoSuchPort, index, r1)
		}
		return windows.UTF16ToString(caps.szPname[:]), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

// OpenInput opens and starts device index.
func (b *Backend) OpenInput(index int) (contracts.InputHandle, error) {
	callbackOnce.Do(func() {
		callback = windows.NewCallback(midiInCallback)
	})

	h := &inputHandle{queue: queue.New(b.queueSize), logger: b.logger}
	handlesMu.Lock()
	h.id = nextID
	nextID++
	handles[h.id] = h
	handlesMu.Unlock()

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&h.handle)),
		uintptr(index),
		callback,
		h.id,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		h.unregister()
		return nil, fmt.Errorf("failed to open MIDI input %d: %v", index, err)
	}

	r1, _, err = procMidiInStart.Call(h.handle)
	if r1 != 0 {
		procMidiInClose.Call(h.handle)
		h.unregister()
		return nil, fmt.Errorf("failed to start MIDI input %d: %v", index, err)
	}
	return h, nil
}

// OpenOutput opens device index.
func (b *Backend) OpenOutput(index int) (contracts.OutputHandle, error) {
	h := &outputHandle{}
	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&h.handle)),
		uintptr(index),
		0,
		0,
		0,
	)
	if r1 != 0 {
		return nil, fmt.Errorf("failed to open MIDI output %d: %v", index, err)
	}
	return h, nil
}

// Close is a no-op; winmm keeps no enumeration state.
func (b *Backend) Close() error {
	return nil
}

type inputHandle struct {
	id     uintptr
	handle uintptr
	queue  *queue.Queue
	logger contracts.Logger
}

func (h *inputHandle) Fetch(buf []byte) (int, float64) {
	return h.queue.Fetch(buf)
}

func (h *inputHandle) Close() error {
	defer h.unregister()
	h.queue.Close()

	r1, _, err := procMidiInStop.Call(h.handle)
	if r1 != 0 {
		return fmt.Errorf("failed to stop MIDI capture: %v", err)
	}
	r1, _, err = procMidiInClose.Call(h.handle)
	if r1 != 0 {
		return fmt.Errorf("failed to close MIDI device: %v", err)
	}
	return nil
}

func (h *inputHandle) unregister() {
	handlesMu.Lock()
	delete(handles, h.id)
	handlesMu.Unlock()
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn, wMsg, dwInstance, dwParam1, dwParam2 uintptr) uintptr {
	handlesMu.RLock()
	h := handles[dwInstance]
	handlesMu.RUnlock()
	if h == nil {
		return 0
	}

	if wMsg != MIM_DATA {
		logInputStatus(h.logger, uint64(wMsg))
		return 0
	}
	status := byte(dwParam1 & 0xFF)
	msg := []byte{status, byte((dwParam1 >> 8) & 0xFF), byte((dwParam1 >> 16) & 0xFF)}
	if !h.queue.Push(msg[:shortMessageLength(status)], float64(uint32(dwParam2))/1000) {
		h.logger.Warn("MIDI event queue is full; event discarded")
	}
	return 0
}

type outputHandle struct {
	handle uintptr
}

// Send packs up to three bytes into a winmm short message.
func (h *outputHandle) Send(msg []byte) error {
	if len(msg) == 0 {
		return nil
	}
	if len(msg) > 3 {
		return fmt.Errorf("%w: got %d", ErrMessageTooLong, len(msg))
	}
	var packed uint32
	for i, b := range msg {
		packed |= uint32(b) << (8 * i)
	}
	r1, _, err := procMidiOutShortMsg.Call(h.handle, uintptr(packed))
	if r1 != 0 {
		return fmt.Errorf("failed to send MIDI message: %v", err)
	}
	return nil
}

func (h *outputHandle) Close() error {
	procMidiOutReset.Call(h.handle)
	r1, _, err := procMidiOutClose.Call(h.handle)
	if r1 != 0 {
		return fmt.Errorf("failed to close MIDI output: %v", err)
	}
	return nil
}
