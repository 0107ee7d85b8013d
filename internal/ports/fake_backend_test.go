package ports

import (
	"errors"

	"github.com/leandrodaf/midiports/sdk/contracts"
)

type scripted struct {
	stamp float64
	data  []byte
}

type fakeInput struct {
	msgs     []scripted
	closes   int
	closeErr error
	// fetches made after the first Close
	staleFetches int
}

func (f *fakeInput) Fetch(buf []byte) (int, float64) {
	if f.closes > 0 {
		f.staleFetches++
	}
	if len(f.msgs) == 0 {
		return 0, 0
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return copy(buf, m.data), m.stamp
}

func (f *fakeInput) Close() error {
	f.closes++
	return f.closeErr
}

type fakeOutput struct {
	sent     [][]byte
	closes   int
	closeErr error
}

func (f *fakeOutput) Send(msg []byte) error {
	f.sent = append(f.sent, append([]byte(nil), msg...))
	return nil
}

func (f *fakeOutput) Close() error {
	f.closes++
	return f.closeErr
}

// fakeBackend scripts enumeration and records every handle it hands out.
type fakeBackend struct {
	names    map[contracts.Mode][]string
	countErr error
	openErr  map[contracts.Mode]map[int]error
	counts   int

	inputs  []*fakeInput
	outputs []*fakeOutput
	// queued messages handed to the next input opened at that index
	pending map[int][]scripted

	closes int
}

func newFakeBackend(ins, outs []string) *fakeBackend {
	return &fakeBackend{
		names: map[contracts.Mode][]string{
			contracts.Input:  ins,
			contracts.Output: outs,
		},
		openErr: map[contracts.Mode]map[int]error{},
		pending: map[int][]scripted{},
	}
}

func (f *fakeBackend) PortCount(mode contracts.Mode) (int, error) {
	f.counts++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.names[mode]), nil
}

func (f *fakeBackend) PortName(mode contracts.Mode, index int) (string, error) {
	names := f.names[mode]
	if index < 0 || index >= len(names) {
		return "", errors.New("no such port")
	}
	return names[index], nil
}

func (f *fakeBackend) OpenInput(index int) (contracts.InputHandle, error) {
	if err := f.openErr[contracts.Input][index]; err != nil {
		return nil, err
	}
	in := &fakeInput{msgs: f.pending[index]}
	delete(f.pending, index)
	f.inputs = append(f.inputs, in)
	return in, nil
}

func (f *fakeBackend) OpenOutput(index int) (contracts.OutputHandle, error) {
	if err := f.openErr[contracts.Output][index]; err != nil {
		return nil, err
	}
	out := &fakeOutput{}
	f.outputs = append(f.outputs, out)
	return out, nil
}

func (f *fakeBackend) Close() error {
	f.closes++
	return nil
}

func (f *fakeBackend) failOpen(mode contracts.Mode, index int, err error) {
	if f.openErr[mode] == nil {
		f.openErr[mode] = map[int]error{}
	}
	f.openErr[mode][index] = err
}
