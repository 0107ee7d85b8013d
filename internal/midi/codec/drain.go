package codec

import (
	"github.com/leandrodaf/midiports/sdk/contracts"
)

// Drain fetches messages from h into buf until the queue is empty, a fetch
// fails or fn returns false, calling fn for each one. h is not fetched again
// after fn returns false, so fn may release it. msg.Data aliases buf and is
// only valid during the call. It returns the number of messages delivered.
func Drain(h contracts.InputHandle, buf []byte, fn func(msg contracts.RawMessage) bool) int {
	count := 0
	for {
		n, stamp := h.Fetch(buf)
		if stamp < 0 || n == 0 {
			return count
		}
		if n > len(buf) {
			n = len(buf)
		}
		count++
		if !fn(contracts.RawMessage{Timestamp: stamp, Data: buf[:n]}) {
			return count
		}
	}
}
